package webcrypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"math/big"
)

func ellipticCurve(c ECCurve) elliptic.Curve {
	switch c {
	case P256:
		return elliptic.P256()
	case P384:
		return elliptic.P384()
	case P521:
		return elliptic.P521()
	default:
		return nil
	}
}

// ECDSASign signs data's digest under hashAlg with a PKCS#8-encoded private
// key, returning the raw r||s concatenation WebCrypto expects (not ASN.1
// DER, which is what x509/ecdsa.SignASN1 would give).
func (StdlibProvider) ECDSASign(curve ECCurve, pkcs8Key []byte, hashAlg HashAlg, data []byte) ([]byte, error) {
	ec := ellipticCurve(curve)
	if ec == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(curve), nil)
	}
	key, err := x509.ParsePKCS8PrivateKey(pkcs8Key)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, newErr(KindInvalidKey, "not an ECDSA private key", nil)
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	h := ctor()
	h.Write(data)
	digest := h.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, newErr(KindSigningFailed, err.Error(), err)
	}
	byteLen := (ec.Params().BitSize + 7) / 8
	out := make([]byte, 2*byteLen)
	r.FillBytes(out[:byteLen])
	s.FillBytes(out[byteLen:])
	return out, nil
}

// ECDSAVerify verifies a raw r||s signature against an SPKI-encoded public key.
func (StdlibProvider) ECDSAVerify(curve ECCurve, spkiKey []byte, hashAlg HashAlg, sig, data []byte) (bool, error) {
	ec := ellipticCurve(curve)
	if ec == nil {
		return false, newErr(KindUnsupportedAlgorithm, string(curve), nil)
	}
	key, err := x509.ParsePKIXPublicKey(spkiKey)
	if err != nil {
		return false, newErr(KindInvalidKey, err.Error(), err)
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return false, newErr(KindInvalidKey, "not an ECDSA public key", nil)
	}
	byteLen := (ec.Params().BitSize + 7) / 8
	if len(sig) != 2*byteLen {
		return false, newErr(KindInvalidSignature, "signature has the wrong length for this curve", nil)
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return false, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	h := ctor()
	h.Write(data)
	digest := h.Sum(nil)

	r := new(big.Int).SetBytes(sig[:byteLen])
	s := new(big.Int).SetBytes(sig[byteLen:])
	return ecdsa.Verify(pub, digest, r, s), nil
}
