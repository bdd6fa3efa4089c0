package webcrypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
)

func (StdlibProvider) GenerateAESKey(bits int) ([]byte, error) {
	switch bits {
	case 128, 192, 256:
	default:
		return nil, newErr(KindInvalidLength, "AES key length must be 128, 192, or 256 bits", nil)
	}
	return randomBytes(bits / 8)
}

func (StdlibProvider) GenerateHMACKey(hashAlg HashAlg, bits int) ([]byte, error) {
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	if bits <= 0 {
		bits = ctor().BlockSize() * 8
	}
	return randomBytes((bits + 7) / 8)
}

func (StdlibProvider) GenerateECKeyPair(curve ECCurve) (pkcs8Priv, spkiPub []byte, err error) {
	ec := ellipticCurve(curve)
	if ec == nil {
		return nil, nil, newErr(KindUnsupportedAlgorithm, string(curve), nil)
	}
	priv, err := ecdsa.GenerateKey(ec, rand.Reader)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	return mustEncodeECKeyPair(priv)
}

func mustEncodeECKeyPair(priv *ecdsa.PrivateKey) (pkcs8Priv, spkiPub []byte, err error) {
	pkcs8Priv, err = x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	spkiPub, err = x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	return pkcs8Priv, spkiPub, nil
}

func (StdlibProvider) GenerateEd25519KeyPair() (rawPriv, rawPub []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	return []byte(priv), []byte(pub), nil
}

func (StdlibProvider) GenerateX25519KeyPair() (rawPriv, rawPub []byte, err error) {
	key, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	return key.Bytes(), key.PublicKey().Bytes(), nil
}

// GenerateRSAKeyPair rejects non-standard public exponents and modulus
// lengths. Only publicExponent 65537 is supported; Go's rsa.GenerateKey
// always uses it too.
func (StdlibProvider) GenerateRSAKeyPair(modulusBits int, publicExponent int) (pkcs8Priv, spkiPub []byte, err error) {
	if publicExponent != 0 && publicExponent != 65537 {
		return nil, nil, newErr(KindUnsupportedAlgorithm, "only publicExponent 65537 is supported", nil)
	}
	switch modulusBits {
	case 2048, 3072, 4096:
	default:
		return nil, nil, newErr(KindInvalidLength, "modulusLength must be 2048, 3072, or 4096", nil)
	}
	priv, err := rsa.GenerateKey(rand.Reader, modulusBits)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	pkcs8Priv, err = x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	spkiPub, err = x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, newErr(KindOperationFailed, err.Error(), err)
	}
	return pkcs8Priv, spkiPub, nil
}
