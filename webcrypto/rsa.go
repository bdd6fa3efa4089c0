package webcrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
)

func cryptoHash(alg HashAlg) crypto.Hash {
	switch alg {
	case SHA1:
		return crypto.SHA1
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

func digestOf(alg HashAlg, data []byte) ([]byte, error) {
	ctor := hashCtor(alg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(alg), nil)
	}
	h := ctor()
	h.Write(data)
	return h.Sum(nil), nil
}

func parseRSAPrivate(pkcs8Key []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(pkcs8Key)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, newErr(KindInvalidKey, "not an RSA private key", nil)
	}
	return priv, nil
}

func parseRSAPublic(spkiKey []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(spkiKey)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, newErr(KindInvalidKey, "not an RSA public key", nil)
	}
	return pub, nil
}

// RSAPSSSign: saltLength 0 maps to rsa.PSSSaltLengthEqualsHash, the
// WebCrypto default.
func (StdlibProvider) RSAPSSSign(pkcs8Key []byte, hashAlg HashAlg, saltLength int, data []byte) ([]byte, error) {
	priv, err := parseRSAPrivate(pkcs8Key)
	if err != nil {
		return nil, err
	}
	ch := cryptoHash(hashAlg)
	if ch == 0 {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	digest, err := digestOf(hashAlg, data)
	if err != nil {
		return nil, err
	}
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}
	if saltLength > 0 {
		opts.SaltLength = saltLength
	}
	sig, err := rsa.SignPSS(rand.Reader, priv, ch, digest, opts)
	if err != nil {
		return nil, newErr(KindSigningFailed, err.Error(), err)
	}
	return sig, nil
}

func (StdlibProvider) RSAPSSVerify(spkiKey []byte, hashAlg HashAlg, saltLength int, sig, data []byte) (bool, error) {
	pub, err := parseRSAPublic(spkiKey)
	if err != nil {
		return false, err
	}
	ch := cryptoHash(hashAlg)
	if ch == 0 {
		return false, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	digest, err := digestOf(hashAlg, data)
	if err != nil {
		return false, err
	}
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}
	if saltLength > 0 {
		opts.SaltLength = saltLength
	}
	return rsa.VerifyPSS(pub, ch, digest, sig, opts) == nil, nil
}

func (StdlibProvider) RSAPKCS1v15Sign(pkcs8Key []byte, hashAlg HashAlg, data []byte) ([]byte, error) {
	priv, err := parseRSAPrivate(pkcs8Key)
	if err != nil {
		return nil, err
	}
	ch := cryptoHash(hashAlg)
	if ch == 0 {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	digest, err := digestOf(hashAlg, data)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, ch, digest)
	if err != nil {
		return nil, newErr(KindSigningFailed, err.Error(), err)
	}
	return sig, nil
}

func (StdlibProvider) RSAPKCS1v15Verify(spkiKey []byte, hashAlg HashAlg, sig, data []byte) (bool, error) {
	pub, err := parseRSAPublic(spkiKey)
	if err != nil {
		return false, err
	}
	ch := cryptoHash(hashAlg)
	if ch == 0 {
		return false, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	digest, err := digestOf(hashAlg, data)
	if err != nil {
		return false, err
	}
	return rsa.VerifyPKCS1v15(pub, ch, digest, sig) == nil, nil
}

// RSAOAEPEncrypt treats an empty label as no label; Go's
// rsa.EncryptOAEP already does this since a zero-length []byte label and a
// nil label hash identically, but we pass nil explicitly for clarity.
func (StdlibProvider) RSAOAEPEncrypt(spkiKey []byte, hashAlg HashAlg, label, plaintext []byte) ([]byte, error) {
	pub, err := parseRSAPublic(spkiKey)
	if err != nil {
		return nil, err
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	if len(label) == 0 {
		label = nil
	}
	ct, err := rsa.EncryptOAEP(ctor(), rand.Reader, pub, plaintext, label)
	if err != nil {
		return nil, newErr(KindEncryptionFailed, err.Error(), err)
	}
	return ct, nil
}

func (StdlibProvider) RSAOAEPDecrypt(pkcs8Key []byte, hashAlg HashAlg, label, ciphertext []byte) ([]byte, error) {
	priv, err := parseRSAPrivate(pkcs8Key)
	if err != nil {
		return nil, err
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	if len(label) == 0 {
		label = nil
	}
	pt, err := rsa.DecryptOAEP(ctor(), rand.Reader, priv, ciphertext, label)
	if err != nil {
		return nil, newErr(KindDecryptionFailed, err.Error(), err)
	}
	return pt, nil
}
