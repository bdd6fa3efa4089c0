package webcrypto

import (
	"crypto/ecdh"
	"crypto/x509"

	"golang.org/x/crypto/curve25519"
)

func ecdhCurve(c ECCurve) ecdh.Curve {
	switch c {
	case P256:
		return ecdh.P256()
	case P384:
		return ecdh.P384()
	case P521:
		return ecdh.P521()
	default:
		return nil
	}
}

// ECDHDeriveBits derives a shared secret from a PKCS#8 private key and an
// SPKI public key on the same curve, truncating (or, if lengthBits is 0,
// returning the full secret) per WebCrypto's deriveBits length parameter.
func (StdlibProvider) ECDHDeriveBits(curve ECCurve, pkcs8Priv, spkiPub []byte, lengthBits int) ([]byte, error) {
	ec := ecdhCurve(curve)
	if ec == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(curve), nil)
	}
	privAny, err := x509.ParsePKCS8PrivateKey(pkcs8Priv)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	privEcdsa, ok := privAny.(interface {
		ECDH() (*ecdh.PrivateKey, error)
	})
	var priv *ecdh.PrivateKey
	if ok {
		priv, err = privEcdsa.ECDH()
		if err != nil {
			return nil, newErr(KindInvalidKey, err.Error(), err)
		}
	} else {
		return nil, newErr(KindInvalidKey, "not an ECDH-capable private key", nil)
	}

	pubAny, err := x509.ParsePKIXPublicKey(spkiPub)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	pubEcdsa, ok := pubAny.(interface {
		ECDH() (*ecdh.PublicKey, error)
	})
	if !ok {
		return nil, newErr(KindInvalidKey, "not an ECDH-capable public key", nil)
	}
	pub, err := pubEcdsa.ECDH()
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}

	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, newErr(KindDerivationFailed, err.Error(), err)
	}
	return truncateBits(secret, lengthBits), nil
}

// X25519DeriveBits performs X25519 scalar multiplication via
// golang.org/x/crypto/curve25519.
func (StdlibProvider) X25519DeriveBits(rawPriv, rawPub []byte, lengthBits int) ([]byte, error) {
	if len(rawPriv) != 32 || len(rawPub) != 32 {
		return nil, newErr(KindInvalidKey, "X25519 keys must be 32 bytes", nil)
	}
	secret, err := curve25519.X25519(rawPriv, rawPub)
	if err != nil {
		return nil, newErr(KindDerivationFailed, err.Error(), err)
	}
	return truncateBits(secret, lengthBits), nil
}

func truncateBits(secret []byte, lengthBits int) []byte {
	if lengthBits <= 0 {
		return secret
	}
	n := lengthBits / 8
	if n > len(secret) {
		n = len(secret)
	}
	return secret[:n]
}
