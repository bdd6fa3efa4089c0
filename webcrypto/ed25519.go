package webcrypto

import "crypto/ed25519"

// Ed25519Sign and Ed25519Verify take raw 32/64-byte key material directly
// (no DER envelope); WebCrypto's Ed25519/OKP "raw" format is the seed or
// point bytes verbatim, matching ed25519.PrivateKey/PublicKey's native
// representation. A 32-byte private key is treated as a seed, per
// RFC 8032 and the JOSE convention.
func (StdlibProvider) Ed25519Sign(rawPriv []byte, data []byte) ([]byte, error) {
	var priv ed25519.PrivateKey
	switch len(rawPriv) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(rawPriv)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(rawPriv)
	default:
		return nil, newErr(KindInvalidKey, "Ed25519 private key must be 32 or 64 bytes", nil)
	}
	return ed25519.Sign(priv, data), nil
}

func (StdlibProvider) Ed25519Verify(rawPub []byte, sig, data []byte) (bool, error) {
	if len(rawPub) != ed25519.PublicKeySize {
		return false, newErr(KindInvalidKey, "Ed25519 public key must be 32 bytes", nil)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, newErr(KindInvalidSignature, "Ed25519 signature must be 64 bytes", nil)
	}
	return ed25519.Verify(ed25519.PublicKey(rawPub), data, sig), nil
}
