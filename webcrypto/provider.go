package webcrypto

import "hash"

// HashAlg is a normalized digest algorithm name.
type HashAlg string

const (
	SHA1   HashAlg = "SHA-1"
	SHA256 HashAlg = "SHA-256"
	SHA384 HashAlg = "SHA-384"
	SHA512 HashAlg = "SHA-512"
)

// AESMode selects the AES block-cipher mode.
type AESMode int

const (
	AESCBC AESMode = iota
	AESCTR
	AESGCM
)

// AESParams carries the mode-specific parameters for an AES operation.
// CounterLength applies only to AESCTR (32/64/128); TagLength applies
// only to AESGCM (96/104/112/120/128).
type AESParams struct {
	Mode          AESMode
	CounterLength int
	TagLength     int
}

// ECCurve names an elliptic curve for ECDSA/ECDH.
type ECCurve string

const (
	P256 ECCurve = "P-256"
	P384 ECCurve = "P-384"
	P521 ECCurve = "P-521"
)

// KeyFormat is a canonical key encoding for import/export.
type KeyFormat int

const (
	FormatPKCS1 KeyFormat = iota
	FormatPKCS8
	FormatSPKI
	FormatSEC1
	FormatRaw
	FormatJWK
)

// JWKComponents carries JWK fields as raw component tuples: big-endian
// unsigned integers with no base64 (the caller base64url-encodes them at
// the JS boundary).
type JWKComponents struct {
	KeyType string // "RSA", "EC", "OKP", "oct"
	Curve   string // "P-256", "X25519", "Ed25519", ... (EC/OKP only)

	// RSA
	N, E, D, P, Q, DP, DQ, QI []byte

	// EC/OKP
	X, Y []byte // public point (Y empty for OKP)
	Priv []byte // private scalar (EC "d" / OKP seed)

	// oct (HMAC/AES raw secret)
	K []byte
}

// Hasher is an incremental digest, exposed so a streaming digest surface
// can be layered on top without widening the Provider interface.
type Hasher interface {
	hash.Hash
}

// Mac is an incremental MAC, mirroring Hasher.
type Mac interface {
	hash.Hash
}

// Provider is the single capability set behind the runtime's WebCrypto
// surface: every cryptographic operation it needs, with no ambient
// state. A concrete Provider may itself be
// a HybridDispatcher composed from several backends (see hybrid.go).
type Provider interface {
	Digest(alg HashAlg) (Hasher, error)
	HMAC(alg HashAlg, key []byte) (Mac, error)

	ECDSASign(curve ECCurve, pkcs8Key []byte, hashAlg HashAlg, data []byte) ([]byte, error)
	ECDSAVerify(curve ECCurve, spkiKey []byte, hashAlg HashAlg, sig, data []byte) (bool, error)

	Ed25519Sign(rawPriv []byte, data []byte) ([]byte, error)
	Ed25519Verify(rawPub []byte, sig, data []byte) (bool, error)

	RSAPSSSign(pkcs8Key []byte, hashAlg HashAlg, saltLength int, data []byte) ([]byte, error)
	RSAPSSVerify(spkiKey []byte, hashAlg HashAlg, saltLength int, sig, data []byte) (bool, error)
	RSAPKCS1v15Sign(pkcs8Key []byte, hashAlg HashAlg, data []byte) ([]byte, error)
	RSAPKCS1v15Verify(spkiKey []byte, hashAlg HashAlg, sig, data []byte) (bool, error)
	RSAOAEPEncrypt(spkiKey []byte, hashAlg HashAlg, label, plaintext []byte) ([]byte, error)
	RSAOAEPDecrypt(pkcs8Key []byte, hashAlg HashAlg, label, ciphertext []byte) ([]byte, error)

	ECDHDeriveBits(curve ECCurve, pkcs8Priv, spkiPub []byte, lengthBits int) ([]byte, error)
	X25519DeriveBits(rawPriv, rawPub []byte, lengthBits int) ([]byte, error)

	AESEncrypt(params AESParams, key, iv, plaintext, aad []byte) ([]byte, error)
	AESDecrypt(params AESParams, key, iv, ciphertext, aad []byte) ([]byte, error)
	AESKeyWrap(kek, plaintext []byte) ([]byte, error)
	AESKeyUnwrap(kek, ciphertext []byte) ([]byte, error)

	HKDFDeriveBits(hashAlg HashAlg, ikm, salt, info []byte, lengthBits int) ([]byte, error)
	PBKDF2DeriveBits(hashAlg HashAlg, password, salt []byte, iterations, lengthBits int) ([]byte, error)

	GenerateAESKey(bits int) ([]byte, error)
	GenerateHMACKey(hashAlg HashAlg, bits int) ([]byte, error)
	GenerateECKeyPair(curve ECCurve) (pkcs8Priv, spkiPub []byte, err error)
	GenerateEd25519KeyPair() (rawPriv, rawPub []byte, err error)
	GenerateX25519KeyPair() (rawPriv, rawPub []byte, err error)
	GenerateRSAKeyPair(modulusBits int, publicExponent int) (pkcs8Priv, spkiPub []byte, err error)

	ImportKey(format KeyFormat, data []byte, jwk *JWKComponents) (der []byte, kind string, err error)
	ExportKey(format KeyFormat, der []byte, kind string) ([]byte, *JWKComponents, error)
}
