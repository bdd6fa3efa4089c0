package webcrypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// hashCtor returns the stdlib constructor for alg. MD5 is deliberately
// absent (HMAC-MD5 must fail as unsupported rather than produce
// output), so any MD5 request falls through to the default.
func hashCtor(alg HashAlg) func() hash.Hash {
	switch alg {
	case SHA1:
		return sha1.New
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	default:
		return nil
	}
}

// StdlibProvider implements Provider entirely atop the Go standard library
// and golang.org/x/crypto; it is the "default" leg of HybridDispatcher and,
// used alone, a complete Provider in its own right.
type StdlibProvider struct{}

func (StdlibProvider) Digest(alg HashAlg) (Hasher, error) {
	ctor := hashCtor(alg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(alg), nil)
	}
	return ctor(), nil
}

func (StdlibProvider) HMAC(alg HashAlg, key []byte) (Mac, error) {
	ctor := hashCtor(alg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(alg)+" (HMAC)", nil)
	}
	if len(key) == 0 {
		return nil, newErr(KindInvalidKey, "empty HMAC key", nil)
	}
	return hmac.New(ctor, key), nil
}
