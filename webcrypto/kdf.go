package webcrypto

import (
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// HKDFDeriveBits implements RFC 5869 via golang.org/x/crypto/hkdf.
func (StdlibProvider) HKDFDeriveBits(hashAlg HashAlg, ikm, salt, info []byte, lengthBits int) ([]byte, error) {
	if lengthBits%8 != 0 {
		return nil, newErr(KindInvalidLength, "HKDF length must be a multiple of 8", nil)
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	out := make([]byte, lengthBits/8)
	r := hkdf.New(ctor, ikm, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, newErr(KindDerivationFailed, err.Error(), err)
	}
	return out, nil
}

// PBKDF2DeriveBits implements RFC 2898 via golang.org/x/crypto/pbkdf2.
func (StdlibProvider) PBKDF2DeriveBits(hashAlg HashAlg, password, salt []byte, iterations, lengthBits int) ([]byte, error) {
	if lengthBits%8 != 0 {
		return nil, newErr(KindInvalidLength, "PBKDF2 length must be a multiple of 8", nil)
	}
	if iterations < 1 {
		return nil, newErr(KindInvalidLength, "PBKDF2 iterations must be at least 1", nil)
	}
	ctor := hashCtor(hashAlg)
	if ctor == nil {
		return nil, newErr(KindUnsupportedAlgorithm, string(hashAlg), nil)
	}
	return pbkdf2.Key(password, salt, iterations, lengthBits/8, ctor), nil
}
