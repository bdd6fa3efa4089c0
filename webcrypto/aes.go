package webcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// validAESGCMTagLength reports whether bits is one of the five tag
// lengths WebCrypto's AES-GCM permits.
func validAESGCMTagLength(bits int) bool {
	switch bits {
	case 96, 104, 112, 120, 128:
		return true
	default:
		return false
	}
}

func (StdlibProvider) AESEncrypt(p AESParams, key, iv, plaintext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	switch p.Mode {
	case AESCBC:
		if len(iv) != aes.BlockSize {
			return nil, newErr(KindInvalidLength, "AES-CBC IV must be 16 bytes", nil)
		}
		padded := pkcs7Pad(plaintext, aes.BlockSize)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return out, nil

	case AESCTR:
		if err := validateCTRParams(p, iv); err != nil {
			return nil, err
		}
		out := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
		return out, nil

	case AESGCM:
		tagLen := p.TagLength
		if tagLen == 0 {
			tagLen = 128
		}
		if !validAESGCMTagLength(tagLen) {
			return nil, newErr(KindInvalidLength, "AES-GCM tag length must be 96/104/112/120/128", nil)
		}
		gcm, err := cipher.NewGCMWithTagSize(block, tagLen/8)
		if err != nil {
			return nil, newErr(KindOperationFailed, err.Error(), err)
		}
		if len(iv) == 0 {
			return nil, newErr(KindInvalidLength, "AES-GCM requires a nonce", nil)
		}
		return gcm.Seal(nil, iv, plaintext, aad), nil

	default:
		return nil, newErr(KindUnsupportedAlgorithm, "unknown AES mode", nil)
	}
}

func (StdlibProvider) AESDecrypt(p AESParams, key, iv, ciphertext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}
	switch p.Mode {
	case AESCBC:
		if len(iv) != aes.BlockSize {
			return nil, newErr(KindInvalidLength, "AES-CBC IV must be 16 bytes", nil)
		}
		if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
			return nil, newErr(KindDecryptionFailed, "ciphertext is not a multiple of the block size", nil)
		}
		out := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		unpadded, err := pkcs7Unpad(out, aes.BlockSize)
		if err != nil {
			return nil, newErr(KindDecryptionFailed, err.Error(), err)
		}
		return unpadded, nil

	case AESCTR:
		if err := validateCTRParams(p, iv); err != nil {
			return nil, err
		}
		out := make([]byte, len(ciphertext))
		cipher.NewCTR(block, iv).XORKeyStream(out, ciphertext)
		return out, nil

	case AESGCM:
		tagLen := p.TagLength
		if tagLen == 0 {
			tagLen = 128
		}
		if !validAESGCMTagLength(tagLen) {
			return nil, newErr(KindInvalidLength, "AES-GCM tag length must be 96/104/112/120/128", nil)
		}
		gcm, err := cipher.NewGCMWithTagSize(block, tagLen/8)
		if err != nil {
			return nil, newErr(KindOperationFailed, err.Error(), err)
		}
		pt, err := gcm.Open(nil, iv, ciphertext, aad)
		if err != nil {
			return nil, newErr(KindDecryptionFailed, "authentication failed", err)
		}
		return pt, nil

	default:
		return nil, newErr(KindUnsupportedAlgorithm, "unknown AES mode", nil)
	}
}

// validateCTRParams checks the counter block and counter length. The
// counter spans the whole 16-byte block here, so all three permitted
// lengths share one keystream implementation. No message-length limit is
// checked here, so a message long enough to wrap a 32- or 64-bit counter
// carries into the bits above it.
func validateCTRParams(p AESParams, iv []byte) error {
	if len(iv) != aes.BlockSize {
		return newErr(KindInvalidLength, "AES-CTR counter block must be 16 bytes", nil)
	}
	switch p.CounterLength {
	case 0, 32, 64, 128:
		return nil
	default:
		return newErr(KindInvalidLength, "AES-CTR counter length must be 32/64/128", nil)
	}
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errInvalidPadding
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errInvalidPadding
		}
	}
	return data[:len(data)-padLen], nil
}

var errInvalidPadding = newErr(KindDecryptionFailed, "invalid PKCS#7 padding", nil)

// randomBytes is a thin wrapper kept for symmetry with the key-generation
// helpers in keygen.go.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, newErr(KindOperationFailed, "crypto/rand", err)
	}
	return b, nil
}
