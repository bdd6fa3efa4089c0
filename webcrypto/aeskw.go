package webcrypto

import (
	"crypto/aes"
	"encoding/binary"
)

// aesKWDefaultIV is the fixed initial value RFC 3394 §2.2.3.1 specifies.
var aesKWDefaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// AESKeyWrap implements RFC 3394 AES Key Wrap.
func (StdlibProvider) AESKeyWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext)%8 != 0 || len(plaintext) < 16 {
		return nil, newErr(KindInvalidLength, "AES-KW plaintext must be a multiple of 8 bytes, at least 16", nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}

	n := len(plaintext) / 8
	a := aesKWDefaultIV
	r := make([][]byte, n)
	for i := 0; i < n; i++ {
		r[i] = append([]byte{}, plaintext[i*8:(i+1)*8]...)
	}

	buf := make([]byte, 16)
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i])
			block.Encrypt(buf, buf)
			copy(a[:], buf[:8])
			t := uint64(n*j + i + 1)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			for k := 0; k < 8; k++ {
				a[k] ^= tb[k]
			}
			copy(r[i], buf[8:])
		}
	}

	out := make([]byte, 8+n*8)
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i])
	}
	return out, nil
}

// AESKeyUnwrap implements RFC 3394 AES Key Unwrap.
func (StdlibProvider) AESKeyUnwrap(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%8 != 0 || len(ciphertext) < 24 {
		return nil, newErr(KindInvalidLength, "AES-KW ciphertext must be a multiple of 8 bytes, at least 24", nil)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, newErr(KindInvalidKey, err.Error(), err)
	}

	n := len(ciphertext)/8 - 1
	var a [8]byte
	copy(a[:], ciphertext[:8])
	r := make([][]byte, n)
	for i := 0; i < n; i++ {
		r[i] = append([]byte{}, ciphertext[8+i*8:8+(i+1)*8]...)
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + i + 1)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			var aXorT [8]byte
			for k := 0; k < 8; k++ {
				aXorT[k] = a[k] ^ tb[k]
			}
			copy(buf[:8], aXorT[:])
			copy(buf[8:], r[i])
			block.Decrypt(buf, buf)
			copy(a[:], buf[:8])
			copy(r[i], buf[8:])
		}
	}

	if a != aesKWDefaultIV {
		return nil, newErr(KindDecryptionFailed, "AES-KW integrity check failed", nil)
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:(i+1)*8], r[i])
	}
	return out, nil
}
