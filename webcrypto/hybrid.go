package webcrypto

import "golang.org/x/sys/cpu"

// hwAESAvailable reports whether this CPU exposes hardware AES support.
// golang.org/x/sys/cpu exposes the relevant feature
// flag per architecture; unrecognized architectures report false and fall
// back to the portable backend.
func hwAESAvailable() bool {
	return cpu.X86.HasAES || cpu.ARM64.HasAES
}

// HybridDispatcher composes a hardware-accelerated AES-GCM backend with
// a portable default, routing every other operation to Default. The
// dispatcher never changes observable output: both legs are Provider
// implementations over the same Go stdlib primitives, so byte-for-byte
// parity with Default holds trivially; HW exists as a distinct leg so a
// future platform-specific backend (cgo AES-NI intrinsics, etc.) can be
// substituted without touching the routing logic.
type HybridDispatcher struct {
	Default Provider
	HW      Provider

	// ForceHW/ForceSW override CPU detection for deterministic tests.
	ForceHW bool
	ForceSW bool
}

// NewHybridDispatcher returns a dispatcher backed by StdlibProvider on both
// legs; callers needing a genuinely distinct hardware backend supply their
// own HW provider.
func NewHybridDispatcher() *HybridDispatcher {
	return &HybridDispatcher{Default: StdlibProvider{}, HW: StdlibProvider{}}
}

func (h *HybridDispatcher) useHW(keyBits int) bool {
	if h.ForceSW {
		return false
	}
	if h.ForceHW {
		return true
	}
	return hwAESAvailable() && (keyBits == 128 || keyBits == 256)
}

func (h *HybridDispatcher) aesGCMLeg(keyBytes int) Provider {
	if h.useHW(keyBytes * 8) {
		return h.HW
	}
	return h.Default
}

func (h *HybridDispatcher) AESEncrypt(p AESParams, key, iv, plaintext, aad []byte) ([]byte, error) {
	if p.Mode == AESGCM {
		return h.aesGCMLeg(len(key)).AESEncrypt(p, key, iv, plaintext, aad)
	}
	return h.Default.AESEncrypt(p, key, iv, plaintext, aad)
}

func (h *HybridDispatcher) AESDecrypt(p AESParams, key, iv, ciphertext, aad []byte) ([]byte, error) {
	if p.Mode == AESGCM {
		return h.aesGCMLeg(len(key)).AESDecrypt(p, key, iv, ciphertext, aad)
	}
	return h.Default.AESDecrypt(p, key, iv, ciphertext, aad)
}

// Every other operation is a plain pass-through to Default.
func (h *HybridDispatcher) Digest(alg HashAlg) (Hasher, error) { return h.Default.Digest(alg) }
func (h *HybridDispatcher) HMAC(alg HashAlg, key []byte) (Mac, error) {
	return h.Default.HMAC(alg, key)
}
func (h *HybridDispatcher) ECDSASign(c ECCurve, k []byte, ha HashAlg, d []byte) ([]byte, error) {
	return h.Default.ECDSASign(c, k, ha, d)
}
func (h *HybridDispatcher) ECDSAVerify(c ECCurve, k []byte, ha HashAlg, s, d []byte) (bool, error) {
	return h.Default.ECDSAVerify(c, k, ha, s, d)
}
func (h *HybridDispatcher) Ed25519Sign(k, d []byte) ([]byte, error) { return h.Default.Ed25519Sign(k, d) }
func (h *HybridDispatcher) Ed25519Verify(k, s, d []byte) (bool, error) {
	return h.Default.Ed25519Verify(k, s, d)
}
func (h *HybridDispatcher) RSAPSSSign(k []byte, ha HashAlg, sl int, d []byte) ([]byte, error) {
	return h.Default.RSAPSSSign(k, ha, sl, d)
}
func (h *HybridDispatcher) RSAPSSVerify(k []byte, ha HashAlg, sl int, s, d []byte) (bool, error) {
	return h.Default.RSAPSSVerify(k, ha, sl, s, d)
}
func (h *HybridDispatcher) RSAPKCS1v15Sign(k []byte, ha HashAlg, d []byte) ([]byte, error) {
	return h.Default.RSAPKCS1v15Sign(k, ha, d)
}
func (h *HybridDispatcher) RSAPKCS1v15Verify(k []byte, ha HashAlg, s, d []byte) (bool, error) {
	return h.Default.RSAPKCS1v15Verify(k, ha, s, d)
}
func (h *HybridDispatcher) RSAOAEPEncrypt(k []byte, ha HashAlg, label, pt []byte) ([]byte, error) {
	return h.Default.RSAOAEPEncrypt(k, ha, label, pt)
}
func (h *HybridDispatcher) RSAOAEPDecrypt(k []byte, ha HashAlg, label, ct []byte) ([]byte, error) {
	return h.Default.RSAOAEPDecrypt(k, ha, label, ct)
}
func (h *HybridDispatcher) ECDHDeriveBits(c ECCurve, priv, pub []byte, n int) ([]byte, error) {
	return h.Default.ECDHDeriveBits(c, priv, pub, n)
}
func (h *HybridDispatcher) X25519DeriveBits(priv, pub []byte, n int) ([]byte, error) {
	return h.Default.X25519DeriveBits(priv, pub, n)
}
func (h *HybridDispatcher) AESKeyWrap(kek, pt []byte) ([]byte, error) {
	return h.Default.AESKeyWrap(kek, pt)
}
func (h *HybridDispatcher) AESKeyUnwrap(kek, ct []byte) ([]byte, error) {
	return h.Default.AESKeyUnwrap(kek, ct)
}
func (h *HybridDispatcher) HKDFDeriveBits(ha HashAlg, ikm, salt, info []byte, n int) ([]byte, error) {
	return h.Default.HKDFDeriveBits(ha, ikm, salt, info, n)
}
func (h *HybridDispatcher) PBKDF2DeriveBits(ha HashAlg, pw, salt []byte, iter, n int) ([]byte, error) {
	return h.Default.PBKDF2DeriveBits(ha, pw, salt, iter, n)
}
func (h *HybridDispatcher) GenerateAESKey(bits int) ([]byte, error) { return h.Default.GenerateAESKey(bits) }
func (h *HybridDispatcher) GenerateHMACKey(ha HashAlg, bits int) ([]byte, error) {
	return h.Default.GenerateHMACKey(ha, bits)
}
func (h *HybridDispatcher) GenerateECKeyPair(c ECCurve) ([]byte, []byte, error) {
	return h.Default.GenerateECKeyPair(c)
}
func (h *HybridDispatcher) GenerateEd25519KeyPair() ([]byte, []byte, error) {
	return h.Default.GenerateEd25519KeyPair()
}
func (h *HybridDispatcher) GenerateX25519KeyPair() ([]byte, []byte, error) {
	return h.Default.GenerateX25519KeyPair()
}
func (h *HybridDispatcher) GenerateRSAKeyPair(bits, exp int) ([]byte, []byte, error) {
	return h.Default.GenerateRSAKeyPair(bits, exp)
}
func (h *HybridDispatcher) ImportKey(f KeyFormat, data []byte, jwk *JWKComponents) ([]byte, string, error) {
	return h.Default.ImportKey(f, data, jwk)
}
func (h *HybridDispatcher) ExportKey(f KeyFormat, der []byte, kind string) ([]byte, *JWKComponents, error) {
	return h.Default.ExportKey(f, der, kind)
}

var _ Provider = (*HybridDispatcher)(nil)
var _ Provider = StdlibProvider{}
