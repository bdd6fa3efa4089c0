// Package webcrypto implements a pluggable cryptography provider for the
// runtime's WebCrypto surface, exposed as a single Go interface, with a
// hybrid dispatcher that routes individual operations across backends.
//
// Key material crosses every API boundary as opaque byte strings in
// canonical encodings (PKCS#1 / PKCS#8 / SPKI / SEC1 / raw / JWK component
// tuples); there are no handles and no ambient state.
package webcrypto

// Kind distinguishes the provider's error classes. Callers branch on
// these with errors.Is; in particular VerificationFailed (a cryptographic
// "no") must stay distinguishable from InvalidSignature (a parse/shape
// error).
type Kind int

const (
	KindNone Kind = iota
	KindInvalidKey
	KindInvalidData
	KindInvalidSignature
	KindInvalidLength
	KindSigningFailed
	KindVerificationFailed
	KindOperationFailed
	KindUnsupportedAlgorithm
	KindDerivationFailed
	KindEncryptionFailed
	KindDecryptionFailed
)

var kindNames = map[Kind]string{
	KindInvalidKey:           "InvalidKey",
	KindInvalidData:          "InvalidData",
	KindInvalidSignature:     "InvalidSignature",
	KindInvalidLength:        "InvalidLength",
	KindSigningFailed:        "SigningFailed",
	KindVerificationFailed:   "VerificationFailed",
	KindOperationFailed:      "OperationFailed",
	KindUnsupportedAlgorithm: "UnsupportedAlgorithm",
	KindDerivationFailed:     "DerivationFailed",
	KindEncryptionFailed:     "EncryptionFailed",
	KindDecryptionFailed:     "DecryptionFailed",
}

// Error is the provider's error type; Kind lets callers branch with
// errors.As without string-matching, and Err (when set) preserves the
// underlying stdlib/x-crypto error for logging.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return kindNames[e.Kind]
	}
	return kindNames[e.Kind] + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets `errors.Is(err, ErrVerificationFailed)`-style sentinels (below)
// match any *Error of the same Kind, regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Sentinels for errors.Is comparisons; e.g. `errors.Is(err, ErrVerificationFailed)`.
var (
	ErrInvalidKey           = &Error{Kind: KindInvalidKey}
	ErrInvalidData          = &Error{Kind: KindInvalidData}
	ErrInvalidSignature     = &Error{Kind: KindInvalidSignature}
	ErrInvalidLength        = &Error{Kind: KindInvalidLength}
	ErrSigningFailed        = &Error{Kind: KindSigningFailed}
	ErrVerificationFailed   = &Error{Kind: KindVerificationFailed}
	ErrOperationFailed      = &Error{Kind: KindOperationFailed}
	ErrUnsupportedAlgorithm = &Error{Kind: KindUnsupportedAlgorithm}
	ErrDerivationFailed     = &Error{Kind: KindDerivationFailed}
	ErrEncryptionFailed     = &Error{Kind: KindEncryptionFailed}
	ErrDecryptionFailed     = &Error{Kind: KindDecryptionFailed}
)
