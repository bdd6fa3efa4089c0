package webcrypto

import "github.com/google/uuid"

// RandomUUID generates a version-4 UUID string, the Go-side counterpart to
// JS's crypto.randomUUID(). It isn't part of the Provider interface since
// no backend choice applies to it; it's exposed directly off the package.
func RandomUUID() string {
	return uuid.NewString()
}
