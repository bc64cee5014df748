// Package credential generates single-use check-in credentials.
package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size is the number of random bytes behind a credential.
const Size = 32

// Generate returns a fresh, unguessable credential encoded as lowercase hex.
func Generate() (string, error) {
	b := make([]byte, Size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate credential: %w", err)
	}
	return hex.EncodeToString(b), nil
}
