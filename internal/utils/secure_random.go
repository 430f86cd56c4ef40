package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MinSecretBytes is the smallest HS256 signing key GenerateSecret will produce.
const MinSecretBytes = 32

// GenerateSecret returns lengthInBytes of crypto/rand output, hex encoded.
// It is used to mint JWT_SECRET values for new deployments.
func GenerateSecret(lengthInBytes int) (string, error) {
	if lengthInBytes < MinSecretBytes {
		return "", fmt.Errorf("secret must be at least %d bytes, got %d", MinSecretBytes, lengthInBytes)
	}
	b := make([]byte, lengthInBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
