package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentSHA256 computes the SHA-256 hash of a document body
func ContentSHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// CalculateStringSHA256 computes the SHA-256 hash of a string.
func CalculateStringSHA256(content string) string {
	return ContentSHA256([]byte(content))
}
