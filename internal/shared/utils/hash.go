package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher produces stable content fingerprints for logs
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hex digest of data
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString computes a hex digest of s
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFields hashes fields joined by a separator that cannot occur in text
func (h *Hasher) HashFields(fields ...string) string {
	return h.HashString(strings.Join(fields, "\x00"))
}

// ShortHash returns the first 12 hex characters of a digest
func ShortHash(full string) string {
	if len(full) <= 12 {
		return full
	}
	return full[:12]
}

// Fingerprint is the short digest of code used to correlate builds in logs
func Fingerprint(code string) string {
	return ShortHash(DefaultHasher().HashString(code))
}
