package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256  HashAlgorithm = "sha256"
	BLAKE2B HashAlgorithm = "blake2b"
)

// fieldSeparator cannot appear in any hashed field without changing it,
// since NUL bytes are rejected by ValidateString.
const fieldSeparator = "\x00"

// Hasher provides extensible hashing functionality
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE2B)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	default:
		hash := blake2b.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashOrdered computes a hash over fields in the order given.
// Unlike a sorted join, swapping two fields changes the digest, which matters
// when the fields are markup, styles and script.
func (h *Hasher) HashOrdered(fields ...string) string {
	return h.HashString(strings.Join(fields, fieldSeparator))
}

// ShortHash truncates a digest for display
func ShortHash(fullHash string) string {
	if len(fullHash) < 12 {
		return fullHash
	}
	return fullHash[:12]
}
