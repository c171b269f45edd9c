// Package id provides centralized ID generation for the backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: newer pens and mounts sort after older ones
//   - Prefixed types: pen_*, mnt_*, slot_*, sess_*, req_* for readable logs
//   - Type safety: separate types prevent passing a pen ID where a mount
//     generation is expected
//
// Mount generations are ULIDs too, so comparing two generations of the same
// slot also tells which one is newer.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// PenID identifies a saved pen
type PenID string

// MountID identifies one mount generation of a preview slot
type MountID string

// SlotID identifies a preview slot (one iframe on one host page)
type SlotID string

// SessionID identifies an editor websocket session
type SessionID string

// RequestID identifies an API request
type RequestID string

// ============================================================================
// ID Prefixes
// ============================================================================

const (
	PenPrefix     = "pen"
	MountPrefix   = "mnt"
	SlotPrefix    = "slot"
	SessionPrefix = "sess"
	RequestPrefix = "req"
)

// TokenBytes is the size of a mount source token before hex encoding.
const TokenBytes = 16

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by a monotonic reader,
// so IDs generated within the same millisecond still sort in creation order.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewPenID generates a new pen ID
func NewPenID() PenID {
	return PenID(Default().GenerateWithPrefix(PenPrefix))
}

// NewMountID generates a new mount generation
func NewMountID() MountID {
	return MountID(Default().GenerateWithPrefix(MountPrefix))
}

// NewSlotID generates a new preview slot ID
func NewSlotID() SlotID {
	return SlotID(Default().GenerateWithPrefix(SlotPrefix))
}

// NewSessionID generates a new editor session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewToken returns an unguessable hex token that a mounted preview document
// presents with every relayed message.
func NewToken() string {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("id: read random token: %v", err))
	}
	return hex.EncodeToString(buf)
}

// String methods for ID types
func (id PenID) String() string     { return string(id) }
func (id MountID) String() string   { return string(id) }
func (id SlotID) String() string    { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
