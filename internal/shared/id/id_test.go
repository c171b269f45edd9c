package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedIDFormat(t *testing.T) {
	ids := map[string]string{
		"pen":  string(NewPenID()),
		"mnt":  string(NewMountID()),
		"slot": string(NewSlotID()),
		"sess": string(NewSessionID()),
		"req":  string(NewRequestID()),
	}

	for prefix, id := range ids {
		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Errorf("ID should have format 'prefix_ulid', got: %s", id)
			continue
		}

		if parts[0] != prefix {
			t.Errorf("Expected prefix '%s', got '%s' in ID: %s", prefix, parts[0], id)
		}

		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestMountIDsSortInCreationOrder(t *testing.T) {
	// Same millisecond is the common case for back-to-back remounts.
	prev := NewMountID()
	for i := 0; i < 50; i++ {
		next := NewMountID()
		if next <= prev {
			t.Fatalf("mount IDs should increase: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestNewToken(t *testing.T) {
	a := NewToken()
	b := NewToken()

	if len(a) != TokenBytes*2 {
		t.Errorf("token should be %d hex chars, got %d", TokenBytes*2, len(a))
	}
	if a == b {
		t.Error("tokens should be unique")
	}
}

func TestIsValid(t *testing.T) {
	invalidIDs := []string{
		"",
		"invalid",
		"1234567890",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}

	for _, id := range invalidIDs {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()

	before := time.Now()
	id := gen.GenerateString()
	after := time.Now()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp should be between %d and %d ms, got %d ms",
			before.UnixMilli(), after.UnixMilli(), ts.UnixMilli())
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const idsPerGoroutine = 100

	var wg sync.WaitGroup
	idChan := make(chan string, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- gen.GenerateString()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	seen := make(map[string]bool)
	for id := range idChan {
		if seen[id] {
			t.Errorf("Duplicate ID found in concurrent generation: %s", id)
		}
		seen[id] = true
	}

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(MountPrefix)
	}
}
