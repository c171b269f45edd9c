package relay

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/google/uuid"
)

// Entry is one line of the console log. Entries are never mutated.
type Entry struct {
	ID         string     `json:"id"`
	Level      Level      `json:"level"`
	Message    string     `json:"message"`
	Timestamp  string     `json:"timestamp"`
	Generation id.MountID `json:"generation,omitempty"`
}

// NewEntry stamps a new entry with a fresh ID and the current time
func NewEntry(level Level, message string, generation id.MountID) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Level:      level,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Generation: generation,
	}
}

// Listener observes a log. Callbacks run with the log locked, in append
// order, and must not block or call back into the log.
type Listener interface {
	OnEntry(Entry)
	OnCleared()
}

// Log is the ordered console log of one preview slot.
type Log struct {
	mu        sync.Mutex
	entries   []Entry
	capacity  int
	listeners map[int]Listener
	nextID    int
}

// NewLog creates a log. A positive capacity keeps only the most recent
// entries; zero keeps everything for the life of the log.
func NewLog(capacity int) *Log {
	if capacity < 0 {
		capacity = 0
	}
	return &Log{
		capacity:  capacity,
		listeners: make(map[int]Listener),
	}
}

// Append adds an entry to the end of the log
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity > 0 && len(l.entries) >= l.capacity {
		n := copy(l.entries, l.entries[len(l.entries)-l.capacity+1:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, entry)

	for _, listener := range l.listeners {
		listener.OnEntry(entry)
	}
}

// Entries returns a copy of the log in insertion order
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the log. It reports whether anything was removed; clearing
// an empty log does nothing and notifies no one.
func (l *Log) Clear() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return false
	}
	l.entries = nil

	for _, listener := range l.listeners {
		listener.OnCleared()
	}
	return true
}

// Subscribe registers a listener and returns a function that removes it
func (l *Log) Subscribe(listener Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.nextID
	l.nextID++
	l.listeners[key] = listener

	return func() {
		l.mu.Lock()
		delete(l.listeners, key)
		l.mu.Unlock()
	}
}
