package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
)

// Kind distinguishes console output from uncaught errors
type Kind string

const (
	KindConsole      Kind = "console"
	KindRuntimeError Kind = "runtime-error"
)

// Level is a console channel
type Level string

const (
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// UncaughtPrefix marks entries produced by runtime-error messages
const UncaughtPrefix = "Uncaught "

var ErrMalformed = errors.New("malformed relay message")

// Message is the payload posted by an instrumented preview document.
type Message struct {
	Kind    Kind   `json:"kind"`
	Level   Level  `json:"level,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Valid reports whether l is one of the four console channels
func (l Level) Valid() bool {
	switch l {
	case LevelLog, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// Validate checks the message shape. A console message without a level is
// treated as log.
func (m Message) Validate() error {
	switch m.Kind {
	case KindConsole:
		if m.Level != "" && !m.Level.Valid() {
			return fmt.Errorf("%w: unknown level %q", ErrMalformed, m.Level)
		}
	case KindRuntimeError:
		if m.Line < 0 {
			return fmt.Errorf("%w: negative line %d", ErrMalformed, m.Line)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, m.Kind)
	}

	if err := utils.ValidateMessage(m.Message); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Render returns the level and text of the log entry m produces.
func (m Message) Render() (Level, string) {
	if m.Kind == KindRuntimeError {
		text := UncaughtPrefix + strings.TrimPrefix(m.Message, UncaughtPrefix)
		if m.Line > 0 {
			text = fmt.Sprintf("%s (line %d)", text, m.Line)
		}
		return LevelError, text
	}

	if m.Level == "" {
		return LevelLog, m.Message
	}
	return m.Level, m.Message
}
