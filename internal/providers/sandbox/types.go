package sandbox

import (
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Wall-clock budget for one run, timers included
	MaxCallStackSize int           // Guards runaway recursion
	MaxTimers        int           // setTimeout callbacks accepted per run
	EnableDOM        bool          // Expose a document built from the markup
}

// DefaultConfig returns the configuration used by the server
func DefaultConfig() Config {
	return Config{
		Timeout:          2 * time.Second,
		MaxCallStackSize: 1024,
		MaxTimers:        1000,
		EnableDOM:        true,
	}
}

// Result holds what one run produced
type Result struct {
	Messages    []relay.Message `json:"messages"`
	Changes     []DOMChange     `json:"changes,omitempty"`
	Duration    time.Duration   `json:"duration"`
	Interrupted bool            `json:"interrupted"`
}

// Entries renders the messages the way the console relay logs them
func (r *Result) Entries(gen id.MountID) []relay.Entry {
	log := relay.NewLog(0)
	for _, msg := range r.Messages {
		if msg.Validate() != nil {
			continue
		}
		level, text := msg.Render()
		log.Append(relay.NewEntry(level, text, gen))
	}
	return log.Entries()
}

// DOMChange records a write made by the script through the DOM proxy
type DOMChange struct {
	Type     string `json:"type"` // set_attribute, set_text, set_html
	Selector string `json:"selector"`
	Property string `json:"property,omitempty"`
	Value    string `json:"value"`
}
