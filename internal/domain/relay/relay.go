package relay

import (
	"sync"

	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Drop reasons reported to metrics
const (
	DropUntrusted = "untrusted"
	DropMalformed = "malformed"
	DropDetached  = "detached"
	DropFlood     = "flood"
)

// Config tunes the relay
type Config struct {
	// RPS and Burst bound messages per mount generation; RPS <= 0 disables
	// the limit.
	RPS   float64
	Burst int
}

// Relay accepts messages from mounted preview documents and appends them to
// the console log of the slot they belong to.
type Relay struct {
	config   Config
	registry *Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	// mu orders Deliver against Unregister: once Unregister returns, no
	// message from that generation can reach a log.
	mu       sync.Mutex
	logs     map[id.SlotID]*Log
	limiters map[id.MountID]*rate.Limiter
}

// New creates a relay
func New(config Config, logger *zap.Logger, metrics *monitoring.Metrics) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		config:   config,
		registry: NewRegistry(),
		logger:   logger,
		metrics:  metrics,
		logs:     make(map[id.SlotID]*Log),
		limiters: make(map[id.MountID]*rate.Limiter),
	}
}

// Registry exposes the generation registry
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Attach routes messages for slot into log
func (r *Relay) Attach(slot id.SlotID, log *Log) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[slot] = log
}

// Detach stops routing messages for slot and forgets its registration
func (r *Relay) Detach(slot id.SlotID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen, ok := r.registry.Current(slot); ok {
		r.registry.Unregister(slot, gen)
		delete(r.limiters, gen)
	}
	delete(r.logs, slot)
}

// Register makes src the only generation accepted for its slot
func (r *Relay) Register(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Register(src)
	if r.config.RPS > 0 {
		burst := r.config.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiters[src.Generation] = rate.NewLimiter(rate.Limit(r.config.RPS), burst)
	}
}

// Unregister retires a generation. Messages it posts afterwards are dropped.
func (r *Relay) Unregister(slot id.SlotID, gen id.MountID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Unregister(slot, gen)
	delete(r.limiters, gen)
}

// Deliver validates msg against its claimed source and appends the
// resulting entry. Rejected messages are dropped without an error; the
// return value only reports whether an entry was appended.
func (r *Relay) Deliver(src Source, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registry.Trusted(src) {
		r.drop(src, DropUntrusted)
		return false
	}
	if err := msg.Validate(); err != nil {
		r.logger.Debug("relay message rejected", zap.String("generation", src.Generation.String()), zap.Error(err))
		r.drop(src, DropMalformed)
		return false
	}
	log, ok := r.logs[src.Slot]
	if !ok {
		r.drop(src, DropDetached)
		return false
	}
	if limiter, ok := r.limiters[src.Generation]; ok && !limiter.Allow() {
		r.drop(src, DropFlood)
		return false
	}

	level, text := msg.Render()
	log.Append(NewEntry(level, text, src.Generation))

	if r.metrics != nil {
		r.metrics.RecordRelayEntry(string(level))
	}
	return true
}

func (r *Relay) drop(src Source, reason string) {
	r.logger.Debug("relay message dropped",
		zap.String("slot", src.Slot.String()),
		zap.String("generation", src.Generation.String()),
		zap.String("reason", reason),
	)
	if r.metrics != nil {
		r.metrics.RecordRelayDrop(reason)
	}
}
