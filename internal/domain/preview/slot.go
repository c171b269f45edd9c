package preview

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"go.uber.org/zap"
)

// DefaultDebounce is the editor's quiet period
const DefaultDebounce = 300 * time.Millisecond

var ErrSlotClosed = errors.New("preview slot closed")

// State of a preview slot
type State int

const (
	StateIdle State = iota
	StateMounting
	StateMounted
	StateUnmounting
	StateUnmounted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMounting:
		return "mounting"
	case StateMounted:
		return "mounted"
	case StateUnmounting:
		return "unmounting"
	case StateUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Mode selects when a source change is rendered
type Mode int

const (
	// ModeImmediate remounts on every update
	ModeImmediate Mode = iota
	// ModeDebounced remounts once edits pause
	ModeDebounced
)

func (m Mode) String() string {
	if m == ModeDebounced {
		return "debounced"
	}
	return "immediate"
}

// Mounter presents documents to the viewer. Unmount is always called for a
// generation before the next Mount.
type Mounter interface {
	Mount(doc Document) error
	Unmount(gen id.MountID) error
}

// Registrar tracks which generation may post console output for a slot
type Registrar interface {
	Register(src relay.Source)
	Unregister(slot id.SlotID, gen id.MountID)
}

// SlotConfig wires a slot to its collaborators
type SlotConfig struct {
	ID       id.SlotID
	Mode     Mode
	Debounce time.Duration
	Title    string

	Mounter Mounter
	Relay   Registrar
	Log     *relay.Log

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Slot owns one preview: its mounted generation, its console log and the
// debounce timer for pending edits.
type Slot struct {
	id       id.SlotID
	mode     Mode
	title    string
	mounter  Mounter
	relay    Registrar
	log      *relay.Log
	debounce *Debouncer
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu      sync.Mutex
	state   State
	current *Document
	pending *SourceBundle
}

// NewSlot creates an idle slot
func NewSlot(cfg SlotConfig) (*Slot, error) {
	if cfg.Mounter == nil || cfg.Relay == nil || cfg.Log == nil {
		return nil, errors.New("preview slot needs a mounter, a relay and a log")
	}
	if cfg.ID == "" {
		cfg.ID = id.NewSlotID()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Slot{
		id:       cfg.ID,
		mode:     cfg.Mode,
		title:    cfg.Title,
		mounter:  cfg.Mounter,
		relay:    cfg.Relay,
		log:      cfg.Log,
		debounce: NewDebouncer(cfg.Debounce),
		logger:   cfg.Logger.With(zap.String("slot", cfg.ID.String())),
		metrics:  cfg.Metrics,
		state:    StateIdle,
	}
	if s.metrics != nil {
		s.metrics.SlotOpened()
	}
	return s, nil
}

// ID returns the slot ID
func (s *Slot) ID() id.SlotID {
	return s.id
}

// State returns the current state
func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the mounted document, if any
func (s *Slot) Current() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Document{}, false
	}
	return *s.current, true
}

// Log returns the slot's console log
func (s *Slot) Log() *relay.Log {
	return s.log
}

// Update renders a new bundle. In immediate mode the slot remounts before
// returning; in debounced mode the log is cleared now and the remount waits
// for the quiet period, superseding any earlier pending edit.
func (s *Slot) Update(bundle SourceBundle) error {
	s.mu.Lock()

	if s.state == StateUnmounted {
		s.mu.Unlock()
		return ErrSlotClosed
	}

	if s.mode == ModeImmediate {
		defer s.mu.Unlock()
		return s.remount(bundle)
	}

	s.pending = &bundle
	s.clearLog("edit")
	s.mu.Unlock()

	s.debounce.Trigger(s.mountPending)
	return nil
}

// Flush mounts a pending debounced edit immediately
func (s *Slot) Flush() bool {
	return s.debounce.Flush()
}

// ClearLog empties the console log on request of the viewer
func (s *Slot) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLog("user")
}

// Close tears the slot down for good. It is safe to call more than once.
func (s *Slot) Close() {
	s.debounce.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnmounted {
		return
	}
	s.teardown()
	s.pending = nil
	s.state = StateUnmounted

	if s.metrics != nil {
		s.metrics.SlotClosed()
	}
}

func (s *Slot) mountPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnmounted || s.pending == nil {
		return
	}
	bundle := *s.pending
	s.pending = nil

	if err := s.remount(bundle); err != nil {
		s.logger.Warn("debounced remount failed", zap.Error(err))
	}
}

// remount replaces the current generation. Callers hold s.mu.
func (s *Slot) remount(bundle SourceBundle) error {
	s.teardown()
	s.clearLog("remount")

	s.state = StateMounting
	src := relay.Source{Slot: s.id, Generation: id.NewMountID(), Token: id.NewToken()}

	script, err := relay.Instrument(src)
	if err != nil {
		s.state = StateIdle
		return err
	}

	s.relay.Register(src)
	doc := Assemble(src.Generation, bundle, script, WithTitle(s.titleOrDefault()))

	if err := s.mounter.Mount(doc); err != nil {
		s.relay.Unregister(s.id, src.Generation)
		s.state = StateIdle
		return fmt.Errorf("mount %s: %w", src.Generation, err)
	}

	s.current = &doc
	s.state = StateMounted
	if s.metrics != nil {
		s.metrics.RecordMount(s.mode.String())
	}
	s.logger.Debug("preview mounted",
		zap.String("generation", doc.Generation.String()),
		zap.String("fingerprint", doc.Fingerprint),
	)
	return nil
}

// teardown retires the mounted generation. The generation is unregistered
// before anything else so none of its messages can follow.
func (s *Slot) teardown() {
	if s.current == nil {
		return
	}
	gen := s.current.Generation

	s.state = StateUnmounting
	s.relay.Unregister(s.id, gen)
	s.clearLog("remount")

	if err := s.mounter.Unmount(gen); err != nil {
		s.logger.Debug("unmount notification failed", zap.String("generation", gen.String()), zap.Error(err))
	}
	s.current = nil
	s.state = StateIdle

	if s.metrics != nil {
		s.metrics.RecordUnmount()
	}
}

func (s *Slot) clearLog(cause string) {
	if s.log.Clear() && s.metrics != nil {
		s.metrics.RecordLogClear(cause)
	}
}

func (s *Slot) titleOrDefault() string {
	if s.title == "" {
		return "Preview"
	}
	return s.title
}
