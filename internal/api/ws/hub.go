package ws

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/pen"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed assets/editor.html
var editorPage []byte

//go:embed assets/host.js
var hostScript []byte

// Config tunes editor sessions
type Config struct {
	// Mode is the default render mode; clients may ask for ?mode=immediate
	Mode     preview.Mode
	Debounce time.Duration
	// LogCap bounds each session's console log; 0 keeps every entry
	LogCap int
	// SendBuffer is the per-session outbound queue length
	SendBuffer int
	// MaxFrameSize bounds inbound frames
	MaxFrameSize int64
	// AllowedOrigins restricts the upgrade; empty allows any origin
	AllowedOrigins []string
}

// DefaultConfig returns debounced sessions with an unbounded log
func DefaultConfig() Config {
	return Config{
		Mode:         preview.ModeDebounced,
		Debounce:     preview.DefaultDebounce,
		SendBuffer:   256,
		MaxFrameSize: 3*utils.MaxSourceSize + 64*1024,
	}
}

// Hub accepts editor connections and tracks live sessions
type Hub struct {
	cfg      Config
	relay    *relay.Relay
	store    *pen.Store
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[id.SessionID]*Session
}

// NewHub creates a hub. store may be nil, which disables ?pen= preloading.
func NewHub(cfg Config, rl *relay.Relay, store *pen.Store, logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	defaults := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = defaults.MaxFrameSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		cfg:      cfg,
		relay:    rl,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[id.SessionID]*Session),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeEditor serves the host page
func (h *Hub) ServeEditor(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "text/html; charset=utf-8", editorPage)
}

// ServeHostScript serves the host page script
func (h *Hub) ServeHostScript(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", hostScript)
}

// HandleConnection upgrades the request and runs an editor session until
// the client goes away
func (h *Hub) HandleConnection(c *gin.Context) {
	mode := h.cfg.Mode
	switch c.Query("mode") {
	case "immediate":
		mode = preview.ModeImmediate
	case "debounced":
		mode = preview.ModeDebounced
	}

	var initial *pen.Pen
	if penID := c.Query("pen"); penID != "" && h.store != nil {
		p, err := h.store.Get(c.Request.Context(), id.PenID(penID))
		switch {
		case errors.Is(err, pen.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "pen not found"})
			return
		case err != nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pen store unavailable", "retryable": true})
			return
		}
		initial = p
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(h, conn)
	log := relay.NewLog(h.cfg.LogCap)

	title := "Preview"
	if initial != nil {
		title = initial.Title
	}
	slot, err := preview.NewSlot(preview.SlotConfig{
		Mode:     mode,
		Debounce: h.cfg.Debounce,
		Title:    title,
		Mounter:  s,
		Relay:    h.relay,
		Log:      log,
		Logger:   s.logger,
		Metrics:  h.metrics,
	})
	if err != nil {
		h.logger.Error("create preview slot", zap.Error(err))
		conn.Close()
		return
	}
	s.slot, s.log = slot, log

	h.relay.Attach(slot.ID(), log)
	unsubscribe := log.Subscribe(s)
	h.add(s)

	s.writer.Add(1)
	go s.writePump()

	s.enqueue(Outbound{Type: TypeReady, Slot: slot.ID(), Mode: mode.String()})
	if initial != nil {
		if err := slot.Update(initial.Bundle()); err != nil {
			s.logger.Warn("initial render failed", zap.Error(err))
		}
		slot.Flush()
	}

	s.readPump()

	s.close()
	slot.Close()
	h.relay.Detach(slot.ID())
	unsubscribe()
	h.remove(s)
	s.writer.Wait()
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	s.logger.Info("editor session opened")
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	if ok && h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	s.logger.Info("editor session closed")
}

// Len returns the number of live sessions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session and waits for them to finish or ctx to end
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for _, s := range h.sessions {
		s.close()
	}
	h.mu.Unlock()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for h.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
