package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrSessionClosed is returned when output is queued after the session ended
var ErrSessionClosed = errors.New("editor session closed")

// Session is one editor connection. It is the mounter of its preview slot
// and a listener on the slot's console log; everything it produces is
// queued for a single writer goroutine.
type Session struct {
	id     id.SessionID
	conn   *websocket.Conn
	hub    *Hub
	logger *zap.Logger

	slot *preview.Slot
	log  *relay.Log

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	writer    sync.WaitGroup
}

func newSession(hub *Hub, conn *websocket.Conn) *Session {
	sid := id.NewSessionID()
	return &Session{
		id:     sid,
		conn:   conn,
		hub:    hub,
		logger: hub.logger.With(zap.String("session", sid.String())),
		send:   make(chan []byte, hub.cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the session ID
func (s *Session) ID() id.SessionID {
	return s.id
}

// Mount ships a new preview document to the host page
func (s *Session) Mount(doc preview.Document) error {
	return s.enqueue(Outbound{
		Type:        TypeMount,
		Generation:  doc.Generation,
		Document:    doc.HTML,
		Fingerprint: doc.Fingerprint,
	})
}

// Unmount tells the host page to discard a generation's frame
func (s *Session) Unmount(gen id.MountID) error {
	return s.enqueue(Outbound{Type: TypeUnmount, Generation: gen})
}

// OnEntry forwards a console entry
func (s *Session) OnEntry(entry relay.Entry) {
	s.enqueue(Outbound{Type: TypeEntry, Entry: &entry})
}

// OnCleared tells the host page to empty its console view
func (s *Session) OnCleared() {
	s.enqueue(Outbound{Type: TypeCleared})
}

// enqueue never blocks: callers hold slot and log locks. A client that
// cannot keep up is disconnected.
func (s *Session) enqueue(msg Outbound) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- data:
		if s.hub.metrics != nil {
			s.hub.metrics.RecordWSMessage("out", msg.Type)
		}
		return nil
	default:
		s.logger.Warn("editor session too slow, disconnecting")
		s.close()
		return ErrSessionClosed
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// readPump handles frames until the connection fails or the session closes
func (s *Session) readPump() {
	s.conn.SetReadLimit(s.hub.cfg.MaxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("editor connection lost", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			s.sendError("malformed frame")
			continue
		}
		if s.hub.metrics != nil {
			s.hub.metrics.RecordWSMessage("in", msg.Type)
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg Inbound) {
	switch msg.Type {
	case TypeEdit:
		if msg.Bundle == nil {
			s.sendError("edit without bundle")
			return
		}
		if err := msg.Bundle.Validate(); err != nil {
			s.sendError(err.Error())
			return
		}
		if err := s.slot.Update(*msg.Bundle); err != nil {
			s.logger.Warn("preview update failed", zap.Error(err))
			s.sendError("preview update failed")
		}
	case TypeRelay:
		var m relay.Message
		if msg.Message != nil {
			m = *msg.Message
		}
		// untrusted or malformed messages are dropped without a reply
		s.hub.relay.Deliver(relay.Source{Slot: s.slot.ID(), Generation: msg.Generation, Token: msg.Token}, m)
	case TypeClear:
		s.slot.ClearLog()
	case TypeFlush:
		s.slot.Flush()
	case TypePing:
		s.enqueue(Outbound{Type: TypePong})
	default:
		s.sendError("unknown message type")
	}
}

func (s *Session) sendError(text string) {
	s.enqueue(Outbound{Type: TypeError, Error: text})
}

// writePump is the only goroutine writing to the connection
func (s *Session) writePump() {
	defer s.writer.Done()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.drain()
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// drain writes what was queued before the session closed
func (s *Session) drain() {
	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
