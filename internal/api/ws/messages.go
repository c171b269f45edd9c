package ws

import (
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// Client to server message types
const (
	TypeEdit  = "edit"
	TypeRelay = "relay"
	TypeClear = "clear"
	TypeFlush = "flush"
	TypePing  = "ping"
)

// Server to client message types
const (
	TypeReady   = "ready"
	TypeMount   = "mount"
	TypeUnmount = "unmount"
	TypeEntry   = "entry"
	TypeCleared = "cleared"
	TypePong    = "pong"
	TypeError   = "error"
)

// Inbound is a frame sent by the host page
type Inbound struct {
	Type string `json:"type"`

	// edit
	Bundle *preview.SourceBundle `json:"bundle,omitempty"`

	// relay: a message the preview frame posted to the host page
	Generation id.MountID     `json:"generation,omitempty"`
	Token      string         `json:"token,omitempty"`
	Message    *relay.Message `json:"message,omitempty"`
}

// Outbound is a frame sent to the host page
type Outbound struct {
	Type string `json:"type"`

	Slot id.SlotID `json:"slot,omitempty"`
	Mode string    `json:"mode,omitempty"`

	Generation  id.MountID `json:"generation,omitempty"`
	Document    string     `json:"document,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`

	Entry *relay.Entry `json:"entry,omitempty"`
	Error string       `json:"error,omitempty"`
}
