package relay

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMountedRelay(t *testing.T, config Config) (*Relay, *Log, Source) {
	t.Helper()
	r := New(config, nil, monitoring.NewMetrics())
	log := NewLog(0)
	src := Source{Slot: id.NewSlotID(), Generation: id.NewMountID(), Token: id.NewToken()}
	r.Attach(src.Slot, log)
	r.Register(src)
	return r, log, src
}

func TestConsoleMessagesKeepOrderAndLevel(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{})

	assert.True(t, r.Deliver(src, Message{Kind: KindConsole, Level: LevelLog, Message: "a"}))
	assert.True(t, r.Deliver(src, Message{Kind: KindConsole, Level: LevelError, Message: "b"}))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, LevelLog, entries[0].Level)
	assert.Equal(t, "a", entries[0].Message)
	assert.Equal(t, LevelError, entries[1].Level)
	assert.Equal(t, "b", entries[1].Message)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.Equal(t, src.Generation, entries[0].Generation)
}

func TestConsoleWithoutLevelIsLog(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{})

	r.Deliver(src, Message{Kind: KindConsole, Message: "plain"})
	require.Equal(t, 1, log.Len())
	assert.Equal(t, LevelLog, log.Entries()[0].Level)
}

func TestRuntimeErrorBecomesErrorEntry(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"with line", Message{Kind: KindRuntimeError, Message: "Error: boom", Line: 3}, "Uncaught Error: boom (line 3)"},
		{"without line", Message{Kind: KindRuntimeError, Message: "Error: boom"}, "Uncaught Error: boom"},
		{"already prefixed", Message{Kind: KindRuntimeError, Message: "Uncaught TypeError: x", Line: 1}, "Uncaught TypeError: x (line 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, log, src := newMountedRelay(t, Config{})
			require.True(t, r.Deliver(src, tt.msg))

			entries := log.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, LevelError, entries[0].Level)
			assert.Equal(t, tt.want, entries[0].Message)
		})
	}
}

func TestStaleGenerationIsDropped(t *testing.T) {
	r, log, old := newMountedRelay(t, Config{})

	r.Unregister(old.Slot, old.Generation)
	current := Source{Slot: old.Slot, Generation: id.NewMountID(), Token: id.NewToken()}
	r.Register(current)

	assert.False(t, r.Deliver(old, Message{Kind: KindConsole, Message: "late"}))
	assert.Equal(t, 0, log.Len())

	assert.True(t, r.Deliver(current, Message{Kind: KindConsole, Message: "fresh"}))
	assert.Equal(t, 1, log.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.RelayDropped.WithLabelValues(DropUntrusted)))
}

func TestUntrustedSourcesAreDropped(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{})
	msg := Message{Kind: KindConsole, Message: "x"}

	tests := []struct {
		name string
		src  Source
	}{
		{"wrong token", Source{Slot: src.Slot, Generation: src.Generation, Token: id.NewToken()}},
		{"empty token", Source{Slot: src.Slot, Generation: src.Generation}},
		{"unknown generation", Source{Slot: src.Slot, Generation: id.NewMountID(), Token: src.Token}},
		{"other slot", Source{Slot: id.NewSlotID(), Generation: src.Generation, Token: src.Token}},
		{"empty source", Source{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, r.Deliver(tt.src, msg))
		})
	}
	assert.Equal(t, 0, log.Len())
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{})

	assert.False(t, r.Deliver(src, Message{Kind: "alert", Message: "x"}))
	assert.False(t, r.Deliver(src, Message{Kind: KindConsole, Level: "debug", Message: "x"}))
	assert.False(t, r.Deliver(src, Message{Kind: KindRuntimeError, Message: "x", Line: -1}))
	assert.False(t, r.Deliver(src, Message{Kind: KindConsole, Message: strings.Repeat("x", 20*1024)}))
	assert.Equal(t, 0, log.Len())
}

func TestDetachedSlotDropsMessages(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{})
	r.Detach(src.Slot)

	assert.False(t, r.Deliver(src, Message{Kind: KindConsole, Message: "x"}))
	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 0, r.Registry().Len())
}

func TestFloodGuard(t *testing.T) {
	r, log, src := newMountedRelay(t, Config{RPS: 1, Burst: 3})

	accepted := 0
	for i := 0; i < 10; i++ {
		if r.Deliver(src, Message{Kind: KindConsole, Message: "spam"}) {
			accepted++
		}
	}
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 3, log.Len())
}

func TestInstrumentEmbedsSource(t *testing.T) {
	src := Source{Slot: id.NewSlotID(), Generation: id.NewMountID(), Token: id.NewToken()}

	script, err := Instrument(src)
	require.NoError(t, err)
	assert.Contains(t, script, `generation: "`+src.Generation.String()+`"`)
	assert.Contains(t, script, `token: "`+src.Token+`"`)
	assert.Contains(t, script, `"runtime-error"`)
	assert.NotContains(t, script, "{{")
}
