package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, config Config) *Runtime {
	t.Helper()
	rt, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestConsoleOrderAndLevels(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), `console.log("a"); console.error("b")`, nil)
	require.NoError(t, err)

	entries := result.Entries(id.NewMountID())
	require.Len(t, entries, 2)
	assert.Equal(t, relay.LevelLog, entries[0].Level)
	assert.Equal(t, "a", entries[0].Message)
	assert.Equal(t, relay.LevelError, entries[1].Level)
	assert.Equal(t, "b", entries[1].Message)
}

func TestUncaughtExceptionBecomesOneErrorEntry(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), "var x = 1;\nthrow new Error('boom');\nconsole.log('unreachable');", nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Equal(t, relay.KindRuntimeError, msg.Kind)
	assert.Equal(t, "Error: boom", msg.Message)
	assert.Equal(t, 2, msg.Line)

	entries := result.Entries(id.NewMountID())
	require.Len(t, entries, 1)
	assert.Equal(t, relay.LevelError, entries[0].Level)
	assert.Contains(t, entries[0].Message, "boom")
	assert.Equal(t, "Uncaught Error: boom (line 2)", entries[0].Message)
}

func TestConsoleFormatting(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"object", `console.log({a: 1})`, `{"a":1}`},
		{"array", `console.log([1, "two"])`, `[1,"two"]`},
		{"primitives", `console.log("s", 3, true)`, "s 3 true"},
		{"null and undefined", `console.log(null, undefined)`, "null undefined"},
		{"function", `console.log(function f() {})`, "function f() {}"},
		{"no arguments", `console.log()`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), tt.script, nil)
			require.NoError(t, err)
			require.Len(t, result.Messages, 1)
			assert.Equal(t, tt.want, result.Messages[0].Message)
		})
	}
}

func TestConsoleLevels(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), `console.info("i"); console.warn("w"); console.log("l"); console.error("e")`, nil)
	require.NoError(t, err)

	var levels []relay.Level
	for _, msg := range result.Messages {
		levels = append(levels, msg.Level)
	}
	assert.Equal(t, []relay.Level{relay.LevelInfo, relay.LevelWarn, relay.LevelLog, relay.LevelError}, levels)
}

func TestRuntimeSecurity(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	dangerousScripts := []struct {
		name   string
		script string
	}{
		{"require blocked", "require('fs')"},
		{"process blocked", "process.exit(1)"},
		{"module blocked", "module.exports = {}"},
	}

	for _, tt := range dangerousScripts {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), tt.script, nil)
			if err != nil {
				t.Fatalf("Execute() returned error: %v", err)
			}
			if len(result.Messages) != 1 || result.Messages[0].Kind != relay.KindRuntimeError {
				t.Errorf("expected one runtime error, got %+v", result.Messages)
			}
		})
	}
}

func TestSyntaxErrorIsReported(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), "console.log(", nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, relay.KindRuntimeError, result.Messages[0].Kind)
	assert.Contains(t, result.Messages[0].Message, "SyntaxError")
}

func TestSyntaxErrorNameIsNotRepeated(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), "var a = 1;\nvar b = (;", nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	msg := result.Messages[0]
	assert.True(t, strings.HasPrefix(msg.Message, "SyntaxError: "), msg.Message)
	assert.NotContains(t, msg.Message, "SyntaxError: SyntaxError")
	assert.Equal(t, 2, msg.Line)
}

func TestCollapseErrorName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SyntaxError: SyntaxError: pen.js: Line 2:13 Unexpected token", "SyntaxError: pen.js: Line 2:13 Unexpected token"},
		{"TypeError: x is not a function", "TypeError: x is not a function"},
		{"Error: Error", "Error: Error"},
		{"boom", "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, collapseErrorName(tt.in))
	}
}

func TestRuntimeTimeout(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond
	rt := newRuntime(t, config)

	start := time.Now()
	result, err := rt.Execute(context.Background(), `console.log("start"); while (true) {}`, nil)
	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, result.Messages, 2)
	assert.Equal(t, "start", result.Messages[0].Message)
	assert.Contains(t, result.Messages[1].Message, "timeout")

	// the runtime is usable again afterwards
	result, err = rt.Execute(context.Background(), `console.log("again")`, nil)
	require.NoError(t, err)
	assert.False(t, result.Interrupted)
	require.Len(t, result.Messages, 1)
}

func TestRuntimeContextCancel(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result, err := rt.Execute(ctx, `while (true) {}`, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.True(t, result.Interrupted)
}

func TestTimersRunInDelayOrder(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	script := `
		setTimeout(function () { console.log("late") }, 20);
		var cancelled = setTimeout(function () { console.log("never") }, 5);
		setTimeout(function (who) { console.log("early", who) }, 0, "x");
		clearTimeout(cancelled);
		setInterval(function () { console.log("tick") }, 1);
		console.log("sync");
	`
	result, err := rt.Execute(context.Background(), script, nil)
	require.NoError(t, err)

	var got []string
	for _, msg := range result.Messages {
		got = append(got, msg.Message)
	}
	assert.Equal(t, []string{"sync", "early x", "late"}, got)
}

func TestErrorInTimerCallback(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), `setTimeout(function () { null.x }, 0); console.log("ok")`, nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, relay.KindRuntimeError, result.Messages[1].Kind)
	assert.Contains(t, result.Messages[1].Message, "TypeError")
}

func TestDOMProxy(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	dom, err := NewDOM(`<title>Demo</title><div id="out" class="box">old</div><p>one</p><p>two</p>`)
	require.NoError(t, err)

	script := `
		var out = document.getElementById("out");
		console.log(out.tagName, out.className, out.textContent);
		out.textContent = "new";
		console.log(document.querySelector("#out").textContent);
		console.log(document.querySelectorAll("p").length, document.title);
		console.log(document.getElementById("missing"));
	`
	result, err := rt.Execute(context.Background(), script, dom)
	require.NoError(t, err)

	var got []string
	for _, msg := range result.Messages {
		got = append(got, msg.Message)
	}
	assert.Equal(t, []string{"DIV box old", "new", "2 Demo", "null"}, got)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, "set_text", result.Changes[0].Type)
	assert.Equal(t, "new", result.Changes[0].Value)
}

func TestLoadHandlersRunAfterScript(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	dom, err := NewDOM(`<p></p>`)
	require.NoError(t, err)

	result, err := rt.Execute(context.Background(), `
		document.addEventListener("DOMContentLoaded", function () { console.log("ready") });
		window.addEventListener("load", function () { console.log("loaded") });
		console.log("script");
	`, dom)
	require.NoError(t, err)
	require.Len(t, result.Messages, 3)
	assert.Equal(t, "script", result.Messages[0].Message)
	assert.Equal(t, "ready", result.Messages[1].Message)
	assert.Equal(t, "loaded", result.Messages[2].Message)
}

func TestLongMessagesAreTruncated(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	result, err := rt.Execute(context.Background(), `console.log("x".repeat(40000))`, nil)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.NoError(t, result.Messages[0].Validate())
	assert.True(t, strings.HasSuffix(result.Messages[0].Message, "…"))
}

func TestPoolIsolatesRuns(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1, nil)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Run(context.Background(), preview.SourceBundle{Script: `var leaked = 1; console.log = null;`})
	require.NoError(t, err)

	result, err := pool.Run(context.Background(), preview.SourceBundle{Script: `console.log(typeof leaked)`})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "undefined", result.Messages[0].Message)

	stats := pool.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 1, stats.Available)
}

func TestPoolClosed(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2, nil)
	require.NoError(t, err)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = pool.Run(context.Background(), preview.SourceBundle{})
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, pool.Stats().Closed)
}
