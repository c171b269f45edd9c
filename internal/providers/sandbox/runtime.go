package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"github.com/dop251/goja"
)

// scriptName is the file name goja reports in stack positions
const scriptName = "pen.js"

var (
	stackLine  = regexp.MustCompile(regexp.QuoteMeta(scriptName) + `:(\d+):\d+`)
	syntaxLine = regexp.MustCompile(`Line (\d+):\d+`)
)

// Runtime runs pen scripts headlessly in a goja VM. Console calls and
// uncaught errors become relay messages, exactly as the injected browser
// instrumentation reports them.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// per-run state, reset by Execute
	messages  []relay.Message
	timers    []*timer
	timerSeq  int
	clock     int64
	cancelled map[int]bool
}

type timer struct {
	id   int
	at   int64
	seq  int
	fn   goja.Callable
	args []goja.Value
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) init() error {
	r.vm = goja.New()
	if r.config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	return r.setupGlobals()
}

// Execute runs script, then any timers it scheduled, until both finish, the
// timeout passes or ctx is cancelled. Uncaught exceptions are reported as
// runtime-error messages and never returned as errors.
func (r *Runtime) Execute(ctx context.Context, script string, dom *DOM) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("sandbox runtime is closed")
	}

	start := time.Now()
	r.messages = nil
	r.timers = nil
	r.clock = 0
	r.cancelled = make(map[int]bool)

	if err := r.injectDOM(dom); err != nil {
		return nil, err
	}

	timeout := r.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	vm := r.vm
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-t.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	result := &Result{}
	_, err := vm.RunScript(scriptName, script)
	if !r.settle(err, result) {
		r.runTimers(result)
	}

	// the watchdog may fire after the last statement; drain it before
	// clearing so the flag cannot leak into the next run
	close(done)
	wg.Wait()
	vm.ClearInterrupt()

	result.Messages = r.messages
	result.Duration = time.Since(start)
	if dom != nil {
		result.Changes = dom.Changes()
	}

	if result.Interrupted && ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// settle records the outcome of one script or callback run.
// It reports whether the run was interrupted.
func (r *Runtime) settle(err error, result *Result) bool {
	if err == nil {
		return false
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		result.Interrupted = true
		r.report(relay.Message{Kind: relay.KindRuntimeError, Message: fmt.Sprintf("Error: %v", interrupted.Value())})
		return true
	}

	r.report(runtimeError(err))
	return false
}

// runTimers fires scheduled callbacks in virtual time order; delays are
// honored relative to each other but never slept.
func (r *Runtime) runTimers(result *Result) {
	for len(r.timers) > 0 {
		sort.SliceStable(r.timers, func(i, j int) bool {
			if r.timers[i].at != r.timers[j].at {
				return r.timers[i].at < r.timers[j].at
			}
			return r.timers[i].seq < r.timers[j].seq
		})
		next := r.timers[0]
		r.timers = r.timers[1:]
		if r.cancelled[next.id] {
			continue
		}

		r.clock = next.at
		_, err := next.fn(goja.Undefined(), next.args...)
		if r.settle(err, result) {
			return
		}
	}
}

func (r *Runtime) report(msg relay.Message) {
	msg.Message = truncate(msg.Message)
	r.messages = append(r.messages, msg)
}

// runtimeError converts a goja error into the message the browser error
// handler would post.
func runtimeError(err error) relay.Message {
	msg := relay.Message{Kind: relay.KindRuntimeError, Message: err.Error()}

	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return msg
	}
	if v := exc.Value(); v != nil {
		msg.Message = collapseErrorName(v.String())
	}

	if m := stackLine.FindStringSubmatch(exc.Error()); m != nil {
		msg.Line, _ = strconv.Atoi(m[1])
	} else if m := syntaxLine.FindStringSubmatch(msg.Message); m != nil {
		msg.Line, _ = strconv.Atoi(m[1])
	}
	return msg
}

// collapseErrorName drops a repeated error name, as in goja's compile
// errors: "SyntaxError: SyntaxError: pen.js: Line 1:13 ..."
func collapseErrorName(s string) string {
	name, rest, ok := strings.Cut(s, ": ")
	if ok && name != "" && strings.HasPrefix(rest, name+": ") {
		return rest
	}
	return s
}

func truncate(s string) string {
	const suffix = "…"
	if len(s) <= utils.MaxMessageSize {
		return s
	}
	cut := utils.MaxMessageSize - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := r.vm

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	console := vm.NewObject()
	for _, level := range []relay.Level{relay.LevelLog, relay.LevelInfo, relay.LevelWarn, relay.LevelError} {
		if err := console.Set(string(level), r.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	global := vm.GlobalObject()
	if err := vm.Set("window", global); err != nil {
		return err
	}
	if err := vm.Set("self", global); err != nil {
		return err
	}

	timers := map[string]func(goja.FunctionCall) goja.Value{
		"setTimeout":            r.setTimeout,
		"clearTimeout":          r.clearTimer,
		"setInterval":           r.inert,
		"clearInterval":         r.clearTimer,
		"requestAnimationFrame": r.inert,
		"cancelAnimationFrame":  r.clearTimer,
		"addEventListener":      r.addEventListener,
		"removeEventListener":   r.inert,
	}
	for name, fn := range timers {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}

	return nil
}

// makeConsoleFunc formats arguments like the browser instrumentation:
// objects through JSON.stringify, everything else through String.
func (r *Runtime) makeConsoleFunc(level relay.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		text := ""
		for i, arg := range call.Arguments {
			if i > 0 {
				text += " "
			}
			text += r.format(arg)
		}

		r.report(relay.Message{Kind: relay.KindConsole, Level: level, Message: text})
		return goja.Undefined()
	}
}

func (r *Runtime) format(arg goja.Value) string {
	if arg == nil || goja.IsUndefined(arg) {
		return "undefined"
	}
	if goja.IsNull(arg) {
		return "null"
	}

	obj, ok := arg.(*goja.Object)
	if !ok {
		return arg.String()
	}
	if _, callable := goja.AssertFunction(obj); callable {
		return obj.String()
	}

	stringify, ok := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("stringify"))
	if !ok {
		return obj.String()
	}
	out, err := stringify(goja.Undefined(), obj)
	if err != nil || out == nil || goja.IsUndefined(out) {
		return obj.String()
	}
	return out.String()
}

func (r *Runtime) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return goja.Undefined()
	}

	r.timerSeq++
	if r.config.MaxTimers > 0 && len(r.timers) >= r.config.MaxTimers {
		return r.vm.ToValue(r.timerSeq)
	}

	delay := call.Argument(1).ToInteger()
	if delay < 0 {
		delay = 0
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = append(args, call.Arguments[2:]...)
	}

	r.timers = append(r.timers, &timer{id: r.timerSeq, at: r.clock + delay, seq: r.timerSeq, fn: fn, args: args})
	return r.vm.ToValue(r.timerSeq)
}

func (r *Runtime) clearTimer(call goja.FunctionCall) goja.Value {
	r.cancelled[int(call.Argument(0).ToInteger())] = true
	return goja.Undefined()
}

// addEventListener queues "load" and "DOMContentLoaded" handlers to run
// after the script; other events never fire headlessly.
func (r *Runtime) addEventListener(call goja.FunctionCall) goja.Value {
	switch call.Argument(0).String() {
	case "load", "DOMContentLoaded":
		return r.setTimeout(goja.FunctionCall{Arguments: []goja.Value{call.Argument(1), r.vm.ToValue(0)}})
	}
	return goja.Undefined()
}

// inert accepts interval and animation-frame registrations without ever
// firing them, since a headless run has no frames to wait for.
func (r *Runtime) inert(goja.FunctionCall) goja.Value {
	r.timerSeq++
	return r.vm.ToValue(r.timerSeq)
}

// injectDOM exposes a document object backed by dom, or removes it
func (r *Runtime) injectDOM(dom *DOM) error {
	if dom == nil || !r.config.EnableDOM {
		return r.vm.Set("document", goja.Undefined())
	}

	vm := r.vm
	document := vm.NewObject()

	one := func(find func(string) *Element) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if el := find(call.Argument(0).String()); el != nil {
				return r.elementProxy(el)
			}
			return goja.Null()
		}
	}

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getElementById": one(dom.ByID),
		"querySelector": one(func(sel string) *Element {
			if els := dom.Query(sel); len(els) > 0 {
				return els[0]
			}
			return nil
		}),
		"querySelectorAll": func(call goja.FunctionCall) goja.Value {
			els := dom.Query(call.Argument(0).String())
			proxies := make([]interface{}, 0, len(els))
			for _, el := range els {
				proxies = append(proxies, r.elementProxy(el))
			}
			return vm.NewArray(proxies...)
		},
		"addEventListener": r.addEventListener,
	}
	for name, fn := range methods {
		if err := document.Set(name, fn); err != nil {
			return err
		}
	}
	if err := document.Set("title", dom.Title()); err != nil {
		return err
	}

	return vm.Set("document", document)
}

// elementProxy exposes an element with live textContent and innerHTML
// accessors so writes land in the parsed tree.
func (r *Runtime) elementProxy(el *Element) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()

	_ = obj.Set("tagName", el.TagName())
	_ = obj.Set("id", el.Attr("id"))
	_ = obj.Set("className", el.Attr("class"))
	_ = obj.Set("getAttribute", func(name string) goja.Value {
		v := el.Attr(name)
		if v == "" {
			return goja.Null()
		}
		return vm.ToValue(v)
	})
	_ = obj.Set("setAttribute", func(name, value string) {
		el.SetAttr(name, value)
	})

	accessor := func(get func() string, set func(string)) (goja.Value, goja.Value) {
		getter := vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(get()) })
		setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0).String())
			return goja.Undefined()
		})
		return getter, setter
	}

	getText, setText := accessor(el.Text, el.SetText)
	_ = obj.DefineAccessorProperty("textContent", getText, setText, goja.FLAG_TRUE, goja.FLAG_TRUE)
	_ = obj.DefineAccessorProperty("innerText", getText, setText, goja.FLAG_TRUE, goja.FLAG_TRUE)

	getHTML, setHTML := accessor(el.HTML, el.SetHTML)
	_ = obj.DefineAccessorProperty("innerHTML", getHTML, setHTML, goja.FLAG_TRUE, goja.FLAG_TRUE)

	return obj
}

// Reset discards the VM so no globals leak into the next run
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
	r.timers = nil
	return r.init()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.messages = nil
	r.timers = nil
	return nil
}
