/*
Package sandbox runs pen scripts without a browser.

Each Runtime is a goja VM with require, process, module and exports removed
and a console that reports through the same message contract as the
instrumentation injected into browser previews: console calls become
{kind: "console", level, message} and uncaught exceptions become
{kind: "runtime-error", message, line}. A document object backed by the
pen's parsed markup (goquery) supports getElementById, querySelector and
querySelectorAll, with textContent and innerHTML writes recorded.

setTimeout callbacks and load handlers run after the script in virtual
time; intervals and animation frames are accepted but never fire. A
watchdog interrupts runs that exceed Config.Timeout or whose context is
cancelled.

	pool, _ := sandbox.NewPool(sandbox.DefaultConfig(), 4, metrics)
	result, err := pool.Run(ctx, preview.SourceBundle{Markup: m, Script: s})
	entries := result.Entries(generation)
*/
package sandbox
