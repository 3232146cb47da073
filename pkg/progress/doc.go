// Package progress reports on long-running package operations.
//
// [Watcher] is the sink that operations write user-facing output to: plain
// lines, a short substatus, confirmations and notifications. [LogWatcher]
// adapts a charmbracelet logger and [NopWatcher] discards everything.
//
// [Reporter] follows a running transaction. Feed it each line the package
// manager prints with [Reporter.Handle]; a consumer goroutine classifies
// lines by their leading verb (downloading, upgrading, installing), counts
// each batch member at most once per phase and publishes a status such as
//
//	(62.50%) [3/4] Upgrading linux
//
// through the watcher. The percentage assumes two steps per package, a
// transfer and an apply.
package progress
