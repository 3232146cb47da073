package progress

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Severity classifies a message shown through [Watcher.ShowMessage].
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Watcher is the user-facing sink of a long-running operation.
//
// Implementations must be safe for use from the goroutine that drives the
// operation; a [Reporter] calls ChangeSubstatus from its consumer goroutine.
type Watcher interface {
	// Print appends a line to the operation's output.
	Print(line string)
	// ChangeSubstatus replaces the short status text under the main status.
	ChangeSubstatus(text string)
	// RequestConfirmation blocks until the user accepts or declines.
	RequestConfirmation(title, body string) bool
	// ShowMessage shows a notification that needs no answer.
	ShowMessage(title, body string, severity Severity)
}

// Chooser is implemented by watchers that can ask the user to pick one of
// several options.
type Chooser interface {
	// RequestChoice blocks until the user picks an option and returns its
	// index, or -1 if the user declines.
	RequestChoice(title, body string, options []string) int
}

// NopWatcher discards all output and approves every confirmation.
type NopWatcher struct{}

func (NopWatcher) Print(string)                            {}
func (NopWatcher) ChangeSubstatus(string)                  {}
func (NopWatcher) RequestConfirmation(string, string) bool { return true }
func (NopWatcher) ShowMessage(string, string, Severity)    {}

// LogWatcher writes operation output to a logger. Confirmations are
// answered with Approve without prompting, which suits servers and
// non-interactive runs.
type LogWatcher struct {
	Logger  *log.Logger
	Approve bool
}

// NewLogWatcher returns a LogWatcher for l. A nil l discards everything.
func NewLogWatcher(l *log.Logger, approve bool) *LogWatcher {
	if l == nil {
		l = log.New(io.Discard)
	}
	return &LogWatcher{Logger: l, Approve: approve}
}

func (w *LogWatcher) Print(line string) {
	w.Logger.Info(strings.TrimRight(line, "\n"))
}

func (w *LogWatcher) ChangeSubstatus(text string) {
	w.Logger.Debug(text)
}

func (w *LogWatcher) RequestConfirmation(title, body string) bool {
	w.Logger.Warn(title, "body", strings.TrimSpace(body), "approved", w.Approve)
	return w.Approve
}

func (w *LogWatcher) ShowMessage(title, body string, severity Severity) {
	switch severity {
	case SeverityError:
		w.Logger.Error(title, "message", body)
	case SeverityWarning:
		w.Logger.Warn(title, "message", body)
	default:
		w.Logger.Info(title, "message", body)
	}
}
