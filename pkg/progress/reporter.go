package progress

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultTerminalPrefix is the pacman line that follows the last package
// operation of a transaction.
const DefaultTerminalPrefix = ":: Running post-transaction hooks"

// Phase is a per-package step of a transaction.
type Phase int

const (
	PhaseDownloading Phase = iota
	PhaseUpgrading
	PhaseInstalling
)

var phaseVerbs = [...]string{"downloading", "upgrading", "installing"}

// String returns the lower-case verb pacman prints for the phase.
func (p Phase) String() string { return phaseVerbs[p] }

// Verb returns the capitalized verb used in status lines.
func (p Phase) Verb() string {
	v := p.String()
	return strings.ToUpper(v[:1]) + v[1:]
}

func phaseOf(verb string) (Phase, bool) {
	for i, v := range phaseVerbs {
		if verb == v {
			return Phase(i), true
		}
	}
	return 0, false
}

// Counters holds per-phase progress for one transaction. Every counter is
// bounded by Total.
type Counters struct {
	Downloading int `json:"downloading"`
	Upgrading   int `json:"upgrading"`
	Installing  int `json:"installing"`
	Total       int `json:"total"`
}

// Performed returns the number of phase steps seen so far.
func (c Counters) Performed() int { return c.Downloading + c.Upgrading + c.Installing }

// Percent returns performed steps over two steps per package, capped at 100.
// An empty batch reports 0.
func (c Counters) Percent() float64 {
	if c.Total <= 0 {
		return 0
	}
	return min(float64(c.Performed())/float64(2*c.Total)*100, 100)
}

func (c *Counters) of(p Phase) *int {
	switch p {
	case PhaseUpgrading:
		return &c.Upgrading
	case PhaseInstalling:
		return &c.Installing
	default:
		return &c.Downloading
	}
}

// Options configures a [Reporter].
type Options struct {
	// TerminalPrefix marks the end of the transaction once every package
	// has been seen (default: DefaultTerminalPrefix).
	TerminalPrefix string
	Logger         *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.TerminalPrefix == "" {
		o.TerminalPrefix = DefaultTerminalPrefix
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

var counterPrefix = regexp.MustCompile(`^\(\s*\d+/\d+\)\s*`)

type step struct {
	phase Phase
	name  string
}

// Reporter turns the free-text output of a package transaction into phase
// counters and a percentage.
//
// Lines are queued by [Reporter.Handle] and consumed in arrival order by
// one goroutine started with [Reporter.Start]. The queue is unbounded, so
// Handle never blocks the process reading the transaction output.
type Reporter struct {
	id     uuid.UUID
	names  []string // longest first, for filename prefix matching
	batch  map[string]bool
	w      Watcher
	opts   Options
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	start  sync.Once
	halt   sync.Once
	mu     sync.Mutex
	queue  []string
	exited bool // consumer gone; Handle drops lines
	counts Counters
	seen   map[step]bool
}

// NewReporter creates a reporter for a transaction over names. A nil w
// discards status updates. An empty batch is complete as soon as it starts.
func NewReporter(names []string, w Watcher, opts Options) *Reporter {
	if w == nil {
		w = NopWatcher{}
	}
	batch := make(map[string]bool, len(names))
	var sorted []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" && !batch[n] {
			batch[n] = true
			sorted = append(sorted, n)
		}
	}
	slices.SortStableFunc(sorted, func(a, b string) int { return cmp.Compare(len(b), len(a)) })

	return &Reporter{
		id:     uuid.New(),
		names:  sorted,
		batch:  batch,
		w:      w,
		opts:   opts.WithDefaults(),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		counts: Counters{Total: len(sorted)},
		seen:   make(map[step]bool),
	}
}

// ID identifies the transaction in logs.
func (r *Reporter) ID() string { return r.id.String() }

// Start launches the consumer. Calls after the first are no-ops.
func (r *Reporter) Start(ctx context.Context) {
	r.start.Do(func() {
		r.opts.Logger.Debug("tracking transaction", "id", r.ID(), "packages", r.counts.Total)
		go r.consume(ctx)
	})
}

// Handle queues one line of transaction output. Lines arriving after the
// consumer has exited are dropped.
func (r *Reporter) Handle(line string) {
	r.mu.Lock()
	if r.exited {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, line)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stop asks the consumer to process what is queued and exit.
func (r *Reporter) Stop() {
	r.halt.Do(func() { close(r.stop) })
}

// Done is closed when the consumer has exited.
func (r *Reporter) Done() <-chan struct{} { return r.done }

// Counters returns a snapshot of the phase counters.
func (r *Reporter) Counters() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// Percent returns the current completion percentage.
func (r *Reporter) Percent() float64 { return r.Counters().Percent() }

func (r *Reporter) consume(ctx context.Context) {
	defer close(r.done)
	defer func() {
		r.mu.Lock()
		r.exited = true
		r.queue = nil
		r.mu.Unlock()
	}()
	defer func() {
		c := r.Counters()
		r.opts.Logger.Debug("transaction tracking finished", "id", r.ID(),
			"downloaded", c.Downloading, "upgraded", c.Upgrading, "installed", c.Installing)
	}()

	for {
		if r.drain() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			r.drain()
			return
		case <-r.wake:
		}
	}
}

// drain processes queued lines in order and reports whether the
// transaction is complete.
func (r *Reporter) drain() bool {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			complete := r.complete()
			r.mu.Unlock()
			return complete
		}
		lines := r.queue
		r.queue = nil
		r.mu.Unlock()

		for _, line := range lines {
			if r.process(line) {
				return true
			}
		}
	}
}

// process classifies one line and reports whether it ended the transaction.
func (r *Reporter) process(line string) bool {
	line = counterPrefix.ReplaceAllString(strings.TrimSpace(line), "")
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	phase, ok := phaseOf(fields[0])
	name := ""
	if ok && len(fields) > 1 {
		name = r.match(strings.TrimSuffix(fields[1], "..."))
	}

	r.mu.Lock()
	if name == "" {
		last := r.counts.Total > 0 &&
			r.counts.Performed() >= r.counts.Total &&
			strings.HasPrefix(line, r.opts.TerminalPrefix)
		r.mu.Unlock()
		return last
	}

	s := step{phase, name}
	if r.seen[s] {
		r.mu.Unlock()
		return false
	}
	r.seen[s] = true
	n := r.counts.of(phase)
	if *n < r.counts.Total {
		*n++
	}
	status := fmt.Sprintf("(%.2f%%) [%d/%d] %s %s",
		r.counts.Percent(), *n, r.counts.Total, phase.Verb(), name)
	complete := r.complete()
	r.mu.Unlock()

	r.w.ChangeSubstatus(status)
	return complete
}

// complete must be called with mu held.
func (r *Reporter) complete() bool {
	return r.counts.Upgrading+r.counts.Installing >= r.counts.Total
}

// match maps a package name or artifact filename to a batch member.
func (r *Reporter) match(token string) string {
	if r.batch[token] {
		return token
	}
	for _, n := range r.names {
		if strings.HasPrefix(token, n+"-") {
			return n
		}
	}
	return ""
}
