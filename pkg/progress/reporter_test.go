package progress

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recordWatcher struct {
	NopWatcher
	mu       sync.Mutex
	statuses []string
}

func (w *recordWatcher) ChangeSubstatus(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statuses = append(w.statuses, text)
}

func (w *recordWatcher) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.statuses...)
}

func waitDone(t *testing.T, r *Reporter) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reporter did not finish")
	}
}

func TestReporterCountsInOrder(t *testing.T) {
	w := &recordWatcher{}
	r := NewReporter([]string{"linux", "linux-headers"}, w, Options{})

	lines := []string{
		":: Retrieving packages...",
		"downloading linux-headers-6.9.1-1-x86_64.pkg.tar.zst...",
		"downloading linux-6.9.1-1-x86_64.pkg.tar.zst...",
		"(1/2) upgrading linux",
		"(2/2) upgrading linux-headers",
	}
	for _, l := range lines {
		r.Handle(l)
	}
	r.Start(context.Background())
	waitDone(t, r)

	want := Counters{Downloading: 2, Upgrading: 2, Total: 2}
	if got := r.Counters(); got != want {
		t.Errorf("Counters() = %+v, want %+v", got, want)
	}
	if got := r.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100", got)
	}

	wantStatus := []string{
		"(25.00%) [1/2] Downloading linux-headers",
		"(50.00%) [2/2] Downloading linux",
		"(75.00%) [1/2] Upgrading linux",
		"(100.00%) [2/2] Upgrading linux-headers",
	}
	if got := w.all(); !reflect.DeepEqual(got, wantStatus) {
		t.Errorf("statuses = %q, want %q", got, wantStatus)
	}
}

func TestReporterIgnoresDuplicatesAndStrangers(t *testing.T) {
	r := NewReporter([]string{"a", "b", "c"}, nil, Options{})
	r.Start(context.Background())

	for _, l := range []string{
		"downloading a-1.0-1-any.pkg.tar.zst...",
		"downloading a-1.0-1-any.pkg.tar.zst...",
		"upgrading zzz",
		"installing",
		"removing b",
		"warning: upgrading a",
		"   ",
		"installing b...",
	} {
		r.Handle(l)
	}
	r.Stop()
	waitDone(t, r)

	want := Counters{Downloading: 1, Installing: 1, Total: 3}
	if got := r.Counters(); got != want {
		t.Errorf("Counters() = %+v, want %+v", got, want)
	}
}

func TestReporterPercentMonotonic(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	w := &recordWatcher{}
	r := NewReporter(names, w, Options{})
	r.Start(context.Background())

	for _, verb := range []string{"downloading", "upgrading"} {
		for _, n := range names {
			r.Handle(fmt.Sprintf("%s %s", verb, n))
			r.Handle(fmt.Sprintf("%s %s", verb, n))
		}
	}
	waitDone(t, r)

	last := -1.0
	for _, s := range w.all() {
		var pct float64
		if _, err := fmt.Sscanf(s, "(%f%%)", &pct); err != nil {
			t.Fatalf("unparsable status %q: %v", s, err)
		}
		if pct < last || pct > 100 {
			t.Errorf("percent went from %v to %v", last, pct)
		}
		last = pct
	}
	if last != 100 {
		t.Errorf("final percent = %v, want 100", last)
	}
}

func TestReporterTerminalLine(t *testing.T) {
	r := NewReporter([]string{"a", "b"}, nil, Options{})
	r.Start(context.Background())

	r.Handle(":: Running post-transaction hooks...")
	r.Handle("downloading a")
	select {
	case <-r.Done():
		t.Fatal("finished before the batch was seen")
	case <-time.After(50 * time.Millisecond):
	}

	r.Handle("downloading b")
	r.Handle(":: Running post-transaction hooks...")
	waitDone(t, r)

	if got := r.Counters().Downloading; got != 2 {
		t.Errorf("Downloading = %d, want 2", got)
	}
}

func TestReporterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReporter([]string{"a"}, nil, Options{})
	r.Start(ctx)
	cancel()
	waitDone(t, r)

	r.Stop()
	r.Stop()
}

func TestReporterDropsLinesAfterExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReporter([]string{"a"}, nil, Options{})
	r.Start(ctx)
	cancel()
	waitDone(t, r)

	for i := 0; i < 1000; i++ {
		r.Handle(fmt.Sprintf("(%d/1000) installing a", i))
	}
	r.mu.Lock()
	queued := len(r.queue)
	r.mu.Unlock()
	if queued != 0 {
		t.Errorf("%d lines queued after the consumer exited, want 0", queued)
	}
	if got := r.Counters().Installing; got != 0 {
		t.Errorf("Installing = %d, want 0", got)
	}
}

func TestReporterEmptyBatch(t *testing.T) {
	r := NewReporter(nil, nil, Options{})
	r.Start(context.Background())
	waitDone(t, r)

	if got := r.Percent(); got != 0 {
		t.Errorf("Percent() = %v, want 0", got)
	}
	if r.ID() == "" {
		t.Error("ID() is empty")
	}
}

func TestCountersPercent(t *testing.T) {
	tests := []struct {
		c    Counters
		want float64
	}{
		{Counters{}, 0},
		{Counters{Downloading: 1, Total: 4}, 12.5},
		{Counters{Downloading: 4, Installing: 4, Total: 4}, 100},
		{Counters{Downloading: 4, Upgrading: 4, Installing: 4, Total: 4}, 100},
	}
	for _, tt := range tests {
		if got := tt.c.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestPhaseVerb(t *testing.T) {
	if got := PhaseInstalling.Verb(); got != "Installing" {
		t.Errorf("Verb() = %q", got)
	}
	if p, ok := phaseOf("upgrading"); !ok || p != PhaseUpgrading {
		t.Errorf("phaseOf(upgrading) = %v, %v", p, ok)
	}
}
