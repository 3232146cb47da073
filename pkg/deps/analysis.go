package deps

import "sync"

// InAnalysis is the set of package names whose dependencies are being or
// have been explored during one transaction. It is safe for concurrent use.
type InAnalysis struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewInAnalysis returns a set seeded with names.
func NewInAnalysis(names ...string) *InAnalysis {
	s := &InAnalysis{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Claim adds name and reports whether it was absent. Exactly one caller
// wins the claim for a given name.
func (s *InAnalysis) Claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// Contains reports whether name has been claimed.
func (s *InAnalysis) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Len returns the number of claimed names.
func (s *InAnalysis) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}
