package pipeline

import "sync"

// seenSet remembers up to maxSize ids, evicting the oldest first.
type seenSet struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	next    int
	maxSize int
}

func newSeenSet(maxSize int) *seenSet {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &seenSet{
		seen:    make(map[string]struct{}, maxSize),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// SeenAndRecord reports whether id was already recorded and records it if not.
func (s *seenSet) SeenAndRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return true
	}

	if len(s.order) < s.maxSize {
		s.order = append(s.order, id)
	} else {
		delete(s.seen, s.order[s.next])
		s.order[s.next] = id
		s.next = (s.next + 1) % s.maxSize
	}
	s.seen[id] = struct{}{}
	return false
}

// Forget removes id so it can be recorded again.
func (s *seenSet) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}

func (s *seenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
