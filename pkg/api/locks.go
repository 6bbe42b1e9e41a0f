package api

import "sync"

// sceneLocks serializes mutations per scene name. Entries are removed once
// no request holds or waits for them.
type sceneLocks struct {
	mu    sync.Mutex
	locks map[string]*sceneLock
}

type sceneLock struct {
	mu   sync.Mutex
	refs int
}

func newSceneLocks() *sceneLocks {
	return &sceneLocks{locks: make(map[string]*sceneLock)}
}

// lock blocks until the caller holds name and returns the release func.
func (s *sceneLocks) lock(name string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sceneLock{}
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, name)
		}
		s.mu.Unlock()
	}
}

func (s *sceneLocks) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
