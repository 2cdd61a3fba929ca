package services

import "sync"

// flowLocks serializes read-modify-write cycles on the same flow within one
// process. Entries are dropped once no caller holds or waits for them.
type flowLocks struct {
	mu    sync.Mutex
	locks map[string]*flowLock
}

type flowLock struct {
	sync.Mutex

	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (l *flowLocks) lock(id string) func() {
	l.mu.Lock()

	if l.locks == nil {
		l.locks = make(map[string]*flowLock)
	}

	entry, ok := l.locks[id]
	if !ok {
		entry = &flowLock{}
		l.locks[id] = entry
	}

	entry.refs++
	l.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
	}
}

func (l *flowLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
