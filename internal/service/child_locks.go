package service

import "sync"

// ChildLocks hands out one mutex per child so updates for the same child
// are serialized while different children proceed independently.
// Entries are dropped once no goroutine holds or waits on them.
type ChildLocks struct {
	mu    sync.Mutex
	locks map[string]*childLock
}

type childLock struct {
	mu   sync.Mutex
	refs int
}

// NewChildLocks creates an empty lock arena
func NewChildLocks() *ChildLocks {
	return &ChildLocks{locks: make(map[string]*childLock)}
}

// Lock blocks until the caller holds childID's lock and returns the unlock func
func (c *ChildLocks) Lock(childID string) (unlock func()) {
	c.mu.Lock()
	l, exists := c.locks[childID]
	if !exists {
		l = &childLock{}
		c.locks[childID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			c.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(c.locks, childID)
			}
			c.mu.Unlock()
		})
	}
}

// size returns the number of live entries
func (c *ChildLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
