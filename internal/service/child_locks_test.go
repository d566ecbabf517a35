package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChildLocksSerializeSameChild(t *testing.T) {
	locks := NewChildLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("c1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size(), "entries are released when unused")
}

func TestChildLocksIndependentChildren(t *testing.T) {
	locks := NewChildLocks()

	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another child blocked")
	}
}

func TestChildLocksUnlockIdempotent(t *testing.T) {
	locks := NewChildLocks()

	unlock := locks.Lock("c1")
	unlock()
	unlock()

	assert.Equal(t, 0, locks.size())
	relock := locks.Lock("c1")
	relock()
}
