package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPracticeLocks_OneMutexPerPractice(t *testing.T) {
	l := newPracticeLocks()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := l.lock(id)
				unlock()
			}()
		}
	}
	wg.Wait()

	assert.Len(t, l.locks, len(ids))
}

func TestPracticeLocks_IndependentPractices(t *testing.T) {
	l := newPracticeLocks()
	a, b := uuid.New(), uuid.New()

	unlockA := l.lock(a)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.lock(b)
		unlock()
		close(done)
	}()
	<-done

	m := l.locks[a]
	assert.False(t, m.TryLock(), "practice lock should still be held")
}
