package service

import (
	"sync"

	"github.com/google/uuid"
)

// practiceLocks serialises append+reclassify per practice so a
// classification never reads a body that another writer is extending.
//
// Entries are never evicted: the map holds one mutex per practice ID ever
// locked, so it is bounded by the size of the practice catalog.
type practiceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newPracticeLocks() *practiceLocks {
	return &practiceLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *practiceLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
