package services

import (
	"sync"

	"campus-connect/internal/models"
)

// pairLocks hands out one mutex per unordered user pair. Entries are reference
// counted and dropped once no caller holds or waits on them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[models.PairKey]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[models.PairKey]*pairLock)}
}

// lock blocks until the pair (a, b) is exclusively held and returns its unlock.
func (p *pairLocks) lock(a, b string) func() {
	key := models.NewPairKey(a, b)

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
