// Package peerlock serializes operations per peer identity.
package peerlock

import (
	"sync"

	"axolotld/internal/domain"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks hands out one mutex per peer. Entries are dropped once no goroutine
// holds or waits for them, so the map does not grow with every peer ever
// seen.
type Locks struct {
	mu    sync.Mutex
	peers map[domain.X25519Public]*entry
}

// New returns an empty lock table.
func New() *Locks {
	return &Locks{peers: make(map[domain.X25519Public]*entry)}
}

// Lock blocks until the caller owns peer's mutex and returns the release func.
func (l *Locks) Lock(peer domain.X25519Public) (unlock func()) {
	l.mu.Lock()
	e, ok := l.peers[peer]
	if !ok {
		e = new(entry)
		l.peers[peer] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.peers, peer)
		}
		l.mu.Unlock()
	}
}

// Len reports how many peers currently have a live entry.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.peers)
}
