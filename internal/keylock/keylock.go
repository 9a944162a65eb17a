// Package keylock provides exclusive per-key locks. The train service uses
// one KeyedMutex to serialize the read-modify-write of a single
// (trainPrn, travelDate) seat grid while grids of other keys proceed in
// parallel.
package keylock

import "sync"

type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lock
}

type lock struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*lock)}
}

// Lock acquires the exclusive lock for key and returns the matching unlock.
// Entries are reference-counted and removed once the last holder releases,
// so the map only holds keys with waiters.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &lock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
