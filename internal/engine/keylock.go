package engine

import (
	"sync"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// keyLocks serializes invocations per budget. Entries are dropped when
// their last holder releases them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[domain.StateKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// acquire blocks until key is free and returns its release func. The
// release func may be called more than once.
func (k *keyLocks) acquire(key domain.StateKey) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[domain.StateKey]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return sync.OnceFunc(func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	})
}

// held reports how many keys have a holder or waiter.
func (k *keyLocks) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
