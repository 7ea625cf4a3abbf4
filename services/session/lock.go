package session

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 16

type refLock struct {
	mu   sync.Mutex
	refs int
}

type lockStripe struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// keyedMutex hands out one mutex per key and frees it once nobody holds or
// waits for it. Keys are striped so bookkeeping for unrelated keys does not
// share a lock.
type keyedMutex struct {
	stripes [lockStripes]lockStripe
}

func newKeyedMutex() *keyedMutex {
	k := &keyedMutex{}
	for i := range k.stripes {
		k.stripes[i].locks = make(map[string]*refLock)
	}
	return k
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	st := &k.stripes[xxhash.Sum64String(key)%lockStripes]

	st.mu.Lock()
	l, ok := st.locks[key]
	if !ok {
		l = &refLock{}
		st.locks[key] = l
	}
	l.refs++
	st.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		st.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(st.locks, key)
		}
		st.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	n := 0
	for i := range k.stripes {
		k.stripes[i].mu.Lock()
		n += len(k.stripes[i].locks)
		k.stripes[i].mu.Unlock()
	}
	return n
}
