package usecase

import (
	"context"
	"sync"
)

// keyLock serializes work per product id. Waiting honours ctx so a caller
// stuck behind a slow request gives up with its own deadline.
type keyLock struct {
	mu    sync.Mutex
	slots map[int64]*keySlot
}

type keySlot struct {
	ch   chan struct{}
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{slots: make(map[int64]*keySlot)}
}

func (k *keyLock) Lock(ctx context.Context, key int64) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &keySlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}

	return func() {
		<-s.ch
		k.release(key, s)
	}, nil
}

func (k *keyLock) release(key int64, s *keySlot) {
	k.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
