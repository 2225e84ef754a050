package reservation

import (
	"context"
	"sync"
)

// roomLocks hands out one exclusive lock per room. Waiters block on a
// buffered channel, which the runtime services in arrival order, and give up
// when their context ends. Entries are dropped once no goroutine holds or
// waits for them.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[int64]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[int64]*roomLock)}
}

// Lock blocks until the caller owns roomID or ctx is done. The returned
// function releases the lock and must be called exactly once.
func (l *roomLocks) Lock(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	rl, ok := l.rooms[roomID]
	if !ok {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, rl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-rl.sem
			l.release(roomID, rl)
		})
	}, nil
}

func (l *roomLocks) release(roomID int64, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, roomID)
	}
}
