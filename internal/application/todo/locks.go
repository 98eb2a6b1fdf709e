package todo

import (
	"context"
	"sync"
)

// taskLocks hands out one mutex per task ID. Entries are reference counted
// and dropped once nobody holds or waits for them, so the map only grows with
// the number of tasks being mutated concurrently.
type taskLocks struct {
	mu    sync.Mutex
	locks map[string]*taskLock
}

type taskLock struct {
	sem  chan struct{}
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[string]*taskLock)}
}

// lock blocks until the task's lock is held or ctx is done.
// On success the returned func must be called exactly once to release it.
func (l *taskLocks) lock(ctx context.Context, taskID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	tl, ok := l.locks[taskID]
	if !ok {
		tl = &taskLock{sem: make(chan struct{}, 1)}
		l.locks[taskID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
		return func() {
			<-tl.sem
			l.release(taskID, tl)
		}, nil
	case <-ctx.Done():
		l.release(taskID, tl)
		return nil, ctx.Err()
	}
}

func (l *taskLocks) release(taskID string, tl *taskLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tl.refs--
	if tl.refs == 0 {
		delete(l.locks, taskID)
	}
}

// size reports the number of live entries.
func (l *taskLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
