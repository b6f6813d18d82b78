package service

import "sync"

// UserLocks is the per-user serialization boundary. Every cart,
// checkout, and order-commit operation for a user runs under that
// user's lock, so concurrent requests (a double-clicked add-to-cart,
// say) cannot interleave their read-modify-write sequences and lose
// updates. One instance is shared by the cart, checkout, and order
// services.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// NewUserLocks creates an empty lock set.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[int64]*userLock)}
}

// Lock acquires the lock for userID, blocking until it is free, and
// returns the unlock function. Entries are reference-counted and removed
// once the last holder releases, so the map does not grow with the user
// population.
func (l *UserLocks) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
