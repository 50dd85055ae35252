package sync

import "sync"

// channelLocks serializes reconciliation passes per channel. Two concurrent
// passes over the same channel would both read a stale snapshot and issue
// duplicate mutations; the lock closes that race. Entries are never freed:
// the set of channels is bounded by the number of bindings.
type channelLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newChannelLocks() *channelLocks {
	return &channelLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *channelLocks) lock(channelID string) *sync.Mutex {
	c.mu.Lock()
	lock, ok := c.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[channelID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock
}
