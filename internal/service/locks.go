package service

import "sync"

// RoomLocks serializes availability decisions per room. Checking a calendar
// and claiming part of it must happen under the same room's lock; operations
// on different rooms never contend.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[int64]*sync.Mutex)}
}

// ForRoom returns the mutex for a room, creating it on first use. Room locks
// are never removed; the map stays small because rooms are a bounded set.
func (l *RoomLocks) ForRoom(roomID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[roomID] = lock
	}
	return lock
}
