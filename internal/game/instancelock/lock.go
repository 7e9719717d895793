package instancelock

import (
	"time"

	"github.com/udisondev/wowgo/internal/data"
)

// InstanceLockData is the completion payload of a lock: the script save
// blob, the completed-encounter bitmask and the chosen entrance location.
type InstanceLockData struct {
	Data                    string
	CompletedEncountersMask uint32
	EntranceWorldSafeLocID  uint32
}

// SharedInstanceLockData is an InstanceLockData shared by every player
// bound to one instance id. Lifetime is reference counted by the manager:
// when the last referencing lock is dropped or reassigned the row is
// deleted from storage synchronously.
type SharedInstanceLockData struct {
	InstanceLockData

	InstanceID uint64
	refCount   int
}

// InstanceLock binds one player (or one shared instance id) to a
// map+difficulty pair until the next scheduled reset.
//
// Private locks own their payload; shared locks point at one refcounted
// SharedInstanceLockData. Only the LockManager mutates locks, under its
// exclusive section.
type InstanceLock struct {
	MapID        int32
	DifficultyID int32
	InstanceID   uint64 // 0 until first assigned
	ExpiryTime   time.Time
	Extended     bool
	InUse        bool // a live instance currently uses this lock

	// Exactly one of the two is set, selected at construction by the
	// map-difficulty binding rule.
	data   *InstanceLockData       // private payload
	shared *SharedInstanceLockData // instance-id-bound payload
}

// NewPrivateLock creates a lock owning its payload (per-encounter maps).
func NewPrivateLock(md *data.MapDifficulty, instanceID uint64, expiry time.Time) *InstanceLock {
	return &InstanceLock{
		MapID:        md.MapID,
		DifficultyID: md.DifficultyID,
		InstanceID:   instanceID,
		ExpiryTime:   expiry,
		data:         &InstanceLockData{},
	}
}

// NewSharedLock creates a lock referencing a shared payload.
// The caller (LockManager) owns the refcount bookkeeping.
func NewSharedLock(md *data.MapDifficulty, shared *SharedInstanceLockData, expiry time.Time) *InstanceLock {
	return &InstanceLock{
		MapID:        md.MapID,
		DifficultyID: md.DifficultyID,
		InstanceID:   shared.InstanceID,
		ExpiryTime:   expiry,
		shared:       shared,
	}
}

// IsShared returns true if the payload is instance-id-bound.
func (l *InstanceLock) IsShared() bool { return l.shared != nil }

// Data returns the effective payload, shared or private.
func (l *InstanceLock) Data() *InstanceLockData {
	if l.shared != nil {
		return &l.shared.InstanceLockData
	}
	return l.data
}

// SharedData returns the shared payload, or nil for private locks.
func (l *InstanceLock) SharedData() *SharedInstanceLockData { return l.shared }

// IsExpired returns true if the raw expiry has passed.
func (l *InstanceLock) IsExpired(now time.Time) bool {
	return !l.ExpiryTime.After(now)
}

// GetEffectiveExpiryTime resolves the expiry the player actually observes:
// the raw expiry, or for extended locks the next scheduled reset after it
// (the lock survives one extra cycle).
func (l *InstanceLock) GetEffectiveExpiryTime(schedule ResetSchedule) time.Time {
	if !l.Extended {
		return l.ExpiryTime
	}
	return schedule.NextResetAfter(l.ExpiryTime)
}
