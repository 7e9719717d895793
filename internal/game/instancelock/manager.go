package instancelock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/wowgo/internal/data"
)

// LockStore provides DB persistence for instance locks.
// Every Save is a delete+insert in a single transaction so a crash
// mid-update cannot leave a half-written row.
type LockStore interface {
	LoadAllSharedData(ctx context.Context) ([]SharedDataRow, error)
	LoadAllLocks(ctx context.Context) ([]LockRow, error)
	SaveInstanceLock(ctx context.Context, row LockRow) error
	DeleteInstanceLock(ctx context.Context, playerGUID uint64, mapID, lockID int32) error
	SaveSharedData(ctx context.Context, row SharedDataRow) error
	DeleteSharedData(ctx context.Context, instanceID uint64) error
}

// LockRow mirrors db.InstanceLockRow for decoupling.
type LockRow struct {
	PlayerGUID              uint64
	MapID                   int32
	LockID                  int32
	InstanceID              uint64
	DifficultyID            int32
	Data                    string
	CompletedEncountersMask uint32
	EntranceWorldSafeLocID  uint32
	ExpiryTime              int64 // Unix seconds
	Extended                bool
}

// SharedDataRow mirrors db.SharedInstanceRow for decoupling.
type SharedDataRow struct {
	InstanceID              uint64
	Data                    string
	CompletedEncountersMask uint32
	EntranceWorldSafeLocID  uint32
}

// UpdateEvent carries one instance-progress write: the new save blob plus
// optional completion/entrance changes.
type UpdateEvent struct {
	InstanceID  uint64
	UpdatedData string

	// CompletedEncounter is set when one encounter was just completed
	// (per-encounter persistence).
	CompletedEncounter *data.DungeonEncounter

	// EntranceWorldSafeLocID is set when the entrance location changed.
	EntranceWorldSafeLocID *uint32

	// InstanceCompletedEncountersMask is the instance's aggregate mask,
	// applied for maps without per-encounter locking.
	InstanceCompletedEncountersMask *uint32
}

// lockKey identifies a lock slot: locks with the same (map, lockID)
// are interchangeable across difficulties sharing that lock id.
type lockKey struct {
	mapID  int32
	lockID int32
}

// LockManager owns every instance lock, keyed by player and by shared
// instance id.
//
// Concurrency: one exclusive section guards both maps — inserts must be
// atomic with the "does an entry already exist" check. No I/O is
// performed while the mutex is held; store calls happen after release.
type LockManager struct {
	store LockStore

	dailySchedule  ResetSchedule
	weeklySchedule ResetSchedule

	mu                sync.Mutex
	locksByPlayer     map[uint64]map[lockKey]*InstanceLock // permanent registry
	tempLocksByPlayer map[uint64]map[lockKey]*InstanceLock // not-yet-persisted
	sharedByInstance  map[uint64]*SharedInstanceLockData

	// now is the clock source; replaced in tests.
	now func() time.Time
}

// NewLockManager creates a lock manager with the given reset settings.
func NewLockManager(store LockStore, dailyHour int, weeklyDay time.Weekday, weeklyHour int) *LockManager {
	return &LockManager{
		store:             store,
		dailySchedule:     ResetSchedule{Cadence: data.ResetDaily, Hour: dailyHour},
		weeklySchedule:    ResetSchedule{Cadence: data.ResetWeekly, Hour: weeklyHour, Weekday: weeklyDay},
		locksByPlayer:     make(map[uint64]map[lockKey]*InstanceLock, 256),
		tempLocksByPlayer: make(map[uint64]map[lockKey]*InstanceLock, 64),
		sharedByInstance:  make(map[uint64]*SharedInstanceLockData, 64),
		now:               time.Now,
	}
}

// ScheduleFor returns the reset schedule for a map difficulty.
func (m *LockManager) ScheduleFor(md *data.MapDifficulty) ResetSchedule {
	if md.Cadence == data.ResetWeekly {
		return m.weeklySchedule
	}
	return m.dailySchedule
}

// NextResetTime returns the next scheduled reset for a map difficulty.
func (m *LockManager) NextResetTime(md *data.MapDifficulty) time.Time {
	return m.ScheduleFor(md).NextResetTime(m.now())
}

// LoadInstanceLocks loads shared payloads and player locks from storage.
// Rows that can no longer be honored (expired and not extended, or
// instance-bound rows whose shared data row is gone) are purged.
func (m *LockManager) LoadInstanceLocks(ctx context.Context) error {
	sharedRows, err := m.store.LoadAllSharedData(ctx)
	if err != nil {
		return fmt.Errorf("load shared instance data: %w", err)
	}

	m.mu.Lock()
	for _, row := range sharedRows {
		m.sharedByInstance[row.InstanceID] = &SharedInstanceLockData{
			InstanceLockData: InstanceLockData{
				Data:                    row.Data,
				CompletedEncountersMask: row.CompletedEncountersMask,
				EntranceWorldSafeLocID:  row.EntranceWorldSafeLocID,
			},
			InstanceID: row.InstanceID,
		}
	}
	m.mu.Unlock()

	lockRows, err := m.store.LoadAllLocks(ctx)
	if err != nil {
		return fmt.Errorf("load instance locks: %w", err)
	}

	now := m.now()
	var purge []LockRow
	loaded := 0

	m.mu.Lock()
	for _, row := range lockRows {
		md := data.GetMapDifficulty(row.MapID, row.DifficultyID)
		if md == nil || !md.UsesLocks() {
			slog.Warn("instance lock for unknown map difficulty",
				"player", row.PlayerGUID, "mapID", row.MapID, "difficulty", row.DifficultyID)
			purge = append(purge, row)
			continue
		}

		expiry := time.Unix(row.ExpiryTime, 0)
		if !expiry.After(now) && !row.Extended {
			purge = append(purge, row)
			continue
		}

		var lock *InstanceLock
		if md.IsInstanceIDBound() {
			shared, ok := m.sharedByInstance[row.InstanceID]
			if !ok {
				// Row references an instance id with no shared data.
				slog.Error("instance lock references missing shared data",
					"player", row.PlayerGUID, "mapID", row.MapID, "instanceID", row.InstanceID)
				purge = append(purge, row)
				continue
			}
			shared.refCount++
			lock = NewSharedLock(md, shared, expiry)
		} else {
			lock = NewPrivateLock(md, row.InstanceID, expiry)
			lock.data.Data = row.Data
			lock.data.CompletedEncountersMask = row.CompletedEncountersMask
			lock.data.EntranceWorldSafeLocID = row.EntranceWorldSafeLocID
		}
		lock.Extended = row.Extended

		key := lockKey{mapID: row.MapID, lockID: row.LockID}
		playerLocks := m.locksByPlayer[row.PlayerGUID]
		if playerLocks == nil {
			playerLocks = make(map[lockKey]*InstanceLock, 4)
			m.locksByPlayer[row.PlayerGUID] = playerLocks
		}
		playerLocks[key] = lock
		loaded++
	}

	// Shared rows nothing references anymore are dropped as well.
	var orphanShared []uint64
	for id, shared := range m.sharedByInstance {
		if shared.refCount == 0 {
			orphanShared = append(orphanShared, id)
			delete(m.sharedByInstance, id)
		}
	}
	m.mu.Unlock()

	for _, row := range purge {
		if err := m.store.DeleteInstanceLock(ctx, row.PlayerGUID, row.MapID, row.LockID); err != nil {
			return fmt.Errorf("purge instance lock player %d map %d: %w", row.PlayerGUID, row.MapID, err)
		}
	}
	for _, id := range orphanShared {
		if err := m.store.DeleteSharedData(ctx, id); err != nil {
			return fmt.Errorf("purge orphan shared data instance %d: %w", id, err)
		}
	}

	slog.Info("instance lock manager initialized",
		"locks", loaded,
		"shared", len(sharedRows)-len(orphanShared),
		"purged", len(purge))

	return nil
}

// FindActiveInstanceLock returns the player's matching lock, or nil.
// A permanent lock is preferred over a temporary one. An expired and
// not-extended lock counts as absent unless ignoreExpired is set.
func (m *LockManager) FindActiveInstanceLock(playerGUID uint64, md *data.MapDifficulty, ignoreTemporary, ignoreExpired bool) *InstanceLock {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findActiveLocked(playerGUID, md, ignoreTemporary, ignoreExpired, now)
}

// findActiveLocked is FindActiveInstanceLock with m.mu already held.
func (m *LockManager) findActiveLocked(playerGUID uint64, md *data.MapDifficulty, ignoreTemporary, ignoreExpired bool, now time.Time) *InstanceLock {
	key := lockKey{mapID: md.MapID, lockID: md.LockID}

	lock := m.locksByPlayer[playerGUID][key]
	if lock == nil && !ignoreTemporary {
		lock = m.tempLocksByPlayer[playerGUID][key]
	}
	if lock == nil {
		return nil
	}
	if !ignoreExpired && lock.IsExpired(now) && !lock.Extended {
		return nil
	}
	return lock
}

// CreateInstanceLockForNewInstance allocates a temporary lock for a
// freshly created instance. Not persisted: the player can still change
// their mind and keep an older lock. A temporary lock that never receives
// a boss-state-affecting update is discarded without a durable record.
func (m *LockManager) CreateInstanceLockForNewInstance(playerGUID uint64, md *data.MapDifficulty, instanceID uint64) *InstanceLock {
	expiry := m.ScheduleFor(md).NextResetTime(m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	var lock *InstanceLock
	if md.IsInstanceIDBound() {
		shared := m.sharedByInstance[instanceID]
		if shared == nil {
			shared = &SharedInstanceLockData{InstanceID: instanceID}
			m.sharedByInstance[instanceID] = shared
		}
		shared.refCount++
		lock = NewSharedLock(md, shared, expiry)
	} else {
		lock = NewPrivateLock(md, instanceID, expiry)
	}

	key := lockKey{mapID: md.MapID, lockID: md.LockID}
	playerLocks := m.tempLocksByPlayer[playerGUID]
	if playerLocks == nil {
		playerLocks = make(map[lockKey]*InstanceLock, 2)
		m.tempLocksByPlayer[playerGUID] = playerLocks
	}
	if old := playerLocks[key]; old != nil {
		// Replaced temporary lock never hit storage; just drop it.
		m.unrefSharedLocked(old)
		slog.Debug("temporary instance lock discarded",
			"player", playerGUID, "mapID", md.MapID, "instanceID", old.InstanceID)
	}
	playerLocks[key] = lock

	slog.Debug("temporary instance lock created",
		"player", playerGUID, "mapID", md.MapID, "difficulty", md.DifficultyID,
		"instanceID", instanceID, "expiry", expiry.Format(time.RFC3339))

	return lock
}

// UpdateInstanceLockForPlayer is the single mutation path for instance
// progress: resolves or creates the permanent lock (promoting a matching
// temporary one), applies the update event, refreshes expiry if the lock
// had lapsed, and persists the row(s).
func (m *LockManager) UpdateInstanceLockForPlayer(ctx context.Context, playerGUID uint64, md *data.MapDifficulty, ev UpdateEvent) (*InstanceLock, error) {
	if !md.UsesLocks() {
		return nil, fmt.Errorf("%w: map %d difficulty %d", ErrMapNotBound, md.MapID, md.DifficultyID)
	}

	now := m.now()
	schedule := m.ScheduleFor(md)
	key := lockKey{mapID: md.MapID, lockID: md.LockID}

	m.mu.Lock()

	lock := m.locksByPlayer[playerGUID][key]
	if lock == nil {
		// Promote a matching temporary lock, or start a new permanent one.
		if temp := m.tempLocksByPlayer[playerGUID][key]; temp != nil {
			delete(m.tempLocksByPlayer[playerGUID], key)
			lock = temp
		} else if md.IsInstanceIDBound() {
			shared := m.sharedByInstance[ev.InstanceID]
			if shared == nil {
				shared = &SharedInstanceLockData{InstanceID: ev.InstanceID}
				m.sharedByInstance[ev.InstanceID] = shared
			}
			shared.refCount++
			lock = NewSharedLock(md, shared, schedule.NextResetTime(now))
		} else {
			lock = NewPrivateLock(md, ev.InstanceID, schedule.NextResetTime(now))
		}
		playerLocks := m.locksByPlayer[playerGUID]
		if playerLocks == nil {
			playerLocks = make(map[lockKey]*InstanceLock, 4)
			m.locksByPlayer[playerGUID] = playerLocks
		}
		playerLocks[key] = lock
	}

	var staleShared uint64
	hadStaleShared := false
	if lock.IsShared() && lock.InstanceID != ev.InstanceID {
		// Rebinding to another instance id: repoint the shared payload.
		if old := lock.shared; old != nil {
			old.refCount--
			if old.refCount <= 0 {
				delete(m.sharedByInstance, old.InstanceID)
				staleShared = old.InstanceID
				hadStaleShared = true
			}
		}
		shared := m.sharedByInstance[ev.InstanceID]
		if shared == nil {
			shared = &SharedInstanceLockData{InstanceID: ev.InstanceID}
			m.sharedByInstance[ev.InstanceID] = shared
		}
		shared.refCount++
		lock.shared = shared
	}
	lock.InstanceID = ev.InstanceID

	if lock.IsExpired(now) {
		lock.ExpiryTime = schedule.NextResetTime(now)
		lock.Extended = false
	}

	d := lock.Data()
	d.Data = ev.UpdatedData
	if ev.CompletedEncounter != nil {
		d.CompletedEncountersMask |= ev.CompletedEncounter.CompletedMask()
	}
	if ev.InstanceCompletedEncountersMask != nil && !md.UsesEncounterLocks() {
		d.CompletedEncountersMask |= *ev.InstanceCompletedEncountersMask
	}
	if ev.EntranceWorldSafeLocID != nil {
		d.EntranceWorldSafeLocID = *ev.EntranceWorldSafeLocID
	}

	lockRow := m.lockRowLocked(playerGUID, md, lock)
	var sharedRow *SharedDataRow
	if lock.IsShared() {
		row := m.sharedRowLocked(lock.shared)
		sharedRow = &row
	}
	m.mu.Unlock()

	// Persistence happens outside the exclusive section.
	if hadStaleShared {
		if err := m.store.DeleteSharedData(ctx, staleShared); err != nil {
			return lock, fmt.Errorf("delete stale shared data instance %d: %w", staleShared, err)
		}
	}
	if sharedRow != nil {
		if err := m.store.SaveSharedData(ctx, *sharedRow); err != nil {
			return lock, fmt.Errorf("save shared data instance %d: %w", sharedRow.InstanceID, err)
		}
	}
	if err := m.store.SaveInstanceLock(ctx, lockRow); err != nil {
		return lock, fmt.Errorf("save instance lock player %d map %d: %w", playerGUID, md.MapID, err)
	}

	slog.Debug("instance lock updated",
		"player", playerGUID, "mapID", md.MapID, "difficulty", md.DifficultyID,
		"instanceID", ev.InstanceID, "mask", fmt.Sprintf("0x%x", d.CompletedEncountersMask))

	return lock, nil
}

// UpdateSharedInstanceLock applies an update to the shared payload keyed
// by instance id, for maps where progress is not per-player. The payload
// must already exist: shared data is created when the first lock binds to
// the instance, so an unknown id means a stale event.
func (m *LockManager) UpdateSharedInstanceLock(ctx context.Context, ev UpdateEvent) error {
	m.mu.Lock()
	shared := m.sharedByInstance[ev.InstanceID]
	if shared == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: instance %d", ErrSharedDataMissing, ev.InstanceID)
	}
	shared.Data = ev.UpdatedData
	if ev.CompletedEncounter != nil {
		shared.CompletedEncountersMask |= ev.CompletedEncounter.CompletedMask()
	}
	if ev.InstanceCompletedEncountersMask != nil {
		shared.CompletedEncountersMask |= *ev.InstanceCompletedEncountersMask
	}
	if ev.EntranceWorldSafeLocID != nil {
		shared.EntranceWorldSafeLocID = *ev.EntranceWorldSafeLocID
	}
	row := m.sharedRowLocked(shared)
	m.mu.Unlock()

	if err := m.store.SaveSharedData(ctx, row); err != nil {
		return fmt.Errorf("save shared data instance %d: %w", ev.InstanceID, err)
	}
	return nil
}

// CanJoinInstanceLock decides whether a player may enter the instance
// owning targetLock, by comparing it against the player's active lock.
func (m *LockManager) CanJoinInstanceLock(playerGUID uint64, md *data.MapDifficulty, targetLock *InstanceLock) TransferAbortReason {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	playerLock := m.findActiveLocked(playerGUID, md, true, false, now)
	if playerLock == nil {
		return TransferAbortNone
	}

	if md.IsFlexLocking() {
		// Joining would lose progress if the player has completed an
		// encounter this instance has not.
		if playerLock.Data().CompletedEncountersMask&^targetLock.Data().CompletedEncountersMask != 0 {
			return TransferAbortAlreadyCompletedEncounter
		}
		return TransferAbortNone
	}

	if !md.UsesEncounterLocks() {
		if playerLock.InstanceID != 0 && playerLock.InstanceID != targetLock.InstanceID {
			return TransferAbortLockedToDifferentInstance
		}
	}
	return TransferAbortNone
}

// ResetInstanceLocksForPlayer rolls back every matching lock so it is
// effectively expired (even if extended) and clears the extension flag.
// Locks currently used by a live instance are reported, not mutated.
// Returns the locks that were reset and the locks that could not be.
func (m *LockManager) ResetInstanceLocksForPlayer(ctx context.Context, playerGUID uint64, mapID *int32, difficultyID *int32) (reset, failed []*InstanceLock, err error) {
	now := m.now()

	m.mu.Lock()
	var rows []LockRow
	for key, lock := range m.locksByPlayer[playerGUID] {
		if mapID != nil && key.mapID != *mapID {
			continue
		}
		if difficultyID != nil && lock.DifficultyID != *difficultyID {
			continue
		}
		md := data.GetMapDifficulty(lock.MapID, lock.DifficultyID)
		if md == nil {
			continue
		}
		if lock.InUse {
			failed = append(failed, lock)
			continue
		}
		schedule := m.ScheduleFor(md)
		// One period before the last reset: expired even for extended locks.
		lock.ExpiryTime = schedule.PreviousResetTime(now).Add(-schedule.Period())
		lock.Extended = false
		reset = append(reset, lock)
		rows = append(rows, m.lockRowLocked(playerGUID, md, lock))
	}
	m.mu.Unlock()

	for _, row := range rows {
		if err := m.store.SaveInstanceLock(ctx, row); err != nil {
			return reset, failed, fmt.Errorf("save reset lock player %d map %d: %w", playerGUID, row.MapID, err)
		}
	}

	slog.Debug("instance locks reset",
		"player", playerGUID, "reset", len(reset), "failed", len(failed))

	return reset, failed, nil
}

// UpdateInstanceLockExtensionForPlayer flips the extension flag on the
// player's active permanent lock. Returns the effective expiry before and
// after; found is false when the player has no such lock.
func (m *LockManager) UpdateInstanceLockExtensionForPlayer(ctx context.Context, playerGUID uint64, md *data.MapDifficulty, extended bool) (before, after time.Time, found bool, err error) {
	now := m.now()
	schedule := m.ScheduleFor(md)

	m.mu.Lock()
	lock := m.findActiveLocked(playerGUID, md, true, true, now)
	if lock == nil {
		m.mu.Unlock()
		return time.Time{}, time.Time{}, false, nil
	}
	before = lock.GetEffectiveExpiryTime(schedule)
	lock.Extended = extended
	after = lock.GetEffectiveExpiryTime(schedule)
	row := m.lockRowLocked(playerGUID, md, lock)
	m.mu.Unlock()

	if err := m.store.SaveInstanceLock(ctx, row); err != nil {
		return before, after, true, fmt.Errorf("save lock extension player %d map %d: %w", playerGUID, md.MapID, err)
	}

	slog.Debug("instance lock extension updated",
		"player", playerGUID, "mapID", md.MapID, "extended", extended,
		"before", before.Format(time.RFC3339), "after", after.Format(time.RFC3339))

	return before, after, true, nil
}

// SetLockInUse marks the player's lock as used (or released) by a live
// instance. In-use locks cannot be reset.
func (m *LockManager) SetLockInUse(playerGUID uint64, md *data.MapDifficulty, inUse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lock := m.locksByPlayer[playerGUID][lockKey{mapID: md.MapID, lockID: md.LockID}]; lock != nil {
		lock.InUse = inUse
	}
}

// GetInstanceLocksForPlayer returns all permanent locks for a player.
func (m *LockManager) GetInstanceLocksForPlayer(playerGUID uint64) []*InstanceLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	locks := make([]*InstanceLock, 0, len(m.locksByPlayer[playerGUID]))
	for _, lock := range m.locksByPlayer[playerGUID] {
		locks = append(locks, lock)
	}
	return locks
}

// RemovePlayerLocks drops every lock of a player from memory and storage
// (character deletion, GM clear). Refused while any of the player's locks
// is held by a live instance. Shared payloads nothing references anymore
// are deleted synchronously.
func (m *LockManager) RemovePlayerLocks(ctx context.Context, playerGUID uint64) error {
	m.mu.Lock()
	for _, lock := range m.locksByPlayer[playerGUID] {
		if lock.InUse {
			m.mu.Unlock()
			return fmt.Errorf("%w: player %d map %d", ErrLockInUse, playerGUID, lock.MapID)
		}
	}
	var deadShared []uint64
	var rows []LockRow
	for key, lock := range m.locksByPlayer[playerGUID] {
		if id, dead := m.unrefSharedLocked(lock); dead {
			deadShared = append(deadShared, id)
		}
		rows = append(rows, LockRow{PlayerGUID: playerGUID, MapID: key.mapID, LockID: key.lockID})
	}
	delete(m.locksByPlayer, playerGUID)
	for _, lock := range m.tempLocksByPlayer[playerGUID] {
		if id, dead := m.unrefSharedLocked(lock); dead {
			deadShared = append(deadShared, id)
		}
	}
	delete(m.tempLocksByPlayer, playerGUID)
	m.mu.Unlock()

	for _, row := range rows {
		if err := m.store.DeleteInstanceLock(ctx, playerGUID, row.MapID, row.LockID); err != nil {
			return fmt.Errorf("delete instance lock player %d map %d: %w", playerGUID, row.MapID, err)
		}
	}
	for _, id := range deadShared {
		if err := m.store.DeleteSharedData(ctx, id); err != nil {
			return fmt.Errorf("delete shared data instance %d: %w", id, err)
		}
		slog.Debug("shared instance data released", "instanceID", id)
	}
	return nil
}

// Statistics returns lock counts for the startup/status log line.
func (m *LockManager) Statistics() (playerLocks, temporaryLocks, sharedData int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, locks := range m.locksByPlayer {
		playerLocks += len(locks)
	}
	for _, locks := range m.tempLocksByPlayer {
		temporaryLocks += len(locks)
	}
	return playerLocks, temporaryLocks, len(m.sharedByInstance)
}

// unrefSharedLocked drops one reference from a shared payload.
// Returns (instanceID, true) when the refcount reached zero and the row
// must be deleted from storage. Caller holds m.mu.
func (m *LockManager) unrefSharedLocked(lock *InstanceLock) (uint64, bool) {
	if lock == nil || lock.shared == nil {
		return 0, false
	}
	lock.shared.refCount--
	if lock.shared.refCount > 0 {
		return 0, false
	}
	delete(m.sharedByInstance, lock.shared.InstanceID)
	return lock.shared.InstanceID, true
}

// lockRowLocked builds the persistable row for a lock. Caller holds m.mu.
func (m *LockManager) lockRowLocked(playerGUID uint64, md *data.MapDifficulty, lock *InstanceLock) LockRow {
	d := lock.Data()
	return LockRow{
		PlayerGUID:              playerGUID,
		MapID:                   lock.MapID,
		LockID:                  md.LockID,
		InstanceID:              lock.InstanceID,
		DifficultyID:            lock.DifficultyID,
		Data:                    d.Data,
		CompletedEncountersMask: d.CompletedEncountersMask,
		EntranceWorldSafeLocID:  d.EntranceWorldSafeLocID,
		ExpiryTime:              lock.ExpiryTime.Unix(),
		Extended:                lock.Extended,
	}
}

// sharedRowLocked builds the persistable shared row. Caller holds m.mu.
func (m *LockManager) sharedRowLocked(shared *SharedInstanceLockData) SharedDataRow {
	return SharedDataRow{
		InstanceID:              shared.InstanceID,
		Data:                    shared.Data,
		CompletedEncountersMask: shared.CompletedEncountersMask,
		EntranceWorldSafeLocID:  shared.EntranceWorldSafeLocID,
	}
}
