package instancelock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/udisondev/wowgo/internal/data"
)

// fakeLockStore — in-memory LockStore, записывает все вызовы.
type fakeLockStore struct {
	lockRows   []LockRow
	sharedRows []SharedDataRow

	savedLocks    []LockRow
	savedShared   []SharedDataRow
	deletedLocks  []uint64 // playerGUIDs
	deletedShared []uint64 // instanceIDs
}

func (f *fakeLockStore) LoadAllSharedData(ctx context.Context) ([]SharedDataRow, error) {
	return f.sharedRows, nil
}

func (f *fakeLockStore) LoadAllLocks(ctx context.Context) ([]LockRow, error) {
	return f.lockRows, nil
}

func (f *fakeLockStore) SaveInstanceLock(ctx context.Context, row LockRow) error {
	f.savedLocks = append(f.savedLocks, row)
	return nil
}

func (f *fakeLockStore) DeleteInstanceLock(ctx context.Context, playerGUID uint64, mapID, lockID int32) error {
	f.deletedLocks = append(f.deletedLocks, playerGUID)
	return nil
}

func (f *fakeLockStore) SaveSharedData(ctx context.Context, row SharedDataRow) error {
	f.savedShared = append(f.savedShared, row)
	return nil
}

func (f *fakeLockStore) DeleteSharedData(ctx context.Context, instanceID uint64) error {
	f.deletedShared = append(f.deletedShared, instanceID)
	return nil
}

// testNow — пятница 2024-03-15 12:00 UTC.
var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestManager(store *fakeLockStore) *LockManager {
	m := NewLockManager(store, 8, time.Wednesday, 8)
	m.now = func() time.Time { return testNow }
	return m
}

func TestLockManager_TemporaryLockNotPersisted(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 574, 2)

	lock := m.CreateInstanceLockForNewInstance(100, md, 7)
	if lock == nil {
		t.Fatal("CreateInstanceLockForNewInstance() = nil")
	}
	if len(store.savedLocks) != 0 {
		t.Errorf("temporary lock persisted: %d saves", len(store.savedLocks))
	}

	// Daily reset в 8 утра: истечение завтра в 08:00.
	wantExpiry := time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC)
	if !lock.ExpiryTime.Equal(wantExpiry) {
		t.Errorf("expiry = %v; want %v", lock.ExpiryTime, wantExpiry)
	}

	if got := m.FindActiveInstanceLock(100, md, false, false); got != lock {
		t.Error("FindActiveInstanceLock did not return the temporary lock")
	}
	if got := m.FindActiveInstanceLock(100, md, true, false); got != nil {
		t.Error("FindActiveInstanceLock(ignoreTemporary) returned a temporary lock")
	}
}

func TestLockManager_UpdatePromotesTemporary(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 574, 2)
	enc := data.GetDungeonEncounter(1084)

	temp := m.CreateInstanceLockForNewInstance(100, md, 7)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{
		InstanceID:         7,
		UpdatedData:        `{"Header":"UK"}`,
		CompletedEncounter: enc,
	})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	if lock != temp {
		t.Error("update did not promote the temporary lock")
	}
	if got := m.FindActiveInstanceLock(100, md, true, false); got != lock {
		t.Error("promoted lock not found in permanent registry")
	}
	if lock.Data().CompletedEncountersMask != enc.CompletedMask() {
		t.Errorf("mask = 0x%x; want 0x%x", lock.Data().CompletedEncountersMask, enc.CompletedMask())
	}
	if len(store.savedLocks) != 1 {
		t.Fatalf("saved %d lock rows; want 1", len(store.savedLocks))
	}
	row := store.savedLocks[0]
	if row.PlayerGUID != 100 || row.MapID != 574 || row.InstanceID != 7 {
		t.Errorf("saved row = %+v", row)
	}
	if row.Data != `{"Header":"UK"}` {
		t.Errorf("saved data = %q", row.Data)
	}
}

func TestLockManager_FindPrefersPermanent(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 574, 2)

	perm, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 5})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	m.CreateInstanceLockForNewInstance(100, md, 9)

	if got := m.FindActiveInstanceLock(100, md, false, false); got != perm {
		t.Error("FindActiveInstanceLock did not prefer the permanent lock")
	}
}

func TestLockManager_ExpiredLockIsAbsent(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 574, 2)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 5})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	lock.ExpiryTime = testNow.Add(-time.Hour)

	if got := m.FindActiveInstanceLock(100, md, false, false); got != nil {
		t.Error("expired lock returned as active")
	}
	if got := m.FindActiveInstanceLock(100, md, false, true); got != lock {
		t.Error("FindActiveInstanceLock(ignoreExpired) did not return the lock")
	}

	// Продлённый истёкший lock остаётся активным.
	lock.Extended = true
	if got := m.FindActiveInstanceLock(100, md, false, false); got != lock {
		t.Error("extended expired lock treated as absent")
	}
}

func TestLockManager_UpdateRefreshesExpiredLock(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 574, 2)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 5})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	lock.ExpiryTime = testNow.Add(-time.Hour)

	if _, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 5}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	wantExpiry := time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC)
	if !lock.ExpiryTime.Equal(wantExpiry) {
		t.Errorf("refreshed expiry = %v; want %v", lock.ExpiryTime, wantExpiry)
	}
}

func TestLockManager_CanJoinFlex(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 1136, 14)

	target := NewPrivateLock(md, 50, testNow.Add(time.Hour))
	target.Data().CompletedEncountersMask = 0b0011

	// Нет собственного lock — вход разрешён.
	if got := m.CanJoinInstanceLock(100, md, target); got != TransferAbortNone {
		t.Errorf("CanJoinInstanceLock(no lock) = %v; want NONE", got)
	}

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 60})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}

	// Маска игрока — подмножество маски инстанса: можно.
	lock.Data().CompletedEncountersMask = 0b0001
	if got := m.CanJoinInstanceLock(100, md, target); got != TransferAbortNone {
		t.Errorf("CanJoinInstanceLock(subset) = %v; want NONE", got)
	}

	// У игрока есть бит, которого нет у инстанса: нельзя.
	lock.Data().CompletedEncountersMask = 0b0101
	if got := m.CanJoinInstanceLock(100, md, target); got != TransferAbortAlreadyCompletedEncounter {
		t.Errorf("CanJoinInstanceLock(superset) = %v; want ALREADY_COMPLETED_ENCOUNTER", got)
	}
}

func TestLockManager_CanJoinInstanceBound(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 533, 3)

	if _, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 10}); err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}

	same := NewSharedLock(md, &SharedInstanceLockData{InstanceID: 10}, testNow.Add(time.Hour))
	other := NewSharedLock(md, &SharedInstanceLockData{InstanceID: 11}, testNow.Add(time.Hour))

	if got := m.CanJoinInstanceLock(100, md, same); got != TransferAbortNone {
		t.Errorf("CanJoinInstanceLock(same instance) = %v; want NONE", got)
	}
	if got := m.CanJoinInstanceLock(100, md, other); got != TransferAbortLockedToDifferentInstance {
		t.Errorf("CanJoinInstanceLock(other instance) = %v; want LOCKED_TO_DIFFERENT_INSTANCE", got)
	}
}

func TestLockManager_ResetLocks(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	mdDungeon := testMapDifficulty(t, 574, 2)
	mdRaid := testMapDifficulty(t, 533, 3)

	dungeonLock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, mdDungeon, UpdateEvent{InstanceID: 5})
	if err != nil {
		t.Fatalf("update dungeon lock: %v", err)
	}
	dungeonLock.Extended = true

	raidLock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, mdRaid, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("update raid lock: %v", err)
	}
	raidLock.InUse = true

	reset, failed, err := m.ResetInstanceLocksForPlayer(context.Background(), 100, nil, nil)
	if err != nil {
		t.Fatalf("ResetInstanceLocksForPlayer: %v", err)
	}
	if len(reset) != 1 || reset[0] != dungeonLock {
		t.Errorf("reset = %v; want only the dungeon lock", reset)
	}
	if len(failed) != 1 || failed[0] != raidLock {
		t.Errorf("failed = %v; want only the in-use raid lock", failed)
	}

	if !dungeonLock.IsExpired(testNow) {
		t.Error("reset lock is not expired")
	}
	if dungeonLock.Extended {
		t.Error("reset did not clear the extension flag")
	}
	// Даже с продлением эффективное истечение осталось бы в прошлом.
	schedule := m.ScheduleFor(mdDungeon)
	dungeonLock.Extended = true
	if dungeonLock.GetEffectiveExpiryTime(schedule).After(testNow) {
		t.Error("extended effective expiry of reset lock is in the future")
	}
}

func TestLockManager_Extension(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 533, 3)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	// Lock уже истёк: прошлая среда.
	lock.ExpiryTime = time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

	before, after, found, err := m.UpdateInstanceLockExtensionForPlayer(context.Background(), 100, md, true)
	if err != nil {
		t.Fatalf("UpdateInstanceLockExtensionForPlayer: %v", err)
	}
	if !found {
		t.Fatal("found = false")
	}
	if !after.After(before) {
		t.Errorf("after (%v) not after before (%v)", after, before)
	}
	if want := after.Sub(before); want != 7*24*time.Hour {
		t.Errorf("extension delta = %v; want one weekly period", want)
	}

	// Повторное снятие продления возвращает исходное истечение.
	before2, after2, _, err := m.UpdateInstanceLockExtensionForPlayer(context.Background(), 100, md, false)
	if err != nil {
		t.Fatalf("remove extension: %v", err)
	}
	if !before2.Equal(after) || !after2.Equal(before) {
		t.Errorf("toggle back: before=%v after=%v", before2, after2)
	}

	if got := m.FindActiveInstanceLock(999, md, true, false); got != nil {
		t.Error("extension lookup for unknown player returned a lock")
	}
	_, _, found, _ = m.UpdateInstanceLockExtensionForPlayer(context.Background(), 999, md, true)
	if found {
		t.Error("extension reported found for unknown player")
	}
}

func TestLockManager_SharedRefcountDelete(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 533, 3)

	lockA, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("update player 100: %v", err)
	}
	lockB, err := m.UpdateInstanceLockForPlayer(context.Background(), 200, md, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("update player 200: %v", err)
	}
	if lockA.SharedData() != lockB.SharedData() {
		t.Fatal("players bound to the same instance do not share payload")
	}

	if err := m.RemovePlayerLocks(context.Background(), 100); err != nil {
		t.Fatalf("RemovePlayerLocks(100): %v", err)
	}
	if len(store.deletedShared) != 0 {
		t.Errorf("shared data deleted while still referenced: %v", store.deletedShared)
	}

	if err := m.RemovePlayerLocks(context.Background(), 200); err != nil {
		t.Fatalf("RemovePlayerLocks(200): %v", err)
	}
	if len(store.deletedShared) != 1 || store.deletedShared[0] != 10 {
		t.Errorf("deletedShared = %v; want [10]", store.deletedShared)
	}
}

func TestLockManager_LoadPurgesMissingShared(t *testing.T) {
	store := &fakeLockStore{
		lockRows: []LockRow{
			{
				PlayerGUID: 100, MapID: 533, LockID: 533, InstanceID: 10, DifficultyID: 3,
				ExpiryTime: testNow.Add(time.Hour).Unix(),
			},
		},
		// Нет shared строки для instance 10.
	}
	m := newTestManager(store)

	if err := m.LoadInstanceLocks(context.Background()); err != nil {
		t.Fatalf("LoadInstanceLocks: %v", err)
	}
	if len(store.deletedLocks) != 1 || store.deletedLocks[0] != 100 {
		t.Errorf("deletedLocks = %v; want [100]", store.deletedLocks)
	}
	md := testMapDifficulty(t, 533, 3)
	if got := m.FindActiveInstanceLock(100, md, false, true); got != nil {
		t.Error("purged lock still present in registry")
	}
}

func TestLockManager_LoadRestoresLocks(t *testing.T) {
	store := &fakeLockStore{
		sharedRows: []SharedDataRow{
			{InstanceID: 10, Data: `{"Header":"NAX"}`, CompletedEncountersMask: 0x3},
		},
		lockRows: []LockRow{
			{
				PlayerGUID: 100, MapID: 533, LockID: 533, InstanceID: 10, DifficultyID: 3,
				ExpiryTime: testNow.Add(time.Hour).Unix(),
			},
			{
				PlayerGUID: 100, MapID: 574, LockID: 574, InstanceID: 5, DifficultyID: 2,
				Data: `{"Header":"UK"}`, CompletedEncountersMask: 0x1,
				ExpiryTime: testNow.Add(-time.Hour).Unix(), // истёк, будет удалён
			},
		},
	}
	m := newTestManager(store)

	if err := m.LoadInstanceLocks(context.Background()); err != nil {
		t.Fatalf("LoadInstanceLocks: %v", err)
	}

	raid := m.FindActiveInstanceLock(100, testMapDifficulty(t, 533, 3), false, false)
	if raid == nil {
		t.Fatal("raid lock not restored")
	}
	if !raid.IsShared() {
		t.Error("raid lock is not shared")
	}
	if raid.Data().CompletedEncountersMask != 0x3 {
		t.Errorf("raid mask = 0x%x; want 0x3", raid.Data().CompletedEncountersMask)
	}

	if got := m.FindActiveInstanceLock(100, testMapDifficulty(t, 574, 2), false, true); got != nil {
		t.Error("expired dungeon lock loaded instead of purged")
	}
	if len(store.deletedLocks) != 1 {
		t.Errorf("deletedLocks = %v; want one purge", store.deletedLocks)
	}
}

func TestLockManager_UpdateSharedInstanceLock(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 533, 3)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}

	mask := uint32(0x7)
	if err := m.UpdateSharedInstanceLock(context.Background(), UpdateEvent{
		InstanceID:                      10,
		UpdatedData:                     `{"Header":"NAX"}`,
		InstanceCompletedEncountersMask: &mask,
	}); err != nil {
		t.Fatalf("UpdateSharedInstanceLock: %v", err)
	}

	// Общий payload обновился для владельца lock.
	if lock.Data().CompletedEncountersMask != 0x7 {
		t.Errorf("mask via player lock = 0x%x; want 0x7", lock.Data().CompletedEncountersMask)
	}
	if lock.Data().Data != `{"Header":"NAX"}` {
		t.Errorf("data via player lock = %q", lock.Data().Data)
	}
	if len(store.savedShared) == 0 {
		t.Fatal("shared row not persisted")
	}
	last := store.savedShared[len(store.savedShared)-1]
	if last.InstanceID != 10 || last.CompletedEncountersMask != 0x7 {
		t.Errorf("saved shared row = %+v", last)
	}
}

func TestLockManager_UpdateRejectsUnboundMap(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	// Utgarde Keep в normal-сложности локов не использует.
	md := testMapDifficulty(t, 574, 1)

	_, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 5})
	if !errors.Is(err, ErrMapNotBound) {
		t.Fatalf("UpdateInstanceLockForPlayer error = %v; want ErrMapNotBound", err)
	}
	if len(store.savedLocks) != 0 {
		t.Error("lock persisted for a map without locks")
	}
}

func TestLockManager_UpdateSharedUnknownInstance(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)

	err := m.UpdateSharedInstanceLock(context.Background(), UpdateEvent{InstanceID: 404})
	if !errors.Is(err, ErrSharedDataMissing) {
		t.Fatalf("UpdateSharedInstanceLock error = %v; want ErrSharedDataMissing", err)
	}
	if len(store.savedShared) != 0 {
		t.Error("shared row persisted for unknown instance")
	}
}

func TestLockManager_RemoveRefusedWhileInUse(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)
	md := testMapDifficulty(t, 533, 3)

	lock, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, md, UpdateEvent{InstanceID: 10})
	if err != nil {
		t.Fatalf("UpdateInstanceLockForPlayer: %v", err)
	}
	m.SetLockInUse(100, md, true)

	if err := m.RemovePlayerLocks(context.Background(), 100); !errors.Is(err, ErrLockInUse) {
		t.Fatalf("RemovePlayerLocks error = %v; want ErrLockInUse", err)
	}
	if got := m.FindActiveInstanceLock(100, md, true, false); got != lock {
		t.Error("lock removed despite in-use refusal")
	}

	m.SetLockInUse(100, md, false)
	if err := m.RemovePlayerLocks(context.Background(), 100); err != nil {
		t.Fatalf("RemovePlayerLocks after release: %v", err)
	}
	if len(store.deletedLocks) != 1 {
		t.Errorf("deletedLocks = %v; want one delete", store.deletedLocks)
	}
}

func TestLockManager_Statistics(t *testing.T) {
	store := &fakeLockStore{}
	m := newTestManager(store)

	if _, err := m.UpdateInstanceLockForPlayer(context.Background(), 100, testMapDifficulty(t, 533, 3), UpdateEvent{InstanceID: 10}); err != nil {
		t.Fatal(err)
	}
	m.CreateInstanceLockForNewInstance(200, testMapDifficulty(t, 574, 2), 5)

	playerLocks, tempLocks, sharedData := m.Statistics()
	if playerLocks != 1 || tempLocks != 1 || sharedData != 1 {
		t.Errorf("Statistics() = %d/%d/%d; want 1/1/1", playerLocks, tempLocks, sharedData)
	}
}
