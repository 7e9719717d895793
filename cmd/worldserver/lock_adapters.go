package main

import (
	"context"

	"github.com/udisondev/wowgo/internal/db"
	"github.com/udisondev/wowgo/internal/game/instancelock"
)

// lockStoreAdapter adapts db.InstanceRepository to instancelock.LockStore.
type lockStoreAdapter struct {
	repo *db.InstanceRepository
}

func (a *lockStoreAdapter) LoadAllSharedData(ctx context.Context) ([]instancelock.SharedDataRow, error) {
	rows, err := a.repo.LoadAllSharedData(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]instancelock.SharedDataRow, len(rows))
	for i, r := range rows {
		result[i] = instancelock.SharedDataRow{
			InstanceID:              uint64(r.InstanceID),
			Data:                    r.Data,
			CompletedEncountersMask: uint32(r.CompletedEncountersMask),
			EntranceWorldSafeLocID:  uint32(r.EntranceWorldSafeLocID),
		}
	}
	return result, nil
}

func (a *lockStoreAdapter) LoadAllLocks(ctx context.Context) ([]instancelock.LockRow, error) {
	rows, err := a.repo.LoadAllLocks(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]instancelock.LockRow, len(rows))
	for i, r := range rows {
		result[i] = instancelock.LockRow{
			PlayerGUID:              uint64(r.PlayerGUID),
			MapID:                   r.MapID,
			LockID:                  r.LockID,
			InstanceID:              uint64(r.InstanceID),
			DifficultyID:            r.DifficultyID,
			Data:                    r.Data,
			CompletedEncountersMask: uint32(r.CompletedEncountersMask),
			EntranceWorldSafeLocID:  uint32(r.EntranceWorldSafeLocID),
			ExpiryTime:              r.ExpiryTime,
			Extended:                r.Extended,
		}
	}
	return result, nil
}

func (a *lockStoreAdapter) SaveInstanceLock(ctx context.Context, row instancelock.LockRow) error {
	return a.repo.SaveInstanceLock(ctx, db.InstanceLockRow{
		PlayerGUID:              int64(row.PlayerGUID),
		MapID:                   row.MapID,
		LockID:                  row.LockID,
		InstanceID:              int64(row.InstanceID),
		DifficultyID:            row.DifficultyID,
		Data:                    row.Data,
		CompletedEncountersMask: int64(row.CompletedEncountersMask),
		EntranceWorldSafeLocID:  int32(row.EntranceWorldSafeLocID),
		ExpiryTime:              row.ExpiryTime,
		Extended:                row.Extended,
	})
}

func (a *lockStoreAdapter) DeleteInstanceLock(ctx context.Context, playerGUID uint64, mapID, lockID int32) error {
	return a.repo.DeleteInstanceLock(ctx, int64(playerGUID), mapID, lockID)
}

func (a *lockStoreAdapter) SaveSharedData(ctx context.Context, row instancelock.SharedDataRow) error {
	return a.repo.SaveSharedData(ctx, db.SharedInstanceRow{
		InstanceID:              int64(row.InstanceID),
		Data:                    row.Data,
		CompletedEncountersMask: int64(row.CompletedEncountersMask),
		EntranceWorldSafeLocID:  int32(row.EntranceWorldSafeLocID),
	})
}

func (a *lockStoreAdapter) DeleteSharedData(ctx context.Context, instanceID uint64) error {
	return a.repo.DeleteSharedData(ctx, int64(instanceID))
}
