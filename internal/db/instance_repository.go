package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InstanceLockRow represents a row from character_instance_locks.
type InstanceLockRow struct {
	PlayerGUID              int64
	MapID                   int32
	LockID                  int32
	InstanceID              int64
	DifficultyID            int32
	Data                    string
	CompletedEncountersMask int64
	EntranceWorldSafeLocID  int32
	ExpiryTime              int64 // Unix seconds
	Extended                bool
}

// SharedInstanceRow represents a row from instance.
type SharedInstanceRow struct {
	InstanceID              int64
	Data                    string
	CompletedEncountersMask int64
	EntranceWorldSafeLocID  int32
}

// InstanceRepository provides CRUD for the instance lock tables.
//
// Every Save issues a delete-then-insert pair inside one transaction so a
// crash mid-update cannot leave a half-written row.
type InstanceRepository struct {
	pool *pgxpool.Pool
}

// NewInstanceRepository creates a new InstanceRepository.
func NewInstanceRepository(pool *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{pool: pool}
}

// --- character_instance_locks ---

// LoadAllLocks loads every player instance lock record.
func (r *InstanceRepository) LoadAllLocks(ctx context.Context) ([]InstanceLockRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT player_guid, map_id, lock_id, instance_id, difficulty, data,
		        completed_encounters_mask, entrance_world_safe_loc_id, expiry_time, extended
		 FROM character_instance_locks`)
	if err != nil {
		return nil, fmt.Errorf("query character_instance_locks: %w", err)
	}
	defer rows.Close()

	var result []InstanceLockRow
	for rows.Next() {
		var row InstanceLockRow
		if err := rows.Scan(
			&row.PlayerGUID, &row.MapID, &row.LockID, &row.InstanceID, &row.DifficultyID,
			&row.Data, &row.CompletedEncountersMask, &row.EntranceWorldSafeLocID,
			&row.ExpiryTime, &row.Extended,
		); err != nil {
			return nil, fmt.Errorf("scan character_instance_locks: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SaveInstanceLock replaces a player's lock row atomically.
func (r *InstanceRepository) SaveInstanceLock(ctx context.Context, row InstanceLockRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save instance lock player %d: %w", row.PlayerGUID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
			slog.Error("rollback failed", "playerGUID", row.PlayerGUID, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM character_instance_locks
		 WHERE player_guid = $1 AND map_id = $2 AND lock_id = $3`,
		row.PlayerGUID, row.MapID, row.LockID); err != nil {
		return fmt.Errorf("delete instance lock player %d map %d: %w", row.PlayerGUID, row.MapID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO character_instance_locks
		   (player_guid, map_id, lock_id, instance_id, difficulty, data,
		    completed_encounters_mask, entrance_world_safe_loc_id, expiry_time, extended)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.PlayerGUID, row.MapID, row.LockID, row.InstanceID, row.DifficultyID,
		row.Data, row.CompletedEncountersMask, row.EntranceWorldSafeLocID,
		row.ExpiryTime, row.Extended); err != nil {
		return fmt.Errorf("insert instance lock player %d map %d: %w", row.PlayerGUID, row.MapID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit instance lock player %d map %d: %w", row.PlayerGUID, row.MapID, err)
	}
	return nil
}

// DeleteInstanceLock removes a player's lock row.
func (r *InstanceRepository) DeleteInstanceLock(ctx context.Context, playerGUID int64, mapID, lockID int32) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM character_instance_locks
		 WHERE player_guid = $1 AND map_id = $2 AND lock_id = $3`,
		playerGUID, mapID, lockID)
	if err != nil {
		return fmt.Errorf("delete instance lock player %d map %d: %w", playerGUID, mapID, err)
	}
	return nil
}

// DeleteExpiredLocks removes every expired, not-extended lock row.
// Returns the number of rows removed.
func (r *InstanceRepository) DeleteExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM character_instance_locks
		 WHERE expiry_time <= $1 AND extended = FALSE`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired instance locks: %w", err)
	}
	return result.RowsAffected(), nil
}

// --- instance (shared lock payloads) ---

// LoadAllSharedData loads every shared instance payload record.
func (r *InstanceRepository) LoadAllSharedData(ctx context.Context) ([]SharedInstanceRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT instance_id, data, completed_encounters_mask, entrance_world_safe_loc_id
		 FROM instance`)
	if err != nil {
		return nil, fmt.Errorf("query instance: %w", err)
	}
	defer rows.Close()

	var result []SharedInstanceRow
	for rows.Next() {
		var row SharedInstanceRow
		if err := rows.Scan(
			&row.InstanceID, &row.Data, &row.CompletedEncountersMask, &row.EntranceWorldSafeLocID,
		); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SaveSharedData replaces a shared instance payload row atomically.
func (r *InstanceRepository) SaveSharedData(ctx context.Context, row SharedInstanceRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save shared data instance %d: %w", row.InstanceID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
			slog.Error("rollback failed", "instanceID", row.InstanceID, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM instance WHERE instance_id = $1`, row.InstanceID); err != nil {
		return fmt.Errorf("delete instance %d: %w", row.InstanceID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO instance (instance_id, data, completed_encounters_mask, entrance_world_safe_loc_id)
		 VALUES ($1, $2, $3, $4)`,
		row.InstanceID, row.Data, row.CompletedEncountersMask, row.EntranceWorldSafeLocID); err != nil {
		return fmt.Errorf("insert instance %d: %w", row.InstanceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit shared data instance %d: %w", row.InstanceID, err)
	}
	return nil
}

// DeleteSharedData removes a shared instance payload row.
func (r *InstanceRepository) DeleteSharedData(ctx context.Context, instanceID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM instance WHERE instance_id = $1`, instanceID)
	if err != nil {
		return fmt.Errorf("delete instance %d: %w", instanceID, err)
	}
	return nil
}
