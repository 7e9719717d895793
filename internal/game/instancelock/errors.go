package instancelock

import "errors"

// Sentinel errors for the instance lock system.
// "Lock not found" is never an error: lookups return nil instead.
var (
	ErrMapNotBound       = errors.New("map+difficulty does not use instance locks")
	ErrSharedDataMissing = errors.New("no shared data for instance id")
	ErrLockInUse         = errors.New("instance lock is in use by a live instance")
)

// TransferAbortReason explains why a player may not join an instance.
type TransferAbortReason int32

const (
	// TransferAbortNone means the join is allowed.
	TransferAbortNone TransferAbortReason = iota
	// TransferAbortAlreadyCompletedEncounter: the player's lock has a
	// completed encounter the target instance has not completed.
	TransferAbortAlreadyCompletedEncounter
	// TransferAbortLockedToDifferentInstance: the player is bound to
	// another instance id of the same map+difficulty.
	TransferAbortLockedToDifferentInstance
)

// String returns a human-readable abort reason.
func (r TransferAbortReason) String() string {
	switch r {
	case TransferAbortNone:
		return "NONE"
	case TransferAbortAlreadyCompletedEncounter:
		return "ALREADY_COMPLETED_ENCOUNTER"
	case TransferAbortLockedToDifferentInstance:
		return "LOCKED_TO_DIFFERENT_INSTANCE"
	default:
		return "UNKNOWN"
	}
}
