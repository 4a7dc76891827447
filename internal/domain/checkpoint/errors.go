package checkpoint

import "errors"

var (
	ErrCheckpointNotFound   = errors.New("checkpoint not found")
	ErrCheckpointNameExists = errors.New("checkpoint name already exists")
	ErrCheckpointInactive   = errors.New("checkpoint is not active")
	ErrCapacityExceeded     = errors.New("checkpoint has reached its guard capacity")

	ErrGuardNotFound        = errors.New("guard not found")
	ErrGuardInactive        = errors.New("guard is not active")
	ErrNotAGuard            = errors.New("user is not a guard")
	ErrGuardAlreadyAssigned = errors.New("guard is already assigned to a checkpoint")
	ErrGuardNotAssigned     = errors.New("guard is not assigned to any checkpoint")
)
