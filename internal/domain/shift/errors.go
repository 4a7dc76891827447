package shift

import "errors"

var (
	ErrShiftNotFound     = errors.New("shift not found")
	ErrShiftNameExists   = errors.New("shift with this name already exists")
	ErrShiftInUse        = errors.New("shift is referenced by attendance records")
	ErrNoActiveShift     = errors.New("no active shift covers the current time")
	ErrTooEarlyToCheckIn = errors.New("too early to check in for the next shift")
)
