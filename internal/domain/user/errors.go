package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserEmailExists         = errors.New("email already registered")
	ErrUserInactive            = errors.New("user account is inactive")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrGuardRoleRequired       = errors.New("guard role required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
