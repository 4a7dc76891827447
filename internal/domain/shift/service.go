package shift

import "context"

// ShiftService defines business logic for shift windows
type ShiftService interface {
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	Get(ctx context.Context, id string) (ShiftResponse, error)
	List(ctx context.Context, filter ListShiftFilter) ([]ShiftResponse, error)
	Update(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)

	// Delete removes a shift. Attendance rows referencing it block the delete
	// unless Force is set, in which case they are purged with it.
	Delete(ctx context.Context, req DeleteShiftRequest) error

	// GetCurrent returns the first active shift whose window covers now.
	GetCurrent(ctx context.Context) (ShiftResponse, error)
}
