package shift

import "context"

// ShiftRepository defines data access methods for shift windows.
type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)

	// List returns shifts ordered by start time.
	List(ctx context.Context, filter ListShiftFilter) ([]Shift, error)
	Update(ctx context.Context, s Shift) error
	Delete(ctx context.Context, id string) error
}
