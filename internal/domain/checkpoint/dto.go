package checkpoint

import (
	"fmt"

	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

// ========================================
// CHECKPOINT DTOs
// ========================================

type CreateCheckpointRequest struct {
	Name                 string   `json:"name"`
	Location             string   `json:"location"`
	Description          *string  `json:"description,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	IsActive             *bool    `json:"is_active,omitempty"`
	Priority             *string  `json:"priority,omitempty"`
	MaxAssignedGuards    *int     `json:"max_assigned_guards,omitempty"`
	GeofenceRadiusMeters *int     `json:"geofence_radius_meters,omitempty"`
	CreatedBy            string   `json:"-"`
}

// ToEntity builds a Checkpoint with defaults applied. Run Validate on the
// result.
func (r *CreateCheckpointRequest) ToEntity() Checkpoint {
	c := Checkpoint{
		Name:                 r.Name,
		Location:             r.Location,
		Description:          r.Description,
		Latitude:             r.Latitude,
		Longitude:            r.Longitude,
		IsActive:             true,
		Priority:             PriorityMedium,
		MaxAssignedGuards:    DefaultMaxAssignedGuards,
		GeofenceRadiusMeters: DefaultGeofenceRadiusMeters,
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.Priority != nil {
		c.Priority = Priority(*r.Priority)
	}
	if r.MaxAssignedGuards != nil {
		c.MaxAssignedGuards = *r.MaxAssignedGuards
	}
	if r.GeofenceRadiusMeters != nil {
		c.GeofenceRadiusMeters = *r.GeofenceRadiusMeters
	}
	if r.CreatedBy != "" {
		createdBy := r.CreatedBy
		c.CreatedBy = &createdBy
	}
	return c
}

type UpdateCheckpointRequest struct {
	ID                   string   `json:"-"`
	Name                 *string  `json:"name,omitempty"`
	Location             *string  `json:"location,omitempty"`
	Description          *string  `json:"description,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	IsActive             *bool    `json:"is_active,omitempty"`
	Priority             *string  `json:"priority,omitempty"`
	MaxAssignedGuards    *int     `json:"max_assigned_guards,omitempty"`
	GeofenceRadiusMeters *int     `json:"geofence_radius_meters,omitempty"`
}

// ApplyTo copies the set fields onto c. Run Validate on c afterwards.
func (r *UpdateCheckpointRequest) ApplyTo(c *Checkpoint) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Location != nil {
		c.Location = *r.Location
	}
	if r.Description != nil {
		c.Description = r.Description
	}
	if r.Latitude != nil {
		c.Latitude = r.Latitude
	}
	if r.Longitude != nil {
		c.Longitude = r.Longitude
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.Priority != nil {
		c.Priority = Priority(*r.Priority)
	}
	if r.MaxAssignedGuards != nil {
		c.MaxAssignedGuards = *r.MaxAssignedGuards
	}
	if r.GeofenceRadiusMeters != nil {
		c.GeofenceRadiusMeters = *r.GeofenceRadiusMeters
	}
}

type ListCheckpointFilter struct {
	ActiveOnly bool `json:"active_only"`
}

// CacheKey identifies the filter in the listing cache.
func (f ListCheckpointFilter) CacheKey() string {
	return fmt.Sprintf("list:active=%t", f.ActiveOnly)
}

type CheckpointResponse struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Location             string   `json:"location"`
	Description          *string  `json:"description,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	IsActive             bool     `json:"is_active"`
	Priority             string   `json:"priority"`
	MaxAssignedGuards    int      `json:"max_assigned_guards"`
	AssignedGuards       int      `json:"assigned_guards"`
	GeofenceRadiusMeters int      `json:"geofence_radius_meters"`
	CreatedBy            *string  `json:"created_by,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

func NewCheckpointResponse(c Checkpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:                   c.ID,
		Name:                 c.Name,
		Location:             c.Location,
		Description:          c.Description,
		Latitude:             c.Latitude,
		Longitude:            c.Longitude,
		IsActive:             c.IsActive,
		Priority:             string(c.Priority),
		MaxAssignedGuards:    c.MaxAssignedGuards,
		AssignedGuards:       c.AssignedGuards,
		GeofenceRadiusMeters: c.GeofenceRadiusMeters,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:            c.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ========================================
// BULK ASSIGNMENT DTOs
// ========================================

type BulkAssignRequest struct {
	Assignments []Assignment `json:"assignments"`
}

// Validate checks the batch shape only. Item contents are validated one by
// one by the planner so a bad item does not reject the batch.
func (r *BulkAssignRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Assignments) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "assignments",
			Message: "assignments must contain at least 1 item",
		})
	} else if len(r.Assignments) > MaxBulkItems {
		errs = append(errs, validator.ValidationError{
			Field:   "assignments",
			Message: fmt.Sprintf("assignments must not exceed %d items", MaxBulkItems),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BulkUnassignRequest struct {
	GuardIDs []string `json:"guard_ids"`
}

func (r *BulkUnassignRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.GuardIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_ids",
			Message: "guard_ids must contain at least 1 item",
		})
	} else if len(r.GuardIDs) > MaxBulkItems {
		errs = append(errs, validator.ValidationError{
			Field:   "guard_ids",
			Message: fmt.Sprintf("guard_ids must not exceed %d items", MaxBulkItems),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
