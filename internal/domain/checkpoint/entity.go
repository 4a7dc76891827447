package checkpoint

import (
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/utils"
	"github.com/patrolops/patrol-backend-go/internal/pkg/validator"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var PriorityValues = []string{
	string(PriorityLow),
	string(PriorityMedium),
	string(PriorityHigh),
	string(PriorityCritical),
}

const (
	DefaultMaxAssignedGuards    = 1
	DefaultGeofenceRadiusMeters = 100
	MinGeofenceRadiusMeters     = 10
	MaxGeofenceRadiusMeters     = 5000
)

type Checkpoint struct {
	ID                   string
	Name                 string
	Location             string
	Description          *string
	Latitude             *float64
	Longitude            *float64
	IsActive             bool
	Priority             Priority
	MaxAssignedGuards    int
	GeofenceRadiusMeters int
	CreatedBy            *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// DTO / Join
	AssignedGuards int
}

// HasCoordinates reports whether the checkpoint can take part in geofence
// checks.
func (c Checkpoint) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Site converts the checkpoint for geofence calculations. ok is false when the
// checkpoint has no coordinates.
func (c Checkpoint) Site() (site utils.Site, ok bool) {
	if !c.HasCoordinates() {
		return utils.Site{}, false
	}
	return utils.Site{
		ID:           c.ID,
		Name:         c.Name,
		Latitude:     *c.Latitude,
		Longitude:    *c.Longitude,
		RadiusMeters: float64(c.GeofenceRadiusMeters),
	}, true
}

// HasCapacity reports whether another guard fits given the current count.
func (c Checkpoint) HasCapacity(assigned int) bool {
	return assigned < c.MaxAssignedGuards
}

func (c Checkpoint) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(c.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	} else if len(c.Name) > 100 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name must not exceed 100 characters"})
	}

	if validator.IsEmpty(c.Location) {
		errs = append(errs, validator.ValidationError{Field: "location", Message: "location is required"})
	}

	if (c.Latitude == nil) != (c.Longitude == nil) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude and longitude must be provided together"})
	}
	if c.Latitude != nil && !utils.IsValidLatitude(*c.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if c.Longitude != nil && !utils.IsValidLongitude(*c.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}

	if !validator.IsInSlice(string(c.Priority), PriorityValues) {
		errs = append(errs, validator.ValidationError{Field: "priority", Message: "priority must be one of low, medium, high, critical"})
	}

	if c.MaxAssignedGuards < 1 {
		errs = append(errs, validator.ValidationError{Field: "max_assigned_guards", Message: "max_assigned_guards must be at least 1"})
	}

	if c.GeofenceRadiusMeters < MinGeofenceRadiusMeters || c.GeofenceRadiusMeters > MaxGeofenceRadiusMeters {
		errs = append(errs, validator.ValidationError{Field: "geofence_radius_meters", Message: "geofence_radius_meters must be between 10 and 5000"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
