package attendance

import (
	"github.com/patrolops/patrol-backend-go/internal/pkg/utils"
)

// VerifyAt checks origin against one site's geofence.
func VerifyAt(origin utils.Point, site utils.Site) (utils.Nearest, error) {
	inside, err := utils.IsWithinGeofence(origin.Latitude, origin.Longitude, site.Latitude, site.Longitude, site.EffectiveRadius())
	if err != nil {
		return utils.Nearest{}, err
	}

	d, err := utils.HaversineDistance(origin.Latitude, origin.Longitude, site.Latitude, site.Longitude)
	if err != nil {
		return utils.Nearest{}, err
	}

	n := utils.Nearest{Site: site, DistanceMeters: d}
	if !inside {
		return n, outsideError(n)
	}
	return n, nil
}

// SelectNearest picks the closest of sites and checks origin against its
// geofence. Sites further away are not considered even when the nearest one
// rejects the location.
func SelectNearest(origin utils.Point, sites []utils.Site) (utils.Nearest, error) {
	n, ok, err := utils.FindNearest(origin, sites)
	if err != nil {
		return utils.Nearest{}, err
	}
	if !ok {
		return utils.Nearest{}, ErrNoEligibleCheckpoint
	}

	if n.DistanceMeters > n.Site.EffectiveRadius() {
		return n, outsideError(n)
	}
	return n, nil
}

func outsideError(n utils.Nearest) *GeofenceError {
	return &GeofenceError{
		CheckpointID:   n.Site.ID,
		CheckpointName: n.Site.Name,
		DistanceMeters: n.DistanceMeters,
		RadiusMeters:   n.Site.EffectiveRadius(),
	}
}
