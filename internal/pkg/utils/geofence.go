package utils

// DefaultGeofenceRadiusMeters applies when a site has no radius configured.
const DefaultGeofenceRadiusMeters = 100.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Site is anything with a position and a geofence radius.
type Site struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// EffectiveRadius returns the site's radius or the default when unset.
func (s Site) EffectiveRadius() float64 {
	if s.RadiusMeters <= 0 {
		return DefaultGeofenceRadiusMeters
	}
	return s.RadiusMeters
}

// IsWithinGeofence reports whether the guard position lies inside the circle of
// radiusMeters around the checkpoint. The boundary counts as inside. A
// non-positive radius falls back to DefaultGeofenceRadiusMeters.
func IsWithinGeofence(guardLat, guardLng, checkpointLat, checkpointLng, radiusMeters float64) (bool, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultGeofenceRadiusMeters
	}
	d, err := HaversineDistance(guardLat, guardLng, checkpointLat, checkpointLng)
	if err != nil {
		return false, err
	}
	return d <= radiusMeters, nil
}

// Nearest is the result of FindNearest.
type Nearest struct {
	Site           Site
	DistanceMeters float64
}

// FindNearest scans sites in order and returns the closest one. Ties keep the
// earliest site. ok is false when sites is empty.
func FindNearest(origin Point, sites []Site) (nearest Nearest, ok bool, err error) {
	for _, s := range sites {
		d, err := HaversineDistance(origin.Latitude, origin.Longitude, s.Latitude, s.Longitude)
		if err != nil {
			return Nearest{}, false, err
		}
		if !ok || d < nearest.DistanceMeters {
			nearest = Nearest{Site: s, DistanceMeters: d}
			ok = true
		}
	}
	return nearest, ok, nil
}
