// Package geo implements the client-side spatial computations the product is
// built around: great-circle distances between outlets, catchment membership
// and overlap detection. Everything here is pure; malformed coordinates
// degrade to sentinel values instead of errors so callers never need to
// wrap calls in error handling.
package geo

import (
	"math"
	"sort"

	"github.com/OutletRadar/outlet-api/models"
)

// DefaultCatchmentRadiusKm is the fixed radius used to decide whether two
// outlets' service areas overlap.
const DefaultCatchmentRadiusKm = 5.0

const earthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// OutletCoordinate extracts an outlet's coordinate pair. Outlets with
// missing or unparseable components yield an invalid coordinate.
func OutletCoordinate(o models.Outlet) Coordinate {
	return Coordinate{
		Latitude:  float64(o.Latitude),
		Longitude: float64(o.Longitude),
	}
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. If either coordinate is invalid it returns +Inf,
// signalling "incomparable" without ever failing.
func DistanceKm(a, b Coordinate) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}

	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180)*
			math.Cos(b.Latitude*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius returns the candidates whose distance from center is at most
// radiusKm (boundary inclusive). The center outlet is excluded by id, so a
// distinct outlet sharing its exact coordinates is still included. Input
// order is preserved; sorting is a separate step.
func WithinRadius(center models.Outlet, candidates []models.Outlet, radiusKm float64) []models.Outlet {
	if !center.HasCoordinates() {
		return nil
	}

	origin := OutletCoordinate(center)
	var within []models.Outlet
	for _, candidate := range candidates {
		if candidate.ID == center.ID {
			continue
		}
		if !candidate.HasCoordinates() {
			continue
		}
		if DistanceKm(origin, OutletCoordinate(candidate)) <= radiusKm {
			within = append(within, candidate)
		}
	}
	return within
}

// RankedOutlet pairs an outlet with its distance from a reference point.
type RankedOutlet struct {
	Outlet     models.Outlet `json:"outlet"`
	DistanceKm float64       `json:"distance_km"`
}

// SortByDistance ranks outlets by ascending distance from origin. Outlets
// with invalid coordinates are dropped first. Equidistant outlets keep
// their input order; no secondary key is applied.
func SortByDistance(outlets []models.Outlet, origin Coordinate) []RankedOutlet {
	if !origin.Valid() {
		return nil
	}

	ranked := make([]RankedOutlet, 0, len(outlets))
	for _, o := range outlets {
		if !o.HasCoordinates() {
			continue
		}
		ranked = append(ranked, RankedOutlet{
			Outlet:     o,
			DistanceKm: DistanceKm(origin, OutletCoordinate(o)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked
}

// HasOverlap reports whether any other outlet lies within the given
// catchment radius, flagging locations whose service areas intersect.
func HasOverlap(outlet models.Outlet, all []models.Outlet, radiusKm float64) bool {
	return len(WithinRadius(outlet, all, radiusKm)) > 0
}
