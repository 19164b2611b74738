package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AngleUnit selects how the composer interprets record coordinates before
// handing them to the projector.
type AngleUnit uint8

const (
	// AngleLegacy passes the stored degree values straight to the projector,
	// which treats them as radians. Marker layouts tuned against the
	// historical scene depend on it.
	AngleLegacy AngleUnit = iota
	// AngleDegrees converts degrees to radians first.
	AngleDegrees
)

// radians converts v according to the unit.
func (u AngleUnit) radians(v float64) float64 {
	if u == AngleDegrees {
		return v * math.Pi / 180
	}
	return v
}

// String implements fmt.Stringer.
func (u AngleUnit) String() string {
	switch u {
	case AngleLegacy:
		return "legacy"
	case AngleDegrees:
		return "degrees"
	default:
		return "unknown"
	}
}

// ParseAngleUnit maps "legacy" and "degrees" to their AngleUnit. Anything
// else yields AngleLegacy and false.
func ParseAngleUnit(s string) (AngleUnit, bool) {
	switch s {
	case "legacy", "":
		return AngleLegacy, true
	case "degrees", "deg":
		return AngleDegrees, true
	default:
		return AngleLegacy, false
	}
}

// Projector maps geodetic coordinates onto a body centred at the origin.
// Flattening is the ellipsoid flattening coefficient; zero models a sphere.
type Projector struct {
	Flattening float64
}

// Project returns the Cartesian position of (lat, lon) at the given radius,
// raised by altitude. Angles are radians.
//
// The surface point uses the reduced latitude
//
//	ls = atan((1-f)^2 * tan(lat))
//
// while the altitude offset is applied along the un-reduced latitude. NaN
// inputs propagate to the result. At lat = ±π/2 tan overflows to a large
// finite value and atan brings it back to ±π/2.
func (p Projector) Project(lat, lon, radius, altitude float64) mgl64.Vec3 {
	k := (1 - p.Flattening) * (1 - p.Flattening)
	ls := math.Atan(k * math.Tan(lat))

	cosLs, sinLs := math.Cos(ls), math.Sin(ls)
	cosLat, sinLat := math.Cos(lat), math.Sin(lat)
	cosLon, sinLon := math.Cos(lon), math.Sin(lon)

	return mgl64.Vec3{
		radius*cosLs*cosLon + altitude*cosLat*cosLon,
		radius*cosLs*sinLon + altitude*cosLat*sinLon,
		radius*sinLs + altitude*sinLat,
	}
}

// Project is Projector{}.Project: a spherical body.
func Project(lat, lon, radius, altitude float64) mgl64.Vec3 {
	return Projector{}.Project(lat, lon, radius, altitude)
}
