// Package transform holds the coordinate frame conversions used by the tracker.
//
// Two Earth models live side by side here. GeodeticToECEF and AERToECEF use a spherical Earth of radius MeanEarthRadius,
// while the SGP4 look-angle path (ObserverPosition, ECEFToLookAngles,
// ECEFToGeodetic) uses the WGS-84 ellipsoid.
//
// TEME → ECEF uses a GMST-only rotation (TEME → PEF ≈ ECEF), ignoring polar
// motion and the equation of equinoxes. The error is tens of meters, well below
// what a ground station needs for pointing or Doppler.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3–4.
package transform

import (
	"math"
	"time"
)

// PositionTEME is a position/velocity in the TEME frame as produced by SGP4.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF is a position/velocity in the Earth-fixed frame.
type PositionECEF struct {
	X, Y, Z    float64 // m
	VX, VY, VZ float64 // m/s
}

// Position returns the position part as an ECEFPoint.
func (p PositionECEF) Position() ECEFPoint {
	return ECEFPoint{X: p.X, Y: p.Y, Z: p.Z}
}

// TEMEToECEF rotates a TEME state (km, km/s) into ECEF (m, m/s) at UTC time t.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST is TEMEToECEF with a precomputed GMST angle in radians.
//
//	r_ECEF = R3(θ)·r_TEME
//	v_ECEF = R3(θ)·v_TEME − ω × r_ECEF
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	c, s := math.Cos(gmst), math.Sin(gmst)

	x := teme.X*c + teme.Y*s
	y := -teme.X*s + teme.Y*c
	z := teme.Z

	// ω × r = [-ω·y, ω·x, 0]
	vx := teme.VX*c + teme.VY*s + OmegaEarth*y
	vy := -teme.VX*s + teme.VY*c - OmegaEarth*x
	vz := teme.VZ

	return PositionECEF{
		X: x * 1000.0, Y: y * 1000.0, Z: z * 1000.0,
		VX: vx * 1000.0, VY: vy * 1000.0, VZ: vz * 1000.0,
	}
}

// ValidateECEF reports whether pos is finite and at a plausible orbital radius
// (6200 km to 50000 km from the Earth's center).
func ValidateECEF(pos PositionECEF) bool {
	for _, v := range []float64{pos.X, pos.Y, pos.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	const (
		minRadius = 6200.0e3
		maxRadius = 50000.0e3
	)
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	return mag >= minRadius && mag <= maxRadius
}
