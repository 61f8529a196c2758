package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// sezToECEF returns the rotation taking a South-East-Zenith vector at the
// given geodetic latitude/longitude (radians) into ECEF axes.
func sezToECEF(lat, lon float64) *mat.Dense {
	sLat, cLat := math.Sin(lat), math.Cos(lat)
	sLon, cLon := math.Sin(lon), math.Cos(lon)

	return mat.NewDense(3, 3, []float64{
		sLat * cLon, -sLon, cLat * cLon,
		sLat * sLon, cLon, cLat * sLon,
		-cLat, 0, sLat,
	})
}

// AERToECEF converts a topocentric observation (azimuth and elevation in
// degrees, slant range in meters) made from the given observer position into
// the target's ECEF position. The observer site comes from GeodeticToECEF, so
// the result carries the spherical-Earth approximation.
//
// Any azimuth/elevation is accepted. A negative range yields the point
// mirrored through the observer.
func AERToECEF(azDeg, elDeg, rangeM, obsLatDeg, obsLonDeg, obsAltM float64) ECEFPoint {
	site := GeodeticToECEF(obsLatDeg, obsLonDeg, obsAltM)

	az := azDeg * deg2rad
	el := elDeg * deg2rad
	sez := mat.NewVecDense(3, []float64{
		-rangeM * math.Cos(el) * math.Cos(az),
		rangeM * math.Cos(el) * math.Sin(az),
		rangeM * math.Sin(el),
	})

	var rel mat.VecDense
	rel.MulVec(sezToECEF(obsLatDeg*deg2rad, obsLonDeg*deg2rad), sez)

	return ECEFPoint{
		X: rel.AtVec(0) + site.X,
		Y: rel.AtVec(1) + site.Y,
		Z: rel.AtVec(2) + site.Z,
	}
}

// ObserverPosition holds a ground observer on the WGS-84 ellipsoid in both
// geodetic and ECEF form. The ECEF part is computed once and reused for every
// look-angle query.
type ObserverPosition struct {
	LatRad, LonRad, AltM float64
	ECEFx, ECEFy, ECEFz  float64 // meters
}

// LookAngles holds azimuth, elevation, and slant range from observer to target.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise, [0, 360)
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeM       float64
}

// NewObserverPosition builds an ObserverPosition from latitude/longitude in
// degrees and altitude in meters above the WGS-84 ellipsoid.
func NewObserverPosition(latDeg, lonDeg, altM float64) ObserverPosition {
	lat := latDeg * deg2rad
	lon := lonDeg * deg2rad

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverPosition{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEFx:  (n + altM) * cosLat * math.Cos(lon),
		ECEFy:  (n + altM) * cosLat * math.Sin(lon),
		ECEFz:  (n*(1-wgs84E2) + altM) * sinLat,
	}
}

// GeodeticPoint is a geodetic position: degrees and meters above WGS-84.
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts ECEF meters to WGS-84 geodetic coordinates using
// Bowring's iteration. Five iterations are more than enough for orbital radii.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat / deg2rad,
		LonDeg: lon / deg2rad,
		AltM:   alt,
	}
}

// rangeVector returns the observer → target vector in ECEF meters.
func (obs ObserverPosition) rangeVector(x, y, z float64) []float64 {
	return []float64{x - obs.ECEFx, y - obs.ECEFy, z - obs.ECEFz}
}

// ECEFToLookAngles computes azimuth, elevation and range from obs to a target
// at ECEF (x, y, z) meters, via the SEZ frame (Vallado §4.4).
func ECEFToLookAngles(obs ObserverPosition, x, y, z float64) LookAngles {
	r := obs.rangeVector(x, y, z)

	// ECEF → SEZ is the transpose of sezToECEF.
	var sez mat.VecDense
	sez.MulVec(sezToECEF(obs.LatRad, obs.LonRad).T(), mat.NewVecDense(3, r))
	south, east, zenith := sez.AtVec(0), sez.AtVec(1), sez.AtVec(2)

	rng := floats.Norm(r, 2)
	if rng == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	el := math.Asin(zenith / rng)

	// North is -South, so az = atan2(east, -south).
	az := math.Atan2(east, -south)

	return LookAngles{
		AzimuthDeg:   azimuthDeg(az),
		ElevationDeg: el / deg2rad,
		RangeM:       rng,
	}
}

// azimuthDeg converts an azimuth in radians to degrees in [0, 360). The
// wrap is done after conversion since az just under 2π rounds to 360.
func azimuthDeg(az float64) float64 {
	d := math.Mod(az/deg2rad, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}

// RangeRate returns the rate of change of the observer → target distance in
// m/s. Positive means the target is receding. The observer is fixed in ECEF,
// so only the target velocity contributes.
func RangeRate(obs ObserverPosition, pos PositionECEF) float64 {
	r := obs.rangeVector(pos.X, pos.Y, pos.Z)
	rng := floats.Norm(r, 2)
	if rng == 0 {
		return 0
	}
	return floats.Dot(r, []float64{pos.VX, pos.VY, pos.VZ}) / rng
}
