package transform

import "math"

// MeanEarthRadius is the spherical Earth radius in meters used by
// GeodeticToECEF and AERToECEF.
const MeanEarthRadius = 6371000.0

const deg2rad = math.Pi / 180.0

// ECEFPoint is a position in the Earth-Centered Earth-Fixed frame, meters.
type ECEFPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the distance of p from the Earth's center.
func (p ECEFPoint) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// GeodeticToECEF converts latitude/longitude in degrees and altitude in meters
// to ECEF on a sphere of radius MeanEarthRadius. It is not a WGS-84 conversion;
// see NewObserverPosition for that.
func GeodeticToECEF(latDeg, lonDeg, altM float64) ECEFPoint {
	lat := latDeg * deg2rad
	lon := lonDeg * deg2rad
	r := MeanEarthRadius + altM

	return ECEFPoint{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}
