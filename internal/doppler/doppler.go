// Package doppler converts line-of-sight velocity into carrier frequency shift.
//
// The non-relativistic approximation Δf = -v/c · f is used. A receding target
// (positive range rate) is heard below its carrier; an approaching one above.
package doppler

// SpeedOfLight is the defined speed of light in vacuum, m/s.
const SpeedOfLight = 299792458.0

// DefaultCarrierHz is the 70 cm amateur-satellite downlink used when no
// carrier is configured.
const DefaultCarrierHz = 437505000.0

// Shift returns the Doppler shift in Hz observed on carrierHz for a target
// whose range changes at rangeRateMps.
func Shift(rangeRateMps, carrierHz float64) float64 {
	return -rangeRateMps / SpeedOfLight * carrierHz
}

// ObservedFrequency returns the frequency a receiver should tune to.
func ObservedFrequency(rangeRateMps, carrierHz float64) float64 {
	return carrierHz + Shift(rangeRateMps, carrierHz)
}
