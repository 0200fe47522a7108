package bgthrust

import (
	"errors"
	"math"
	"strings"
)

// Body defines a celestial body which vessels orbit.
// All units are SI: meters, seconds, m^3/s^2.
type Body struct {
	Name           string
	Radius         float64
	μ              float64
	RotationPeriod float64 // sidereal, zero for a non rotating body
	tilt           float64 // axial tilt in radians
	SOI            float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (b Body) GM() float64 {
	return b.μ
}

// String implements the Stringer interface.
func (b Body) String() string {
	return b.Name + " body"
}

// Equals returns whether the provided body is the same.
func (b Body) Equals(o Body) bool {
	return b.Name == o.Name && b.Radius == o.Radius && b.μ == o.μ && b.SOI == o.SOI
}

// RotationAxis returns the unit vector of the rotation axis in the inertial frame.
func (b Body) RotationAxis() []float64 {
	return MxV33(R1(-b.tilt), []float64{0, 0, 1})
}

// AngularVelocity returns the rotation vector of the body in rad/s.
func (b Body) AngularVelocity() []float64 {
	if b.RotationPeriod == 0 {
		return []float64{0, 0, 0}
	}
	return Scale(2*math.Pi/b.RotationPeriod, b.RotationAxis())
}

// SurfaceVelocity returns the velocity relative to the rotating surface frame.
func (b Body) SurfaceVelocity(R, V []float64) []float64 {
	return Sub(V, Cross(b.AngularVelocity(), R))
}

// NewBody returns a custom body.
func NewBody(name string, radius, μ, rotationPeriod, tiltDeg, soi float64) Body {
	return Body{name, radius, μ, rotationPeriod, tiltDeg * deg2rad, soi}
}

/* Definitions */

// Kerbin is the home planet.
var Kerbin = Body{"Kerbin", 600e3, 3.5316e12, 21549.425, 0, 84159286}

// Mun orbits Kerbin.
var Mun = Body{"Mun", 200e3, 6.5138398e10, 138984.38, 0, 2429559.1}

// Minmus orbits Kerbin.
var Minmus = Body{"Minmus", 60e3, 1.7658e9, 40400, 0, 2247428.4}

// Earth is void of any explanation.
var Earth = Body{"Earth", 6378136.3, 3.986004415e14, 86164.0905, 23.4393 * deg2rad, 924645438}

// BodyFromString returns the body of the given name (case insensitive).
func BodyFromString(name string) (Body, error) {
	switch strings.ToLower(name) {
	case "kerbin":
		return Kerbin, nil
	case "mun":
		return Mun, nil
	case "minmus":
		return Minmus, nil
	case "earth":
		return Earth, nil
	}
	return Body{}, errors.New("undefined body '" + name + "'")
}
