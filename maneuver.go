package bgthrust

import "fmt"

// ManeuverNode is a planned burn: the orbit the vessel should be on right after UT.
type ManeuverNode struct {
	UT    float64
	Patch *Orbit
}

// NewManeuverNode plans a burn on the given orbit at ut, with the delta-v components
// in the velocity-normal-co-normal frame at that time (m/s).
func NewManeuverNode(o *Orbit, ut, prograde, normal, radial float64) *ManeuverNode {
	Δv := Add(Add(Scale(prograde, o.ProgradeAtUT(ut)), Scale(normal, o.NormalAtUT(ut))), Scale(radial, o.RadialOutAtUT(ut)))
	patch := o.Copy()
	patch.Perturb(Δv, ut)
	return &ManeuverNode{UT: ut, Patch: patch}
}

// BurnVector returns the remaining burn, i.e. the planned velocity minus the
// velocity the provided orbit has at the node.
func (n *ManeuverNode) BurnVector(o *Orbit) []float64 {
	return Sub(n.Patch.VelocityAtUT(n.UT), o.VelocityAtUT(n.UT))
}

func (n *ManeuverNode) String() string {
	return fmt.Sprintf("node@%.3f -> %s", n.UT, n.Patch)
}
