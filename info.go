package bgthrust

import "math"

// VesselInfoProvider supplies the mass and thrust of a vessel which the host does not simulate.
type VesselInfoProvider interface {
	// VesselMass returns the mass (kg) at ut.
	VesselMass(s *VesselThrustState, ut float64) float64
	// VesselThrust returns the thrust magnitude (N) at ut.
	VesselThrust(s *VesselThrustState, ut float64) float64
	// AllowBackground returns whether this provider can be used for unloaded vessels.
	AllowBackground() bool
	// DisableOnZeroThrustInBackground returns whether an unloaded vessel with no
	// thrust should stop being processed until it is loaded again.
	DisableOnZeroThrustInBackground() bool
}

// StockInfoProvider reads everything live from the host. It cannot run in the background.
type StockInfoProvider struct{}

// VesselMass implements the VesselInfoProvider interface.
func (StockInfoProvider) VesselMass(s *VesselThrustState, ut float64) float64 {
	return s.vessel.Mass()
}

// VesselThrust implements the VesselInfoProvider interface.
func (StockInfoProvider) VesselThrust(s *VesselThrustState, ut float64) float64 {
	return s.vessel.MaxThrust() * s.throttle
}

// AllowBackground implements the VesselInfoProvider interface.
func (StockInfoProvider) AllowBackground() bool { return false }

// DisableOnZeroThrustInBackground implements the VesselInfoProvider interface.
func (StockInfoProvider) DisableOnZeroThrustInBackground() bool { return false }

// ResourceSnapshot is the state of a vessel captured when it was unloaded.
type ResourceSnapshot struct {
	LastUpdate float64 // UT of the snapshot
	DryMass    float64 // kg
	WetMass    float64 // kg of propellant at LastUpdate
	WetRate    float64 // kg/s, negative when consuming
	Thrust     float64 // N
}

// BackgroundInfoProvider models unloaded vessels with a constant propellant rate.
type BackgroundInfoProvider struct {
	Snapshots map[string]ResourceSnapshot
}

// NewBackgroundInfoProvider returns an empty snapshot table.
func NewBackgroundInfoProvider() *BackgroundInfoProvider {
	return &BackgroundInfoProvider{Snapshots: make(map[string]ResourceSnapshot)}
}

// Snapshot records the current state of a vessel.
func (b *BackgroundInfoProvider) Snapshot(id string, snap ResourceSnapshot) {
	b.Snapshots[id] = snap
}

// VesselMass implements the VesselInfoProvider interface.
func (b *BackgroundInfoProvider) VesselMass(s *VesselThrustState, ut float64) float64 {
	snap, ok := b.Snapshots[s.vessel.ID()]
	if !ok {
		return s.vessel.Mass()
	}
	wet := snap.WetMass + snap.WetRate*math.Max(ut-snap.LastUpdate, 0)
	return snap.DryMass + math.Max(wet, 0)
}

// VesselThrust implements the VesselInfoProvider interface.
func (b *BackgroundInfoProvider) VesselThrust(s *VesselThrustState, ut float64) float64 {
	snap, ok := b.Snapshots[s.vessel.ID()]
	if !ok {
		return 0
	}
	return snap.Thrust
}

// AllowBackground implements the VesselInfoProvider interface.
func (b *BackgroundInfoProvider) AllowBackground() bool { return true }

// DisableOnZeroThrustInBackground implements the VesselInfoProvider interface.
func (b *BackgroundInfoProvider) DisableOnZeroThrustInBackground() bool { return true }

// Resource is one propellant tank group of a vessel.
type Resource struct {
	Name     string
	Amount   float64 // units at the list's LastUpdate
	Capacity float64 // units
	Rate     float64 // average units/s, negative when consumed
	Density  float64 // kg/unit
}

// ResourceList is the per-resource state of one vessel.
type ResourceList struct {
	LastUpdate float64
	DryMass    float64
	Thrust     float64
	Resources  []Resource
}

// Mass returns the vessel mass at ut, with every resource clamped to its tank.
func (l ResourceList) Mass(ut float64) float64 {
	dt := math.Max(ut-l.LastUpdate, 0)
	m := l.DryMass
	for _, r := range l.Resources {
		amount := math.Min(math.Max(r.Amount+r.Rate*dt, 0), r.Capacity)
		m += amount * r.Density
	}
	return m
}

// ResourceListInfoProvider models unloaded vessels resource by resource.
// Resources may also be produced, so zero thrust does not disable the vessel.
type ResourceListInfoProvider struct {
	Lists map[string]ResourceList
}

// NewResourceListInfoProvider returns an empty table.
func NewResourceListInfoProvider() *ResourceListInfoProvider {
	return &ResourceListInfoProvider{Lists: make(map[string]ResourceList)}
}

// VesselMass implements the VesselInfoProvider interface.
func (r *ResourceListInfoProvider) VesselMass(s *VesselThrustState, ut float64) float64 {
	l, ok := r.Lists[s.vessel.ID()]
	if !ok {
		return s.vessel.Mass()
	}
	return l.Mass(ut)
}

// VesselThrust implements the VesselInfoProvider interface.
func (r *ResourceListInfoProvider) VesselThrust(s *VesselThrustState, ut float64) float64 {
	l, ok := r.Lists[s.vessel.ID()]
	if !ok {
		return 0
	}
	// Engines starve as soon as any consumed resource runs dry.
	for _, res := range l.Resources {
		if res.Rate < 0 && res.Amount+res.Rate*math.Max(ut-l.LastUpdate, 0) <= 0 {
			return 0
		}
	}
	return l.Thrust
}

// AllowBackground implements the VesselInfoProvider interface.
func (r *ResourceListInfoProvider) AllowBackground() bool { return true }

// DisableOnZeroThrustInBackground implements the VesselInfoProvider interface.
func (r *ResourceListInfoProvider) DisableOnZeroThrustInBackground() bool { return false }
