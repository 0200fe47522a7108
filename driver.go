package bgthrust

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Phantomical/bgthrust"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Driver owns the thrust state of every tracked vessel and dispatches host events to them.
type Driver struct {
	states   map[string]*VesselThrustState
	pending  map[string]StateRecord // restored before the vessel was tracked
	targets  map[string]*Targetable
	handlers []EventHandler
	selector HeadingSelector
	info     VesselInfoProvider
	settings Settings
	logger   kitlog.Logger

	ticks, integrations, cutoffs, completed metric.Int64Counter
	tracked                                 metric.Int64ObservableGauge
	registration                            metric.Registration
	count                                   atomic.Int64 // len(states), read by the meter callback
}

// NewDriver returns a driver using the provided background info provider and heading selector.
// Nil values default to the stock provider, DefaultSelector and a nop logger.
func NewDriver(settings Settings, info VesselInfoProvider, selector HeadingSelector, logger kitlog.Logger) (*Driver, error) {
	if info == nil {
		info = StockInfoProvider{}
	}
	if selector == nil {
		selector = DefaultSelector()
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	d := &Driver{
		states:   make(map[string]*VesselThrustState),
		pending:  make(map[string]StateRecord),
		targets:  make(map[string]*Targetable),
		selector: selector,
		info:     info,
		settings: settings,
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()
	var err error
	if d.ticks, err = m.Int64Counter("bgthrust.ticks", metric.WithDescription("Vessel ticks processed")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if d.integrations, err = m.Int64Counter("bgthrust.integrations", metric.WithDescription("Thrust steps applied to orbits")); err != nil {
		return nil, fmt.Errorf("creating integrations counter: %w", err)
	}
	if d.cutoffs, err = m.Int64Counter("bgthrust.cutoffs", metric.WithDescription("Thrust cutoffs")); err != nil {
		return nil, fmt.Errorf("creating cutoffs counter: %w", err)
	}
	if d.completed, err = m.Int64Counter("bgthrust.maneuvers.completed", metric.WithDescription("Maneuvers completed in the background")); err != nil {
		return nil, fmt.Errorf("creating maneuvers counter: %w", err)
	}
	if d.tracked, err = m.Int64ObservableGauge("bgthrust.vessels.tracked", metric.WithDescription("Vessels tracked by the driver")); err != nil {
		return nil, fmt.Errorf("creating tracked gauge: %w", err)
	}
	if d.registration, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		o.ObserveInt64(d.tracked, d.count.Load())
		return nil
	}, d.tracked); err != nil {
		return nil, fmt.Errorf("registering tracked callback: %w", err)
	}
	return d, nil
}

// Close unregisters the metrics of this driver.
func (d *Driver) Close() error {
	return d.registration.Unregister()
}

// Handle registers an event handler. Handlers are called in registration order.
func (d *Driver) Handle(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

// Settings returns the settings of this driver.
func (d *Driver) Settings() Settings {
	return d.settings
}

func (d *Driver) dispatch(e Event) {
	ctx := context.Background()
	switch e.Kind {
	case Integrated:
		d.integrations.Add(ctx, 1)
	case Cutoff:
		d.cutoffs.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", e.Reason)))
	case ManeuverComplete:
		d.completed.Add(ctx, 1)
	}
	for _, h := range d.handlers {
		h(e)
	}
}

// Track starts managing v, returning its state. Tracking a vessel twice returns the same state.
func (d *Driver) Track(v Vessel) *VesselThrustState {
	if s, ok := d.states[v.ID()]; ok {
		return s
	}
	s := NewVesselThrustState(v, d.info, d.settings, d.logger)
	s.resolver = d
	s.handler = d.dispatch
	d.states[v.ID()] = s
	d.count.Add(1)
	if rec, ok := d.pending[v.ID()]; ok {
		delete(d.pending, v.ID())
		if err := s.Restore(rec, rec.LastUpdateTime); err != nil {
			d.logger.Log("level", "warning", "subsys", "driver", "vessel", v.ID(), "err", err)
		}
	}
	d.logger.Log("level", "info", "subsys", "driver", "vessel", v.ID(), "status", "tracked")
	return s
}

// Untrack forgets a vessel.
func (d *Driver) Untrack(id string) {
	if _, ok := d.states[id]; ok {
		delete(d.states, id)
		d.count.Add(-1)
	}
}

// State returns the state of a tracked vessel.
func (d *Driver) State(id string) (*VesselThrustState, bool) {
	s, ok := d.states[id]
	return s, ok
}

// Vessels returns the sorted IDs of the tracked vessels.
func (d *Driver) Vessels() []string {
	ids := make([]string, 0, len(d.states))
	for id := range d.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tick advances every tracked vessel to ut, in ID order.
func (d *Driver) Tick(ut float64) {
	for _, id := range d.Vessels() {
		d.states[id].Tick(ut)
		d.ticks.Add(context.Background(), 1)
	}
}

// SetThrottle sets the throttle of a vessel.
func (d *Driver) SetThrottle(id string, throttle, ut float64) {
	if s, ok := d.states[id]; ok {
		s.SetThrottle(throttle, ut)
	}
}

// AdjustThrottle changes the throttle of a time compressed vessel by delta.
func (d *Driver) AdjustThrottle(id string, delta, ut float64) {
	s, ok := d.states[id]
	if !ok || s.vessel.Representation() == Simulated {
		return
	}
	s.SetThrottle(s.throttle+delta, ut)
}

// SetTargetHeading replaces the heading of a vessel.
func (d *Driver) SetTargetHeading(id string, p *HeadingProvider, ut float64) {
	if s, ok := d.states[id]; ok {
		s.SetTargetHeading(p, ut)
	}
}

func (d *Driver) reselect(s *VesselThrustState, ut float64) {
	s.SetTargetHeading(d.selector.SelectHeading(s), ut)
}

// OnGoOnRails selects the heading of a vessel which enters time compression.
func (d *Driver) OnGoOnRails(id string, ut float64) {
	if s, ok := d.states[id]; ok {
		d.reselect(s, ut)
	}
}

// OnGoOffRails hands the vessel back to the host physics.
func (d *Driver) OnGoOffRails(id string, ut float64) {
	if s, ok := d.states[id]; ok {
		s.SetTargetHeading(nil, ut)
	}
}

// OnAutopilotModeChanged re-selects the heading of a time compressed vessel.
func (d *Driver) OnAutopilotModeChanged(id string, from, to AutopilotMode, ut float64) {
	s, ok := d.states[id]
	if !ok || from == to || s.vessel.Representation() == Simulated {
		return
	}
	d.reselect(s, ut)
}

// OnManeuverChanged re-selects the heading when the vessel holds maneuver mode.
func (d *Driver) OnManeuverChanged(id string, ut float64) {
	s, ok := d.states[id]
	if !ok || s.vessel.Representation() == Simulated {
		return
	}
	if ctrl := s.vessel.Control(); ctrl.SASEnabled && ctrl.Mode == ManeuverMode {
		d.reselect(s, ut)
	}
}

// OnVesselLoaded invalidates the cached values of an unloaded vessel.
func (d *Driver) OnVesselLoaded(id string) {
	if s, ok := d.states[id]; ok {
		s.Invalidate()
	}
}

// OnVesselDestroyed forgets a vessel, both as a thrust state and as a target.
func (d *Driver) OnVesselDestroyed(id string) {
	d.Untrack(id)
	delete(d.targets, id)
	d.logger.Log("level", "info", "subsys", "driver", "vessel", id, "status", "destroyed")
}

// RegisterTarget makes a target resolvable by its ID.
func (d *Driver) RegisterTarget(t *Targetable) {
	d.targets[t.ID] = t
}

// LookupTarget returns the target of the given ID or ErrUnresolvedTarget.
func (d *Driver) LookupTarget(id string) (*Targetable, error) {
	if t, ok := d.targets[id]; ok {
		return t, nil
	}
	if s, ok := d.states[id]; ok {
		return &Targetable{ID: id, Orbit: s.vessel.Orbit()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolvedTarget, id)
}

// ResolveTarget implements the TargetResolver interface.
func (d *Driver) ResolveTarget(id string) (*Targetable, bool) {
	t, err := d.LookupTarget(id)
	if err != nil {
		d.logger.Log("level", "warning", "subsys", "driver", "err", err)
		return nil, false
	}
	return t, true
}

// Save returns the records of every tracked vessel, in ID order.
func (d *Driver) Save() []StateRecord {
	recs := make([]StateRecord, 0, len(d.states))
	for _, id := range d.Vessels() {
		recs = append(recs, d.states[id].Save())
	}
	return recs
}

// Restore applies saved records. Records of vessels not tracked yet are applied when they are.
func (d *Driver) Restore(recs []StateRecord, ut float64) error {
	var errs []error
	for _, rec := range recs {
		s, ok := d.states[rec.VesselID]
		if !ok {
			d.pending[rec.VesselID] = rec
			continue
		}
		if err := s.Restore(rec, ut); err != nil {
			errs = append(errs, fmt.Errorf("vessel %s: %w", rec.VesselID, err))
		}
	}
	return errors.Join(errs...)
}
