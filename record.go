package bgthrust

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gonum.org/v1/gonum/num/quat"
)

var json = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Record is the persisted form of a heading provider: a type name plus its fields.
type Record struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values,omitempty"`
}

// StateRecord is the persisted form of a VesselThrustState.
type StateRecord struct {
	VesselID       string  `json:"vessel"`
	LastUpdateTime float64 `json:"last_update_time"`
	LastUpdateMass float64 `json:"last_update_mass"`
	Throttle       float64 `json:"throttle"`
	Heading        *Record `json:"heading,omitempty"`
}

type headingCodec struct {
	save func(p *HeadingProvider, values map[string]string)
	load func(values map[string]string, p *HeadingProvider) error
}

func saveRotation(p *HeadingProvider, values map[string]string) {
	values["rotation"] = formatQuat(p.Rotation)
}

func loadRotation(values map[string]string, p *HeadingProvider) error {
	q, err := parseQuat(values["rotation"])
	if err != nil {
		return err
	}
	p.Rotation = q
	return nil
}

func saveTarget(p *HeadingProvider, values map[string]string) {
	if p.TargetID != "" {
		values["target"] = p.TargetID
	}
}

func loadTarget(values map[string]string, p *HeadingProvider) error {
	p.TargetID = values["target"]
	return nil
}

// headingRegistry maps every persisted name to its codec.
var headingRegistry = func() map[string]headingCodec {
	reg := make(map[string]headingCodec, headingKinds)
	for k := HeadingKind(0); k < headingKinds; k++ {
		var c headingCodec
		switch {
		case k == HeadingFixed || k == HeadingCurrent:
			c = headingCodec{saveRotation, loadRotation}
		case k.needsTarget():
			c = headingCodec{saveTarget, loadTarget}
		}
		reg[k.String()] = c
	}
	return reg
}()

// SaveHeading returns the record of p, nil for no provider.
func SaveHeading(p *HeadingProvider) *Record {
	if p == nil {
		return nil
	}
	rec := &Record{Name: p.Kind.String(), Values: make(map[string]string)}
	if c, ok := headingRegistry[rec.Name]; ok && c.save != nil {
		c.save(p, rec.Values)
	}
	if len(rec.Values) == 0 {
		rec.Values = nil
	}
	return rec
}

// LoadHeading rebuilds a provider from its record, resolving any target through r.
// A nil record yields no provider and no error. On error no provider is returned.
func LoadHeading(rec *Record, r TargetResolver) (*HeadingProvider, error) {
	if rec == nil {
		return nil, nil
	}
	if rec.Name == "" {
		return nil, ErrMissingName
	}
	kind, err := HeadingKindFromString(rec.Name)
	if err != nil {
		return nil, err
	}
	c := headingRegistry[kind.String()]
	p := NewHeadingProvider(kind)
	if c.load != nil {
		values := rec.Values
		if values == nil {
			values = map[string]string{}
		}
		if err := c.load(values, p); err != nil {
			return nil, fmt.Errorf("loading %s: %w", rec.Name, err)
		}
	}
	if err := p.install(r); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalRecord encodes a record as JSON.
func MarshalRecord(rec *Record) ([]byte, error) {
	return json.Marshal(rec)
}

// UnmarshalRecord decodes a record from JSON.
func UnmarshalRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedValue, err)
	}
	return &rec, nil
}

// Save returns the persisted form of this state.
func (s *VesselThrustState) Save() StateRecord {
	return StateRecord{
		VesselID:       s.vessel.ID(),
		LastUpdateTime: s.LastUpdateTime,
		LastUpdateMass: s.LastUpdateMass,
		Throttle:       s.throttle,
		Heading:        SaveHeading(s.heading),
	}
}

// Restore loads a persisted state. A heading which cannot be loaded leaves no
// active provider and no throttle, and is reported as an error.
func (s *VesselThrustState) Restore(rec StateRecord, ut float64) error {
	s.LastUpdateTime = rec.LastUpdateTime
	s.LastUpdateMass = rec.LastUpdateMass
	s.initialized = rec.LastUpdateTime != 0
	p, err := LoadHeading(rec.Heading, s.resolver)
	if err != nil {
		s.SetThrottle(0, ut)
	} else {
		s.SetThrottle(rec.Throttle, ut)
	}
	s.SetTargetHeading(p, ut)
	return err
}

func formatFloats(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %q needs %d components", ErrMalformedValue, s, n)
	}
	vs := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedValue, err)
		}
		vs[i] = v
	}
	return vs, nil
}

func formatQuat(q quat.Number) string {
	return formatFloats(q.Real, q.Imag, q.Jmag, q.Kmag)
}

func parseQuat(s string) (quat.Number, error) {
	vs, err := parseFloats(s, 4)
	if err != nil {
		return quat.Number{}, err
	}
	return quat.Number{Real: vs[0], Imag: vs[1], Jmag: vs[2], Kmag: vs[3]}, nil
}
