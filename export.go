package bgthrust

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// CgCatalog is a Cosmographia catalog, listing one trajectory per vessel.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string        `json:"class"`
	Name            string        `json:"name"`
	StartTime       string        `json:"startTime"`
	EndTime         string        `json:"endTime"`
	Center          string        `json:"center"`
	TrajectoryFrame string        `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory `json:"trajectory,omitempty"`
	Label           *CgLabel      `json:"label,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgInterpolatedState is one line of an xyzv file, in km and km/s.
type CgInterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// FromText parses the seven fields of a record.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("%w: %d fields instead of 7", ErrMalformedValue, len(record))
	}
	vals := make([]float64, 7)
	for j, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedValue, err)
		}
		vals[j] = v
	}
	i.JD = vals[0]
	i.Position = vals[1:4]
	i.Velocity = vals[4:7]
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the states of an xyzv file.
func ParseInterpolatedStates(r io.Reader) ([]*CgInterpolatedState, error) {
	var states []*CgInterpolatedState
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return states, nil
		}
		if err != nil {
			return states, err
		}
		var state CgInterpolatedState
		if err := state.FromText(record); err != nil {
			return states, err
		}
		states = append(states, &state)
	}
}

// ExportConfig configures the exporting of a flight.
type ExportConfig struct {
	Dir       string
	Filename  string
	Cosmo     bool    // xyzv trajectories and their catalog
	AsCSV     bool    // orbital elements and thrust state
	Timestamp bool    // stamp the file names with the wall time
	Every     float64 // minimum UT between two exported points of a vessel
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.Cosmo && !c.AsCSV
}

// TraceState is the exported state of one vessel at one UT.
type TraceState struct {
	VesselID string
	UT       float64
	DT       time.Time
	Body     Body
	R, V     []float64
	Fuel     float64
	Throttle float64
	Heading  string

	a, e, i, Ω, ω, ν float64
}

// NewTraceState captures a vessel of a flight. DT is the wall time matching ut.
func NewTraceState(v *SimVessel, s *VesselThrustState, ut float64, dt time.Time) TraceState {
	o := v.Orbit()
	R, V := o.StateAtUT(ut)
	st := TraceState{VesselID: v.ID(), UT: ut, DT: dt, Body: o.Body, R: R, V: V, Fuel: v.FuelMass, Heading: "none"}
	st.a, st.e, st.i, st.Ω, st.ω, st.ν = NewOrbitFromRV(R, V, ut, o.Body).Elements()
	if s != nil {
		st.Throttle = s.Throttle()
		st.Heading = s.Heading().String()
	}
	return st
}

// trace holds the open files of one vessel.
type trace struct {
	xyzv, csv   *os.File
	xyzvW, csvW *bufio.Writer
	item        *CgItems
	last        *TraceState
}

func (c ExportConfig) path(kind, vessel, ext string) string {
	name := fmt.Sprintf("%s-%s-%s", kind, c.Filename, vessel)
	if c.Timestamp {
		name += "-" + time.Now().UTC().Format("2006-01-02T15.04.05")
	}
	return filepath.Join(c.Dir, name+"."+ext)
}

func (c ExportConfig) open(st TraceState) (*trace, error) {
	tr := &trace{}
	if c.Cosmo {
		path := c.path("prop", st.VesselID, "xyzv")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		tr.xyzv, tr.xyzvW = f, bufio.NewWriter(f)
		fmt.Fprintf(tr.xyzvW, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a Julian date
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now().UTC(), st.DT.UTC())
		tr.item = &CgItems{
			Class:           "spacecraft",
			Name:            st.VesselID,
			StartTime:       st.DT.UTC().String(),
			Center:          st.Body.Name,
			TrajectoryFrame: "ICRF",
			Trajectory:      &CgTrajectory{Type: "InterpolatedStates", Source: filepath.Base(path)},
			Label:           &CgLabel{Color: []float64{0.6, 1, 1}, FadeSize: 1000000, ShowText: true},
		}
	}
	if c.AsCSV {
		f, err := os.Create(c.path("orbital-elements", st.VesselID, "csv"))
		if err != nil {
			tr.close(st.DT)
			return nil, err
		}
		tr.csv, tr.csvW = f, bufio.NewWriter(f)
		fmt.Fprintf(tr.csvW, `# Creation date (UTC): %s
# Records are a, e, i, Ω, ω, ν. All angles are in degrees.
#   Simulation time start (UTC): %s
time,ut,a,e,i,Omega,omega,nu,fuel,throttle,heading`, time.Now().UTC(), st.DT.UTC())
	}
	return tr, nil
}

func (tr *trace) write(st TraceState) error {
	tr.last = &st
	if tr.xyzvW != nil {
		asTxt := CgInterpolatedState{JD: julian.TimeToJD(st.DT), Position: Scale(1e-3, st.R), Velocity: Scale(1e-3, st.V)}
		if _, err := tr.xyzvW.WriteString("\n" + asTxt.ToText()); err != nil {
			return err
		}
	}
	if tr.csvW != nil {
		asTxt := fmt.Sprintf("%s,%.3f,%.3f,%.6f,%.3f,%.3f,%.3f,%.3f,%.3f,%.3f,%s", st.DT.UTC().Format("2006-01-02 15:04:05"), st.UT, st.a, st.e, Rad2deg(st.i), Rad2deg(st.Ω), Rad2deg(st.ω), Rad2deg(st.ν), st.Fuel, st.Throttle, st.Heading)
		if _, err := tr.csvW.WriteString("\n" + asTxt); err != nil {
			return err
		}
	}
	return nil
}

func (tr *trace) close(end time.Time) error {
	var errs []error
	for _, f := range []struct {
		w *bufio.Writer
		f *os.File
	}{{tr.xyzvW, tr.xyzv}, {tr.csvW, tr.csv}} {
		if f.f == nil {
			continue
		}
		fmt.Fprintf(f.w, "\n# Simulation time end (UTC): %s\n", end.UTC())
		errs = append(errs, f.w.Flush(), f.f.Close())
	}
	if tr.item != nil {
		tr.item.EndTime = end.UTC().String()
	}
	return errors.Join(errs...)
}

// StreamStates writes the states read from the channel until it is closed, one
// set of files per vessel, then writes the Cosmographia catalog if requested.
func StreamStates(conf ExportConfig, states <-chan TraceState) error {
	traces := make(map[string]*trace)
	var order []string
	var errs []error
	for st := range states {
		tr, ok := traces[st.VesselID]
		if !ok {
			var err error
			if tr, err = conf.open(st); err != nil {
				errs = append(errs, err)
				continue
			}
			traces[st.VesselID] = tr
			order = append(order, st.VesselID)
		} else if tr.last != nil && st.UT-tr.last.UT < conf.Every {
			continue
		}
		if err := tr.write(st); err != nil {
			errs = append(errs, err)
		}
	}

	catalog := CgCatalog{Version: "1.0", Name: conf.Filename}
	for _, id := range order {
		tr := traces[id]
		end := time.Now()
		if tr.last != nil {
			end = tr.last.DT
		}
		errs = append(errs, tr.close(end))
		if tr.item != nil {
			catalog.Items = append(catalog.Items, tr.item)
		}
	}
	if conf.Cosmo && len(catalog.Items) > 0 {
		data, err := json.Marshal(catalog)
		if err == nil {
			err = os.WriteFile(filepath.Join(conf.Dir, fmt.Sprintf("catalog-%s.json", conf.Filename)), data, 0o644)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
