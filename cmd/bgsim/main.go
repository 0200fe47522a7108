package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"

	"github.com/Phantomical/bgthrust"
	"github.com/Phantomical/bgthrust/store"
	"github.com/Phantomical/bgthrust/telemetry"
)

// This code effectively only reads the scenario file and flies the vessel.

const (
	defaultScenario = "~~unset~~"
)

var (
	scenario string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "simulation scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "really verbose (esp. for configuration)")
}

func main() {
	flag.Parse()
	// Load scenario
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("./%s.toml: Error %s", scenario, err)
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "scenario", scenario)

	settings, err := bgthrust.LoadSettings(viper.GetString("mission.config"))
	if err != nil {
		log.Fatalf("settings: %s", err)
	}
	if verbose {
		log.Printf("[conf] settings: %s\n", settings)
	}

	// Read mission parameters, UT counts seconds from the start date.
	startDT := confReadJDEorTime("mission.start")
	endDT := confReadJDEorTime("mission.end")
	timeStep := viper.GetDuration("mission.step")
	if timeStep <= 0 {
		timeStep = 10 * time.Second
	}
	toUT := func(dt time.Time) float64 { return dt.Sub(startDT).Seconds() }
	if verbose {
		log.Printf("[conf] time step: %s\n", timeStep)
	}

	// Read orbit
	centralBodyName := viper.GetString("orbit.body")
	centralBody, err := bgthrust.BodyFromString(centralBodyName)
	if err != nil {
		log.Fatalf("could not understand body `%s`: %s", centralBodyName, err)
	}
	a := viper.GetFloat64("orbit.sma")
	e := viper.GetFloat64("orbit.ecc")
	i := viper.GetFloat64("orbit.inc")
	Ω := viper.GetFloat64("orbit.RAAN")
	ω := viper.GetFloat64("orbit.argPeri")
	ν := viper.GetFloat64("orbit.tAnomaly")
	scOrbit := bgthrust.NewOrbitFromOE(a, e, i, Ω, ω, ν, 0, centralBody)

	// Read vessel
	engine, err := confReadEngine()
	if err != nil {
		log.Fatal(err)
	}
	vessel := bgthrust.NewSimVessel(viper.GetString("vessel.name"), scOrbit, viper.GetFloat64("vessel.dry"), viper.GetFloat64("vessel.fuel"), engine)
	vessel.IsActive = true
	if vessel.Name == "" {
		vessel.Name = "vessel"
	}

	// Read control
	mode, err := bgthrust.AutopilotModeFromString(viper.GetString("control.mode"))
	if err != nil && viper.IsSet("control.mode") {
		log.Fatal(err)
	}
	display, err := bgthrust.SpeedDisplayFromString(viper.GetString("control.display"))
	if err != nil {
		log.Fatal(err)
	}
	vessel.Ctrl = bgthrust.ControlState{SASEnabled: viper.GetBool("control.sas"), Mode: mode, Display: display}

	// Maneuvers
	for burnNo := 0; viper.IsSet(fmt.Sprintf("burns.%d", burnNo)); burnNo++ {
		burnDT := confReadJDEorTime(fmt.Sprintf("burns.%d.date", burnNo))
		V := viper.GetFloat64(fmt.Sprintf("burns.%d.V", burnNo))
		N := viper.GetFloat64(fmt.Sprintf("burns.%d.N", burnNo))
		C := viper.GetFloat64(fmt.Sprintf("burns.%d.C", burnNo))
		node := bgthrust.NewManeuverNode(scOrbit, toUT(burnDT), V, N, C)
		vessel.AddManeuver(node)
		if burnDT.After(endDT) || burnDT.Before(startDT) {
			log.Printf("[WARNING] burn scheduled out of propagation time")
		} else if verbose {
			log.Printf("added: %s", node)
		}
	}

	// Hohmann transfer to a circular orbit
	if viper.IsSet("transfer.radius") {
		transferDT := confReadJDEorTime("transfer.date")
		dep, arr := bgthrust.PlanHohmann(scOrbit, toUT(transferDT), viper.GetFloat64("transfer.radius"))
		vessel.AddManeuver(dep)
		vessel.AddManeuver(arr)
		if verbose {
			log.Printf("added transfer: %s then %s", dep, arr)
		}
	}

	info, err := confReadInfoProvider()
	if err != nil {
		log.Fatal(err)
	}
	driver, err := bgthrust.NewDriver(settings, info, bgthrust.DefaultSelector(), logger)
	if err != nil {
		log.Fatal(err)
	}
	defer driver.Close()
	flight := bgthrust.NewFlight(driver, 0, toUT(endDT), timeStep.Seconds(), logger, vessel)

	// Representation phases
	for phaseNo := 0; viper.IsSet(fmt.Sprintf("phases.%d", phaseNo)); phaseNo++ {
		phaseDT := confReadJDEorTime(fmt.Sprintf("phases.%d.date", phaseNo))
		rep, err := bgthrust.RepresentationFromString(viper.GetString(fmt.Sprintf("phases.%d.representation", phaseNo)))
		if err != nil {
			log.Fatal(err)
		}
		flight.Phases = append(flight.Phases, bgthrust.Phase{UT: toUT(phaseDT), Representation: rep})
	}

	ctx := context.Background()
	var observers []bgthrust.Observer
	if viper.IsSet("telemetry") {
		sink, err := telemetry.NewSink(ctx, telemetry.Config{
			URL:        viper.GetString("telemetry.url"),
			Token:      viper.GetString("telemetry.token"),
			Org:        viper.GetString("telemetry.org"),
			Bucket:     viper.GetString("telemetry.bucket"),
			BackupPath: viper.GetString("telemetry.backup"),
		}, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer sink.Close()
		dv := make(map[string]float64)
		driver.Handle(func(e bgthrust.Event) {
			if e.Kind == bgthrust.Integrated {
				dv[e.VesselID] += e.DeltaV
			}
		})
		observers = append(observers, func(v *bgthrust.SimVessel, s *bgthrust.VesselThrustState, ut float64) {
			sample := telemetry.Sample{
				VesselID:       v.Name,
				UT:             ut,
				Time:           startDT.Add(time.Duration(ut * float64(time.Second))),
				Mass:           v.Mass(),
				Throttle:       s.Throttle(),
				DeltaV:         dv[v.Name],
				Provider:       s.Heading().String(),
				Representation: v.Rep.String(),
			}
			dv[v.Name] = 0
			if err := sink.Write(ctx, sample); err != nil {
				logger.Log("level", "error", "subsys", "telemetry", "err", err)
			}
		})
	}

	exportConf := bgthrust.ExportConfig{
		Dir:       viper.GetString("export.dir"),
		Filename:  viper.GetString("export.filename"),
		Cosmo:     viper.GetBool("export.cosmo"),
		AsCSV:     viper.GetBool("export.csv"),
		Timestamp: viper.GetBool("export.timestamp"),
		Every:     viper.GetDuration("export.every").Seconds(),
	}
	if exportConf.Filename == "" {
		exportConf.Filename = scenario
	}
	var exported chan error
	var traces chan bgthrust.TraceState
	if !exportConf.IsUseless() {
		traces = make(chan bgthrust.TraceState, 64)
		exported = make(chan error, 1)
		go func() {
			exported <- bgthrust.StreamStates(exportConf, traces)
		}()
		observers = append(observers, func(v *bgthrust.SimVessel, s *bgthrust.VesselThrustState, ut float64) {
			traces <- bgthrust.NewTraceState(v, s, ut, startDT.Add(time.Duration(ut*float64(time.Second))))
		})
	}
	if len(observers) > 0 {
		flight.Observer = func(v *bgthrust.SimVessel, s *bgthrust.VesselThrustState, ut float64) {
			for _, o := range observers {
				o(v, s, ut)
			}
		}
	}

	var db *store.Store
	if viper.IsSet("store.dsn") {
		db, err = store.Open(viper.GetString("store.dsn"), logger)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		recs, err := db.LoadStates(ctx)
		if err != nil {
			logger.Log("level", "warning", "subsys", "store", "err", err)
		}
		if err := driver.Restore(recs, 0); err != nil {
			logger.Log("level", "warning", "subsys", "store", "err", err)
		}
	}

	driver.SetThrottle(vessel.Name, viper.GetFloat64("control.throttle"), 0)
	flight.Run()

	if traces != nil {
		close(traces)
		if err := <-exported; err != nil {
			logger.Log("level", "error", "subsys", "export", "err", err)
		}
	}

	if db != nil {
		if err := db.SaveStates(ctx, driver.Save()); err != nil {
			log.Fatal(err)
		}
	}
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		dt = viper.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}

func confReadEngine() (bgthrust.Engine, error) {
	switch name := strings.ToLower(viper.GetString("vessel.engine")); name {
	case "terrier":
		return new(bgthrust.Terrier), nil
	case "nerv":
		return new(bgthrust.Nerv), nil
	case "dawn":
		return new(bgthrust.Dawn), nil
	case "", "generic":
		return bgthrust.NewGenericEngine(viper.GetFloat64("vessel.thrust"), viper.GetFloat64("vessel.isp")), nil
	default:
		return nil, fmt.Errorf("unknown engine `%s`", name)
	}
}

func confReadInfoProvider() (bgthrust.VesselInfoProvider, error) {
	switch name := strings.ToLower(viper.GetString("mission.info")); name {
	case "", "background":
		return bgthrust.NewBackgroundInfoProvider(), nil
	case "resources":
		return bgthrust.NewResourceListInfoProvider(), nil
	case "stock":
		return bgthrust.StockInfoProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown info provider `%s`", name)
	}
}
