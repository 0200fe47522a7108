// Package telemetry records background burns as InfluxDB points.
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the name of every point written.
const Measurement = "bgthrust"

// Sample is the state of one vessel after one step.
type Sample struct {
	VesselID       string
	UT             float64
	Time           time.Time // wall clock time of UT
	Mass           float64
	Throttle       float64
	DeltaV         float64 // velocity change since the previous sample
	Provider       string
	Representation string
}

// Point converts a sample to an InfluxDB point.
func (s Sample) Point() *influxdb2_write.Point {
	tags := map[string]string{"vessel": s.VesselID}
	if s.Provider != "" {
		tags["provider"] = s.Provider
	}
	if s.Representation != "" {
		tags["representation"] = s.Representation
	}
	fields := map[string]interface{}{
		"ut":       s.UT,
		"mass":     s.Mass,
		"throttle": s.Throttle,
		"dv":       s.DeltaV,
	}
	return influxdb2_write.NewPoint(Measurement, tags, fields, s.Time)
}

// Sink receives samples.
type Sink interface {
	Write(ctx context.Context, s Sample) error
	Close() error
}

// LineSink writes line protocol to a writer.
type LineSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer []io.Closer // closed in order
}

// NewLineSink returns a sink writing to w, which is not closed by Close.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// NewBackupFile returns a sink appending gzipped line protocol to path.
func NewBackupFile(path string) (*LineSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating backup file: %w", err)
	}
	gz := gzip.NewWriter(file)
	return &LineSink{w: gz, closer: []io.Closer{gz, file}}, nil
}

// Write implements the Sink interface.
func (l *LineSink) Write(ctx context.Context, s Sample) error {
	line := influxdb2_write.PointToLineProtocol(s.Point(), time.Nanosecond)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, strings.TrimSuffix(line, "\n")+"\n"); err != nil {
		return fmt.Errorf("error writing line protocol: %w", err)
	}
	return nil
}

// Close implements the Sink interface.
func (l *LineSink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, c := range l.closer {
		errs = append(errs, c.Close())
	}
	l.closer = nil
	return errors.Join(errs...)
}

// Config is the InfluxDB connection of an InfluxSink.
type Config struct {
	URL, Token, Org, Bucket string
	// BackupPath receives line protocol when the server does not answer.
	BackupPath string
}

// InfluxSink writes points with the non blocking write API.
type InfluxSink struct {
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
}

// NewSink connects to InfluxDB, falling back to the backup file if the server does not answer a ping.
func NewSink(ctx context.Context, cfg Config, logger kitlog.Logger) (Sink, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "telemetry")
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000))
	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if cfg.BackupPath == "" {
			return nil, fmt.Errorf("influxdb at %s not running and no backup path: %v", cfg.URL, err)
		}
		logger.Log("level", "warning", "url", cfg.URL, "backup", cfg.BackupPath, "err", err)
		return NewBackupFile(cfg.BackupPath)
	}
	s := &InfluxSink{client: client, writer: client.WriteAPI(cfg.Org, cfg.Bucket)}
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			logger.Log("level", "error", "bucket", cfg.Bucket, "err", writeErr)
		}
	}(s.writer.Errors())
	logger.Log("level", "info", "url", cfg.URL, "bucket", cfg.Bucket, "status", "connected")
	return s, nil
}

// Write implements the Sink interface.
func (s *InfluxSink) Write(ctx context.Context, sample Sample) error {
	s.writer.WritePoint(sample.Point())
	return nil
}

// Close implements the Sink interface.
func (s *InfluxSink) Close() error {
	s.writer.Flush()
	s.client.Close()
	return nil
}
