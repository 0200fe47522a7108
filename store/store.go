// Package store persists the background thrust state of vessels with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	kitlog "github.com/go-kit/kit/log"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Phantomical/bgthrust"
)

// memoryDSN is the shared in memory sqlite database.
const memoryDSN = "file::memory:?cache=shared"

// VesselRecord is one persisted VesselThrustState.
type VesselRecord struct {
	ID             string `gorm:"primaryKey"`
	LastUpdateTime float64
	LastUpdateMass float64
	Throttle       float64
	Heading        datatypes.JSON
}

// Store reads and writes vessel records.
type Store struct {
	DB     *gorm.DB
	logger kitlog.Logger
}

// Open connects to dsn and migrates the schema. DSNs starting with postgres:// or
// postgresql:// use Postgres, anything else is a sqlite path, "" being in memory.
func Open(dsn string, log kitlog.Logger) (*Store, error) {
	if log == nil {
		log = kitlog.NewNopLogger()
	}
	log = kitlog.With(log, "subsys", "store")
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
	var (
		db  *gorm.DB
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), cfg)
		log.Log("level", "info", "driver", "postgres")
	case dsn == "":
		db, err = gorm.Open(sqlite.Open(memoryDSN), cfg)
		log.Log("level", "info", "driver", "sqlite", "path", "memory")
	default:
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		log.Log("level", "info", "driver", "sqlite", "path", dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", dsn, err)
	}
	if err := db.AutoMigrate(&VesselRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{DB: db, logger: log}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(rec bgthrust.StateRecord) (VesselRecord, error) {
	vr := VesselRecord{
		ID:             rec.VesselID,
		LastUpdateTime: rec.LastUpdateTime,
		LastUpdateMass: rec.LastUpdateMass,
		Throttle:       rec.Throttle,
	}
	if rec.Heading != nil {
		data, err := bgthrust.MarshalRecord(rec.Heading)
		if err != nil {
			return vr, err
		}
		vr.Heading = datatypes.JSON(data)
	}
	return vr, nil
}

func fromRecord(vr VesselRecord) (bgthrust.StateRecord, error) {
	rec := bgthrust.StateRecord{
		VesselID:       vr.ID,
		LastUpdateTime: vr.LastUpdateTime,
		LastUpdateMass: vr.LastUpdateMass,
		Throttle:       vr.Throttle,
	}
	if len(vr.Heading) == 0 {
		return rec, nil
	}
	h, err := bgthrust.UnmarshalRecord(vr.Heading)
	if err != nil {
		return rec, fmt.Errorf("vessel %s: %w", vr.ID, err)
	}
	rec.Heading = h
	return rec, nil
}

// SaveStates upserts the given records.
func (s *Store) SaveStates(ctx context.Context, recs []bgthrust.StateRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]VesselRecord, 0, len(recs))
	for _, rec := range recs {
		vr, err := toRecord(rec)
		if err != nil {
			return fmt.Errorf("vessel %s: %w", rec.VesselID, err)
		}
		rows = append(rows, vr)
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_update_time", "last_update_mass", "throttle", "heading"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("saving %d states: %w", len(rows), err)
	}
	s.logger.Log("level", "info", "saved", len(rows))
	return nil
}

// LoadStates returns every record, ordered by vessel ID.
// Records with a malformed heading are returned without heading, with the errors joined.
func (s *Store) LoadStates(ctx context.Context) ([]bgthrust.StateRecord, error) {
	var rows []VesselRecord
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading states: %w", err)
	}
	recs := make([]bgthrust.StateRecord, 0, len(rows))
	var errs []error
	for _, row := range rows {
		rec, err := fromRecord(row)
		if err != nil {
			s.logger.Log("level", "warning", "vessel", row.ID, "err", err)
			errs = append(errs, err)
		}
		recs = append(recs, rec)
	}
	return recs, errors.Join(errs...)
}

// Delete removes the record of a vessel.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.DB.WithContext(ctx).Delete(&VesselRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	return nil
}
