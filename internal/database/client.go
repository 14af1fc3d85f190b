// Package database provides optional archival of calibration runs and
// disaggregation jobs to Postgres.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lildrip/lildrip/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to the archival database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the archival database and migrates the run tables
func (c *Client) Connect() error {
	var err error

	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	config := &gorm.Config{
		Logger: dbLogger,
	}

	log.Info("connecting to archival database...")
	c.DB, err = gorm.Open(postgres.Open(c.connectionString), config)
	if err != nil {
		log.Warn("warning: unable to create an archival database connection:", err)
		return err
	}
	log.Info("archival database connection successful")

	if err := c.DB.AutoMigrate(&CalibrationRun{}, &DisaggregationJob{}); err != nil {
		return fmt.Errorf("failed to migrate archival tables: %w", err)
	}

	return nil
}

// SaveCalibrationRun records a completed calibration
func (c *Client) SaveCalibrationRun(run *CalibrationRun) error {
	if err := c.DB.Create(run).Error; err != nil {
		return fmt.Errorf("failed to save calibration run: %w", err)
	}
	c.logger.Debugf("archived calibration run %s (%d events)", run.ID, run.EventCount)
	return nil
}

// SaveDisaggregationJob records a completed disaggregation
func (c *Client) SaveDisaggregationJob(job *DisaggregationJob) error {
	if err := c.DB.Create(job).Error; err != nil {
		return fmt.Errorf("failed to save disaggregation job: %w", err)
	}
	c.logger.Debugf("archived disaggregation job %s (%d coarse samples)", job.ID, job.CoarseSamples)
	return nil
}

// RecentCalibrationRuns returns the most recent calibration runs, newest first
func (c *Client) RecentCalibrationRuns(limit int) ([]CalibrationRun, error) {
	var runs []CalibrationRun
	if err := c.DB.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error querying calibration runs: %w", err)
	}
	return runs, nil
}
