package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalibrationRun is an archived record of one calibration request.
type CalibrationRun struct {
	ID                   string    `gorm:"primaryKey"`
	CreatedAt            time.Time `gorm:"index"`
	Lambda               float64
	Beta                 float64
	Gamma                float64
	Eta                  float64
	Mu                   float64
	EventCount           int
	SampleCount          int
	IntervalMinutes      int
	InterEventGapMinutes int
	IntraEventGapMinutes int
}

// BeforeCreate assigns the run ID
func (r *CalibrationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TableName sets the table name for calibration runs
func (CalibrationRun) TableName() string {
	return "calibration_runs"
}

// DisaggregationJob is an archived record of one disaggregation request.
type DisaggregationJob struct {
	ID                  string    `gorm:"primaryKey"`
	CreatedAt           time.Time `gorm:"index"`
	CoarseSamples       int
	FineIntervalMinutes int
	TotalRainfallMM     float64
	Seeded              bool
}

// BeforeCreate assigns the job ID
func (j *DisaggregationJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// TableName sets the table name for disaggregation jobs
func (DisaggregationJob) TableName() string {
	return "disaggregation_jobs"
}
