package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"solarops-backend/models"
)

// TrackingEntry describes one status change to record.
type TrackingEntry struct {
	JobID          uuid.UUID
	PreviousStatus *string
	NewStatus      string
	Reason         string
	Comments       string
	ChangedBy      *uuid.UUID // nil marks a system transition
	At             time.Time
}

// StatusTracker appends rows to the job status ledger. It never rejects a
// transition; callers validate before appending.
type StatusTracker struct{}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// CreateTracking inserts the next row of the job's ledger on tx.
func (s *StatusTracker) CreateTracking(tx *gorm.DB, e TrackingEntry) (*models.JobStatusTracking, error) {
	var last struct{ Max int }
	if err := tx.Model(&models.JobStatusTracking{}).
		Select("COALESCE(MAX(sequence), 0) AS max").
		Where("job_id = ?", e.JobID).
		Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("read tracking sequence: %w", err)
	}

	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	row := &models.JobStatusTracking{
		JobID:           e.JobID,
		Sequence:        last.Max + 1,
		PreviousStatus:  e.PreviousStatus,
		NewStatus:       e.NewStatus,
		Reason:          e.Reason,
		Comments:        e.Comments,
		ChangedBy:       e.ChangedBy,
		SystemGenerated: e.ChangedBy == nil,
		CreatedAt:       at,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("insert tracking: %w", err)
	}
	return row, nil
}

// GetHistory returns the job's ledger newest first.
func (s *StatusTracker) GetHistory(db *gorm.DB, jobID uuid.UUID) ([]models.JobStatusTracking, error) {
	var rows []models.JobStatusTracking
	if err := db.Where("job_id = ?", jobID).Order("sequence DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rows, nil
}

// Latest returns the newest ledger row, or gorm.ErrRecordNotFound.
func (s *StatusTracker) Latest(db *gorm.DB, jobID uuid.UUID) (*models.JobStatusTracking, error) {
	var row models.JobStatusTracking
	if err := db.Where("job_id = ?", jobID).Order("sequence DESC").First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// HistoryForJobs loads the ledgers of several jobs in one query, grouped by job
// and ordered newest first.
func (s *StatusTracker) HistoryForJobs(db *gorm.DB, jobIDs []uuid.UUID) (map[uuid.UUID][]models.JobStatusTracking, error) {
	out := make(map[uuid.UUID][]models.JobStatusTracking, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	var rows []models.JobStatusTracking
	if err := db.Where("job_id IN ?", jobIDs).Order("job_id, sequence DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}
	for _, r := range rows {
		out[r.JobID] = append(out[r.JobID], r)
	}
	return out, nil
}
