package history

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"peerprep/interview/internal/models"
)

var ErrNotFound = errors.New("session record not found")

// Repository persists summaries of finished interviews.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Save stores a record once per session; saving the same session again is a no-op.
func (r *Repository) Save(ctx context.Context, record *models.SessionRecord) error {
	var existing models.SessionRecord
	err := r.DB.WithContext(ctx).Where("session_id = ?", record.SessionID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up session record: %w", err)
	}
	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

func (r *Repository) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCandidate returns a candidate's interviews, most recent first.
func (r *Repository) ListByCandidate(ctx context.Context, candidate string, limit int) ([]models.SessionRecord, error) {
	records := []models.SessionRecord{}
	q := r.DB.WithContext(ctx).Where("candidate_name = ?", candidate).Order("ended_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}
