package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"peerprep/interview/internal/models"
)

var ErrContextNotFound = errors.New("request context not found or expired")

// Manager records candidate ratings of interviewer replies.
type Manager struct {
	db     *gorm.DB
	cache  *ContextCache
	logger *zap.Logger
}

func NewManager(db *gorm.DB, cacheTTL time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		db:     db,
		cache:  NewContextCache(cacheTTL),
		logger: logger,
	}
}

// Cache exposes the context cache so its cleanup loop can be run by the caller.
func (m *Manager) Cache() *ContextCache {
	return m.cache
}

// Remember caches a generated reply so a later rating can be tied to it.
func (m *Manager) Remember(rc *models.RequestContext) {
	if rc == nil || rc.RequestID == "" {
		return
	}
	m.cache.Set(rc.RequestID, rc)
	m.logger.Debug("stored request context",
		zap.String("request_id", rc.RequestID),
		zap.String("request_type", rc.RequestType))
}

// Submit persists a rating for a remembered reply. Each reply can be rated once.
func (m *Manager) Submit(ctx context.Context, requestID string, isPositive bool) error {
	rc, ok := m.cache.Take(requestID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrContextNotFound, requestID)
	}

	record := &models.HintFeedback{
		RequestID:    requestID,
		RequestType:  rc.RequestType,
		ProblemID:    rc.ProblemID,
		HintLevel:    rc.HintLevel,
		Prompt:       rc.Prompt,
		Response:     rc.Response,
		IsPositive:   isPositive,
		ModelVersion: rc.Model,
		FeedbackAt:   time.Now(),
	}
	if err := m.db.WithContext(ctx).Create(record).Error; err != nil {
		// put it back so the candidate can retry
		m.cache.Set(requestID, rc)
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	m.logger.Info("stored feedback",
		zap.String("request_id", requestID),
		zap.Bool("positive", isPositive),
		zap.String("request_type", rc.RequestType))
	return nil
}

// Stats counts stored ratings.
func (m *Manager) Stats(ctx context.Context) (models.FeedbackStats, error) {
	var stats models.FeedbackStats
	if err := m.db.WithContext(ctx).Model(&models.HintFeedback{}).Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count feedback: %w", err)
	}
	if err := m.db.WithContext(ctx).Model(&models.HintFeedback{}).Where("is_positive = ?", true).Count(&stats.Positive).Error; err != nil {
		return stats, fmt.Errorf("failed to count positive feedback: %w", err)
	}
	stats.Negative = stats.Total - stats.Positive
	return stats, nil
}
