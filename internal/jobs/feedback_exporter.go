package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"peerprep/interview/internal/feedback"
)

// FeedbackExporterJob periodically writes liked interviewer replies to JSONL tuning files.
type FeedbackExporterJob struct {
	manager *feedback.Manager
	config  ExporterConfig
	cron    *cron.Cron
	logger  *zap.Logger
	now     func() time.Time
}

type ExporterConfig struct {
	Schedule  string // cron spec, e.g. "0 2 * * *"
	ExportDir string
	Enabled   bool
	BatchSize int // 0 exports everything pending
}

func NewFeedbackExporterJob(manager *feedback.Manager, config ExporterConfig, logger *zap.Logger) *FeedbackExporterJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackExporterJob{
		manager: manager,
		config:  config,
		cron:    cron.New(),
		logger:  logger,
		now:     time.Now,
	}
}

func (j *FeedbackExporterJob) Start() error {
	if !j.config.Enabled || j.manager == nil {
		j.logger.Info("feedback export disabled, skipping scheduler")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if _, err := j.RunExport(context.Background()); err != nil {
			j.logger.Error("feedback export failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("feedback exporter started", zap.String("schedule", j.config.Schedule))
	return nil
}

func (j *FeedbackExporterJob) Stop() {
	<-j.cron.Stop().Done()
}

// RunExport performs one export. It returns the written file path, or "" when
// there was nothing positive to write. Every pending record is marked exported
// either way so negative ratings are not reconsidered.
func (j *FeedbackExporterJob) RunExport(ctx context.Context) (string, error) {
	pending, err := j.manager.Unexported(ctx, j.config.BatchSize)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		j.logger.Debug("no unexported feedback")
		return "", nil
	}

	data, positive, err := feedback.ExportJSONL(pending)
	if err != nil {
		return "", err
	}

	ids := make([]uint, len(pending))
	for i, fb := range pending {
		ids[i] = fb.ID
	}

	if positive == 0 {
		j.logger.Info("no positive feedback to export", zap.Int("pending", len(pending)))
		return "", j.manager.MarkExported(ctx, ids)
	}

	if err := os.MkdirAll(j.config.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("feedback_export_%s.jsonl", j.now().UTC().Format("20060102_150405"))
	path := filepath.Join(j.config.ExportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	if err := j.manager.MarkExported(ctx, ids); err != nil {
		return path, err
	}

	j.logger.Info("exported feedback",
		zap.String("file", path),
		zap.Int("examples", positive),
		zap.Int("records", len(pending)))
	return path, nil
}
