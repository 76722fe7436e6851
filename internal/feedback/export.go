package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"peerprep/interview/internal/models"
)

// trainingExample is one supervised-tuning record: the prompt and the reply a candidate liked.
type trainingExample struct {
	Contents []trainingContent `json:"contents"`
}

type trainingContent struct {
	Role  string         `json:"role"`
	Parts []trainingPart `json:"parts"`
}

type trainingPart struct {
	Text string `json:"text"`
}

// Unexported returns ratings not yet written to an export, oldest first. limit <= 0 means all.
func (m *Manager) Unexported(ctx context.Context, limit int) ([]models.HintFeedback, error) {
	var records []models.HintFeedback
	q := m.db.WithContext(ctx).Where("exported = ?", false).Order("feedback_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load unexported feedback: %w", err)
	}
	return records, nil
}

func (m *Manager) MarkExported(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	err := m.db.WithContext(ctx).Model(&models.HintFeedback{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"exported": true, "exported_at": &now}).Error
	if err != nil {
		return fmt.Errorf("failed to mark feedback exported: %w", err)
	}
	return nil
}

// ExportJSONL renders positive ratings as newline-delimited tuning examples.
// Negative ratings and canned fallback replies are skipped. It returns the data
// and the number of examples.
func ExportJSONL(records []models.HintFeedback) ([]byte, int, error) {
	var buf bytes.Buffer
	n := 0
	for _, r := range records {
		if !r.IsPositive || r.ModelVersion == models.FallbackModel {
			continue
		}
		line, err := json.Marshal(trainingExample{Contents: []trainingContent{
			{Role: "user", Parts: []trainingPart{{Text: r.Prompt}}},
			{Role: "model", Parts: []trainingPart{{Text: r.Response}}},
		}})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal training example: %w", err)
		}
		if n > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
		n++
	}
	return buf.Bytes(), n, nil
}
