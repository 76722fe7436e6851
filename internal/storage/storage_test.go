package storage

import (
	"fmt"
	"testing"

	"peerprep/interview/internal/models"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	for _, model := range []any{&models.HintFeedback{}, &models.SessionRecord{}} {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}

	if !db.Migrator().HasColumn(&models.HintFeedback{}, "exported") {
		t.Fatalf("expected export bookkeeping columns on hint_feedbacks")
	}

	// running again is a no-op
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unknown driver to be rejected")
	}
}
