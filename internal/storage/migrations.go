package storage

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"peerprep/interview/internal/models"
)

// Migrate runs all schema migrations using gormigrate.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_hint_feedback",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.HintFeedback{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("hint_feedbacks")
			},
		},
		{
			ID: "002_session_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.SessionRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("session_records")
			},
		},
		{
			ID: "003_hint_feedback_export",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.HintFeedback{})
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Migrator().DropColumn(&models.HintFeedback{}, "exported_at"); err != nil {
					return err
				}
				return tx.Migrator().DropColumn(&models.HintFeedback{}, "exported")
			},
		},
	})
	return m.Migrate()
}
