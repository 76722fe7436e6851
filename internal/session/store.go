// Package session owns live interview state: where it is kept and how the
// candidate's actions move it forward.
package session

import (
	"context"
	"errors"

	"peerprep/interview/internal/models"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
	ErrConflict = errors.New("session was modified concurrently")
)

// Store keeps sessions by id. Implementations hand out copies; callers change a
// session only through Update, which applies fn atomically per session. When fn
// returns an error nothing is written.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Session, error)
}
