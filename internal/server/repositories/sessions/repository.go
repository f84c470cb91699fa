// Package sessions persists issued sessions keyed by the digest of their
// bearer token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorConflict when the token digest is taken.
	Create(ctx context.Context, s *models.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	// DeleteByTokenHash is idempotent. It reports whether a row was removed.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
