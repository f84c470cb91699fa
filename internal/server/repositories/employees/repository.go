// Package employees persists the employee directory and the per-employee
// verification state (failure counter, lock, one-time code replay marker).
package employees

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error)
	// GetByEmployeeIDForUpdate must be called inside a transaction; it holds
	// the row lock until commit so verification attempts for one employee
	// are serialized.
	GetByEmployeeIDForUpdate(ctx context.Context, employeeID string) (*models.Employee, error)
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	UpdateSecurity(ctx context.Context, id string, failedAttempts int, locked bool, lockedUntil *time.Time) error
	MarkVerified(ctx context.Context, id string, otpStep *int64) error
	Unlock(ctx context.Context, employeeID string) error
}
