package employees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/dbx"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, employee_id, first_name, last_name, email, birth_year_hash,
		        otp_secret, otp_last_step, failed_attempts, locked, locked_until,
		        points_balance, is_new_user, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO employees (id, employee_id, first_name, last_name, email, birth_year_hash, otp_secret, points_balance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING is_new_user, created_at`

	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.EmployeeID, e.FirstName, e.LastName, e.Email, e.BirthYearHash, e.OTPSecret, e.PointsBalance,
	).Scan(&e.IsNewUser, &e.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

func (r *PostgresRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	query := `SELECT ` + selectColumns + `
		 FROM employees
		 WHERE employee_id = $1`
	return r.getOne(ctx, query, employeeID)
}

func (r *PostgresRepository) GetByEmployeeIDForUpdate(ctx context.Context, employeeID string) (*models.Employee, error) {
	query := `SELECT ` + selectColumns + `
		 FROM employees
		 WHERE employee_id = $1
		 FOR UPDATE`
	return r.getOne(ctx, query, employeeID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `SELECT ` + selectColumns + `
		 FROM employees
		 WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Employee, error) {
	e := &models.Employee{}
	var lockedUntil sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&e.ID, &e.EmployeeID, &e.FirstName, &e.LastName, &e.Email, &e.BirthYearHash,
		&e.OTPSecret, &e.OTPLastStep, &e.FailedAttempts, &e.Locked, &lockedUntil,
		&e.PointsBalance, &e.IsNewUser, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		t := lockedUntil.Time
		e.LockedUntil = &t
	}
	return e, nil
}

func (r *PostgresRepository) UpdateSecurity(ctx context.Context, id string, failedAttempts int, locked bool, lockedUntil *time.Time) error {
	query :=
		`UPDATE employees
		 SET failed_attempts = $2, locked = $3, locked_until = $4
		 WHERE id = $1`

	var until sql.NullTime
	if lockedUntil != nil {
		until = sql.NullTime{Time: *lockedUntil, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, id, failedAttempts, locked, until); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkVerified clears the failure state after a successful factor check and
// ends the employee's new-user period. A non-nil otpStep records the
// consumed one-time code step.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string, otpStep *int64) error {
	query :=
		`UPDATE employees
		 SET failed_attempts = 0, locked = FALSE, locked_until = NULL, is_new_user = FALSE,
		     otp_last_step = COALESCE($2, otp_last_step)
		 WHERE id = $1`

	var step sql.NullInt64
	if otpStep != nil {
		step = sql.NullInt64{Int64: *otpStep, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, id, step); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unlock(ctx context.Context, employeeID string) error {
	query :=
		`UPDATE employees
		 SET failed_attempts = 0, locked = FALSE, locked_until = NULL
		 WHERE employee_id = $1`

	res, err := r.db.ExecContext(ctx, query, employeeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
