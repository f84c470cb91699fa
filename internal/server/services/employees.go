package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// NewEmployee is the operator input for enrolling an employee.
type NewEmployee struct {
	EmployeeID    string `validate:"required,max=64"`
	FirstName     string `validate:"required,max=128"`
	LastName      string `validate:"required,max=128"`
	Email         string `validate:"omitempty,email"`
	BirthYear     int    `validate:"required,min=1900,max=2100"`
	PointsBalance int64  `validate:"min=0"`
}

// EmployeeAdminService backs the operator commands of the server binary.
type EmployeeAdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
}

func NewEmployeeAdminService(db *sql.DB, m repomanager.RepositoryManager) *EmployeeAdminService {
	return &EmployeeAdminService{db: db, repomanager: m, validate: validator.New()}
}

// Add enrolls an employee, hashing the birth year and generating the
// one-time code secret.
func (s *EmployeeAdminService) Add(ctx context.Context, in NewEmployee) (*models.Employee, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	hash, err := auth.HashBirthYear(in.BirthYear)
	if err != nil {
		return nil, err
	}
	secret, err := auth.NewOTPSecret(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	e := &models.Employee{
		EmployeeID:    in.EmployeeID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		BirthYearHash: hash,
		OTPSecret:     secret,
		PointsBalance: in.PointsBalance,
	}

	created, err := s.repomanager.Employees(s.db).Create(ctx, e)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("employee %s already exists: %w", in.EmployeeID, err)
		}
		return nil, fmt.Errorf("error creating employee: %w", err)
	}
	return created, nil
}

// Unlock clears the lock and the failure counter of an employee.
func (s *EmployeeAdminService) Unlock(ctx context.Context, employeeID string) error {
	return s.repomanager.Employees(s.db).Unlock(ctx, employeeID)
}
