package models

import "time"

// Employee is a row of the employee directory together with its
// verification state.
type Employee struct {
	ID             string
	EmployeeID     string
	FirstName      string
	LastName       string
	Email          string
	BirthYearHash  []byte
	OTPSecret      string
	OTPLastStep    int64
	FailedAttempts int
	Locked         bool
	LockedUntil    *time.Time
	PointsBalance  int64
	IsNewUser      bool
	CreatedAt      time.Time
}

// Profile returns the public part of the employee record.
func (e *Employee) Profile() EmployeeProfile {
	return EmployeeProfile{
		EmployeeID:    e.EmployeeID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		PointsBalance: e.PointsBalance,
		IsNewUser:     e.IsNewUser,
	}
}

// EmployeeProfile is what callers outside the credential layer may see.
type EmployeeProfile struct {
	EmployeeID    string
	FirstName     string
	LastName      string
	PointsBalance int64
	IsNewUser     bool
}
