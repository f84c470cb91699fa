package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdmin(t *testing.T) (*EmployeeAdminService, *fakeEmployeesRepo) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	emps := newFakeEmployees()
	return NewEmployeeAdminService(db, &fakeRepoManager{e: emps}), emps
}

func TestEmployeeAdmin_Add(t *testing.T) {
	svc, emps := newAdmin(t)

	e, err := svc.Add(context.Background(), NewEmployee{
		EmployeeID: "E200", FirstName: "Grace", LastName: "Hopper",
		Email: "grace@corp.example", BirthYear: 1906, PointsBalance: 100,
	})
	require.NoError(t, err)

	stored := emps.get("E200")
	assert.Equal(t, e.ID, stored.ID)
	assert.True(t, stored.IsNewUser)
	assert.NotEmpty(t, stored.OTPSecret)
	assert.True(t, auth.CheckBirthYear(stored.BirthYearHash, 1906))
	assert.Equal(t, int64(100), stored.PointsBalance)
}

func TestEmployeeAdmin_AddValidation(t *testing.T) {
	svc, _ := newAdmin(t)

	tests := map[string]NewEmployee{
		"missing id":  {FirstName: "G", LastName: "H", BirthYear: 1906},
		"bad email":   {EmployeeID: "E1", FirstName: "G", LastName: "H", Email: "nope", BirthYear: 1906},
		"year range":  {EmployeeID: "E1", FirstName: "G", LastName: "H", BirthYear: 1066},
		"neg balance": {EmployeeID: "E1", FirstName: "G", LastName: "H", BirthYear: 1906, PointsBalance: -1},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestEmployeeAdmin_AddDuplicate(t *testing.T) {
	svc, _ := newAdmin(t)
	in := NewEmployee{EmployeeID: "E1", FirstName: "G", LastName: "H", BirthYear: 1906}

	_, err := svc.Add(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), in)
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestEmployeeAdmin_Unlock(t *testing.T) {
	svc, emps := newAdmin(t)
	_, err := svc.Add(context.Background(), NewEmployee{EmployeeID: "E1", FirstName: "G", LastName: "H", BirthYear: 1906})
	require.NoError(t, err)
	emps.rows["E1"].Locked = true
	emps.rows["E1"].FailedAttempts = 2

	require.NoError(t, svc.Unlock(context.Background(), "E1"))
	assert.False(t, emps.get("E1").Locked)
	assert.Zero(t, emps.get("E1").FailedAttempts)

	assert.ErrorIs(t, svc.Unlock(context.Background(), "ghost"), common.ErrorNotFound)
}
