package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/dbx"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/employees"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx declares one committed transaction.
func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func cheapYearHash(t *testing.T, year string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(year), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

// --- employees ---

type fakeEmployeesRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Employee // by employee_id

	getErr    error
	updateErr error
	markErr   error
	createErr error

	updates int
	marks   int
}

func newFakeEmployees(list ...*models.Employee) *fakeEmployeesRepo {
	f := &fakeEmployeesRepo{rows: map[string]*models.Employee{}}
	for _, e := range list {
		f.rows[e.EmployeeID] = e
	}
	return f
}

func (f *fakeEmployeesRepo) get(employeeID string) *models.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := *f.rows[employeeID]
	return &e
}

func (f *fakeEmployeesRepo) Create(_ context.Context, e *models.Employee) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.rows[e.EmployeeID]; ok {
		return nil, common.ErrorConflict
	}
	e.ID = "row-" + e.EmployeeID
	e.IsNewUser = true
	cp := *e
	f.rows[e.EmployeeID] = &cp
	return e, nil
}

func (f *fakeEmployeesRepo) GetByEmployeeID(_ context.Context, employeeID string) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.rows[employeeID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployeesRepo) GetByEmployeeIDForUpdate(ctx context.Context, employeeID string) (*models.Employee, error) {
	return f.GetByEmployeeID(ctx, employeeID)
}

func (f *fakeEmployeesRepo) GetByID(_ context.Context, id string) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, e := range f.rows {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeEmployeesRepo) byRowID(id string) *models.Employee {
	for _, e := range f.rows {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeEmployeesRepo) UpdateSecurity(_ context.Context, id string, failedAttempts int, locked bool, lockedUntil *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	e := f.byRowID(id)
	e.FailedAttempts, e.Locked, e.LockedUntil = failedAttempts, locked, lockedUntil
	return nil
}

func (f *fakeEmployeesRepo) MarkVerified(_ context.Context, id string, otpStep *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marks++
	e := f.byRowID(id)
	e.FailedAttempts, e.Locked, e.LockedUntil, e.IsNewUser = 0, false, nil, false
	if otpStep != nil {
		e.OTPLastStep = *otpStep
	}
	return nil
}

func (f *fakeEmployeesRepo) Unlock(_ context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[employeeID]
	if !ok {
		return common.ErrorNotFound
	}
	e.FailedAttempts, e.Locked, e.LockedUntil = 0, false, nil
	return nil
}

// --- sessions ---

type fakeSessionsRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.Session // by token hash
	create []error                    // consumed one per Create call
	err    error                      // returned by every other call
}

func newFakeSessions() *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]*models.Session{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.create) > 0 {
		err := f.create[0]
		f.create = f.create[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.rows[s.TokenHash]; ok {
		return common.ErrorConflict
	}
	s.ID = "s-" + s.TokenHash[:8]
	cp := *s
	// timestamptz keeps microseconds
	cp.ExpiresAt = cp.ExpiresAt.Truncate(time.Microsecond)
	f.rows[s.TokenHash] = &cp
	return nil
}

func (f *fakeSessionsRepo) FindByTokenHash(_ context.Context, tokenHash string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.rows[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionsRepo) DeleteByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.rows[tokenHash]
	delete(f.rows, tokenHash)
	return ok, nil
}

func (f *fakeSessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for k, s := range f.rows {
		if s.Expired(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// --- manager, mailer, recorder ---

type fakeRepoManager struct {
	e *fakeEmployeesRepo
	s *fakeSessionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Employees(dbx.DBTX) employees.Repository     { return m.e }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository       { return m.s }

type sentCode struct {
	to, code  string
	expiresAt time.Time
}

type fakeMailer struct {
	sent []sentCode
	err  error
}

func (m *fakeMailer) SendCode(_ context.Context, to, code string, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{to: to, code: code, expiresAt: expiresAt})
	return nil
}

func (m *fakeMailer) last() sentCode { return m.sent[len(m.sent)-1] }

type fakeRecorder struct {
	mu           sync.Mutex
	verification map[string]int
	issued       int
	invalidated  int
	purged       int64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{verification: map[string]int{}}
}

func (r *fakeRecorder) Verification(factor, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verification[factor+"/"+outcome]++
}
func (r *fakeRecorder) SessionIssued()         { r.mu.Lock(); r.issued++; r.mu.Unlock() }
func (r *fakeRecorder) SessionInvalidated()    { r.mu.Lock(); r.invalidated++; r.mu.Unlock() }
func (r *fakeRecorder) SessionsPurged(n int64) { r.mu.Lock(); r.purged += n; r.mu.Unlock() }
