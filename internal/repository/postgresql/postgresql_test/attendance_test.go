package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(emp employee.Employee, status attendance.Status, ts time.Time) attendance.Record {
	return attendance.Record{
		CompanyID:        emp.CompanyID,
		EmployeeID:       emp.ID,
		EmployeeName:     emp.FullName,
		EmployeeUsername: emp.Username,
		Timestamp:        ts,
		Status:           status,
		Latitude:         ptr(21.0285),
		Longitude:        ptr(105.8542),
		IsLate:           ptr(false),
	}
}

func TestAttendanceRecordRepository_LatestAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comp := seedCompany(t, db, "Acme")
	emp := seedEmployee(t, db, comp.ID, "an", "AN234")

	hcm, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	repo := postgresql.NewAttendanceRecordRepository(db, hcm)

	latest, err := repo.GetLatestByEmployee(ctx, emp.ID, comp.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, hcm)
	in, err := repo.Create(ctx, newRecord(emp, attendance.StatusCheckIn, day))
	require.NoError(t, err)
	out, err := repo.Create(ctx, newRecord(emp, attendance.StatusCheckOut, day.Add(9*time.Hour)))
	require.NoError(t, err)
	manual := newRecord(emp, attendance.StatusCheckIn, day.AddDate(0, 0, 1))
	manual.IsManual = true
	_, err = repo.Create(ctx, manual)
	require.NoError(t, err)

	latest, err = repo.GetLatestByEmployee(ctx, emp.ID, comp.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.IsManual)
	assert.Equal(t, attendance.StatusCheckOut, attendance.NextAction(latest))

	got, err := repo.GetByID(ctx, in.ID, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, "an", got.EmployeeUsername)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 21.0285, *got.Latitude, 1e-9)

	// End date is inclusive in the configured timezone.
	sameDay, total, err := repo.List(ctx, attendance.RecordFilter{
		StartDate: ptr("2026-03-02"), EndDate: ptr("2026-03-02"), Page: 1, Limit: 20,
	}, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, sameDay, 2)
	assert.Equal(t, out.ID, sameDay[0].ID, "newest first")

	manualOnly, total, err := repo.List(ctx, attendance.RecordFilter{IsManual: ptr(true), Page: 1, Limit: 20}, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, manualOnly, 1)

	_, _, err = repo.List(ctx, attendance.RecordFilter{StartDate: ptr("02/03/2026"), Page: 1, Limit: 20}, comp.ID)
	assert.Error(t, err)
}

func TestAttendanceRecordRepository_LockEmployeeNeedsTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRecordRepository(db, time.UTC)

	assert.Error(t, repo.LockEmployee(ctx, "emp-1"))

	err := postgresql.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		return repo.LockEmployee(ctx, "emp-1")
	})
	assert.NoError(t, err)
}

func TestAttendanceRecordRepository_RollbackDiscardsRecord(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comp := seedCompany(t, db, "Acme")
	emp := seedEmployee(t, db, comp.ID, "an", "AN234")
	repo := postgresql.NewAttendanceRecordRepository(db, time.UTC)

	err := postgresql.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, newRecord(emp, attendance.StatusCheckIn, time.Now())); err != nil {
			return err
		}
		return attendance.ErrOutOfRange
	})
	assert.ErrorIs(t, err, attendance.ErrOutOfRange)

	latest, err := repo.GetLatestByEmployee(ctx, emp.ID, comp.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAttendanceRequestRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comp := seedCompany(t, db, "Acme")
	emp := seedEmployee(t, db, comp.ID, "an", "AN234")
	repo := postgresql.NewAttendanceRequestRepository(db)

	created, err := repo.Create(ctx, attendance.Request{
		CompanyID:    comp.ID,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Type:         attendance.StatusCheckIn,
		ClaimedAt:    time.Now().Add(-2 * time.Hour).UTC(),
		Reason:       "Điện thoại hết pin",
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.RequestStatusPending, created.Status)

	pending, total, err := repo.List(ctx, attendance.RequestFilter{Status: ptr("PENDING"), Page: 1, Limit: 20}, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pending, 1)

	now := time.Now().UTC()
	err = postgresql.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := repo.GetByIDForUpdate(ctx, created.ID, comp.ID)
		if err != nil {
			return err
		}
		locked.Status = attendance.RequestStatusRejected
		locked.ProcessedBy = ptr(uuid.NewString())
		locked.ProcessedAt = &now
		locked.Note = ptr("Không đủ bằng chứng")
		return repo.UpdateProcessed(ctx, locked)
	})
	require.NoError(t, err)

	processed, err := repo.GetByID(ctx, created.ID, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.RequestStatusRejected, processed.Status)
	require.NotNil(t, processed.Note)
	assert.Equal(t, "Không đủ bằng chứng", *processed.Note)

	// A resolved request cannot be resolved again.
	processed.Status = attendance.RequestStatusApproved
	err = repo.UpdateProcessed(ctx, processed)
	assert.ErrorIs(t, err, attendance.ErrInvalidRequestState)
}
