package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/checkin-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/checkin-backend-go/internal/service/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardPublisher struct{}

func (discardPublisher) Publish(sse.Event) {}

func TestRecord_ConcurrentScansAlternate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comp := seedCompany(t, db, "Acme")
	emp := seedEmployee(t, db, comp.ID, "an", "AN234")

	loc, err := postgresql.NewLocationRepository(db).Create(ctx, location.Location{
		CompanyID:    comp.ID,
		Name:         "Head office",
		Latitude:     21.0285,
		Longitude:    105.8542,
		RadiusMeters: 100,
	})
	require.NoError(t, err)
	qr, err := location.QRPayload{LocationID: loc.ID}.Encode()
	require.NoError(t, err)

	fileStorage, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	recordRepo := postgresql.NewAttendanceRecordRepository(db, time.UTC)
	svc := attendanceService.NewAttendanceService(
		postgresql.NewTransactor(db),
		recordRepo,
		postgresql.NewEmployeeRepository(db),
		postgresql.NewLocationRepository(db),
		postgresql.NewShiftRepository(db),
		file.NewFileService(fileStorage),
		nil,
		discardPublisher{},
		attendanceService.Options{},
	)

	empCtx := auth.WithPrincipal(ctx, auth.Principal{
		Kind:      auth.KindEmployee,
		ID:        emp.ID,
		CompanyID: comp.ID,
		Name:      emp.FullName,
		Username:  emp.Username,
	})
	scan := attendance.ScanRequest{
		QRPayload: qr,
		Latitude:  ptr(21.0285),
		Longitude: ptr(105.8542),
	}

	const rounds = 5
	for round := 0; round < rounds; round++ {
		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			statuses = make([]attendance.Status, 2)
			errs     = make([]error, 2)
		)
		for i := range statuses {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				resp, err := svc.Record(empCtx, scan)
				statuses[i], errs[i] = resp.Status, err
			}(i)
		}
		close(start)
		wg.Wait()

		require.NoError(t, errs[0], "round %d", round)
		require.NoError(t, errs[1], "round %d", round)
		assert.ElementsMatch(t, []attendance.Status{attendance.StatusCheckIn, attendance.StatusCheckOut}, statuses, "round %d", round)
	}

	records, total, err := recordRepo.List(ctx, attendance.RecordFilter{EmployeeID: &emp.ID, Page: 1, Limit: 100}, comp.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2*rounds), total)
	require.Len(t, records, 2*rounds)

	// newest first, so the history read backwards must alternate from CHECK_IN
	for i := range records {
		want := attendance.StatusCheckIn
		if i%2 == 1 {
			want = attendance.StatusCheckOut
		}
		got := records[len(records)-1-i]
		assert.Equal(t, want, got.Status, "record %d", i)
	}
}
