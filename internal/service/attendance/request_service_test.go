package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitRequest(t *testing.T, h *harness, kind attendance.Status, claimedAt time.Time) attendance.RequestResponse {
	t.Helper()
	claimed := claimedAt.Format(time.RFC3339)
	resp, err := h.requests.Submit(employeeCtx(), attendance.SubmitRequestRequest{
		Type:      string(kind),
		ClaimedAt: &claimed,
		Reason:    "Phone battery died at the gate",
	})
	require.NoError(t, err)
	return resp
}

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	h := newHarness(t, Options{})

	claimed := h.clock.Add(-2 * time.Hour)
	resp := submitRequest(t, h, attendance.StatusCheckIn, claimed)

	assert.Equal(t, attendance.RequestStatusPending, resp.Status)
	assert.Equal(t, attendance.StatusCheckIn, resp.Type)
	assert.Equal(t, claimed.UnixMilli(), resp.ClaimedAt)
	assert.Equal(t, "Nguyễn Văn An", resp.EmployeeName)
	assert.Nil(t, resp.ProcessedAt)
	assert.Equal(t, 0, h.store.inserts)

	require.Equal(t, 1, h.publisher.count())
	assert.Equal(t, sse.EventRequestSubmitted, h.publisher.events[0].Event)
}

func TestSubmit_DefaultsClaimedTimeToNow(t *testing.T) {
	h := newHarness(t, Options{})

	resp, err := h.requests.Submit(employeeCtx(), attendance.SubmitRequestRequest{
		Type:   string(attendance.StatusCheckOut),
		Reason: "Forgot to scan",
	})
	require.NoError(t, err)
	assert.Equal(t, h.clock.UnixMilli(), resp.ClaimedAt)
}

func TestSubmit_RejectsFutureClaim(t *testing.T) {
	h := newHarness(t, Options{})
	future := h.clock.Add(time.Hour).Format(time.RFC3339)

	_, err := h.requests.Submit(employeeCtx(), attendance.SubmitRequestRequest{
		Type:      string(attendance.StatusCheckIn),
		ClaimedAt: &future,
		Reason:    "Tomorrow",
	})
	assert.ErrorIs(t, err, attendance.ErrFutureTimestamp)
	assert.Empty(t, h.store.requests)
}

func TestSubmit_ValidatesInput(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.requests.Submit(employeeCtx(), attendance.SubmitRequestRequest{Type: "BREAK"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	assert.True(t, fields["type"])
	assert.True(t, fields["reason"])
}

func TestSubmit_StoresEvidence(t *testing.T) {
	h := newHarness(t, Options{})
	evidence := pngBase64(t)

	resp, err := h.requests.Submit(employeeCtx(), attendance.SubmitRequestRequest{
		Type:     string(attendance.StatusCheckIn),
		Reason:   "Scanner broken",
		Evidence: &evidence,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.EvidenceURL)
	assert.Len(t, h.files.uploads, 1)
}

func TestProcess_ApproveCreatesOneManualRecord(t *testing.T) {
	h := newHarness(t, Options{})
	claimed := h.clock.Add(-3 * time.Hour).Truncate(time.Second)
	submitted := submitRequest(t, h, attendance.StatusCheckIn, claimed)

	note := "Confirmed with the guard"
	resp, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
		Note:   &note,
	})
	require.NoError(t, err)

	assert.Equal(t, attendance.RequestStatusApproved, resp.Status)
	require.NotNil(t, resp.ProcessedBy)
	assert.Equal(t, testAdminID, *resp.ProcessedBy)
	require.NotNil(t, resp.ProcessedAt)
	require.NotNil(t, resp.RecordID)

	require.Equal(t, 1, h.store.inserts)
	rec := h.store.records[0]
	assert.Equal(t, *resp.RecordID, rec.ID)
	assert.True(t, rec.IsManual)
	assert.Equal(t, attendance.StatusCheckIn, rec.Status)
	assert.True(t, rec.Timestamp.Equal(claimed))
	require.NotNil(t, rec.RequestID)
	assert.Equal(t, submitted.ID, *rec.RequestID)
	assert.Equal(t, "an.nguyen", rec.EmployeeUsername)
	assert.Nil(t, rec.LocationID)
	assert.Contains(t, h.store.locks, testEmployeeID)

	last := h.publisher.events[len(h.publisher.events)-1]
	assert.Equal(t, sse.EventRequestProcessed, last.Event)
}

func TestProcess_ApproveSkipsAlternationCheck(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.service.Record(employeeCtx(), insideScan())
	require.NoError(t, err)

	// a second CHECK_IN claimed after the scanned one is still accepted
	h.advance(time.Hour)
	submitted := submitRequest(t, h, attendance.StatusCheckIn, h.clock.Add(-time.Minute))
	_, err = h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, h.store.inserts)
}

func TestProcess_ApproveAfterEmployeeDeleted(t *testing.T) {
	h := newHarness(t, Options{})
	submitted := submitRequest(t, h, attendance.StatusCheckOut, h.clock.Add(-time.Hour))
	delete(h.employees.employees, testEmployeeID)

	_, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
	})
	require.NoError(t, err)
	require.Len(t, h.store.records, 1)
	assert.Equal(t, "Nguyễn Văn An", h.store.records[0].EmployeeName)
	assert.Empty(t, h.store.records[0].EmployeeUsername)
}

func TestProcess_RejectCreatesNoRecord(t *testing.T) {
	h := newHarness(t, Options{})
	submitted := submitRequest(t, h, attendance.StatusCheckOut, h.clock.Add(-time.Hour))

	resp, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessReject,
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.RequestStatusRejected, resp.Status)
	assert.Nil(t, resp.RecordID)
	assert.Equal(t, 0, h.store.inserts)
}

func TestProcess_SecondDecisionIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		first  attendance.ProcessAction
		second attendance.ProcessAction
	}{
		{"approve then approve", attendance.ProcessApprove, attendance.ProcessApprove},
		{"approve then reject", attendance.ProcessApprove, attendance.ProcessReject},
		{"reject then approve", attendance.ProcessReject, attendance.ProcessApprove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			submitted := submitRequest(t, h, attendance.StatusCheckIn, h.clock.Add(-time.Hour))

			_, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{ID: submitted.ID, Action: tt.first})
			require.NoError(t, err)
			inserts := h.store.inserts

			_, err = h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{ID: submitted.ID, Action: tt.second})
			assert.ErrorIs(t, err, attendance.ErrInvalidRequestState)
			assert.Equal(t, inserts, h.store.inserts)
		})
	}
}

func TestProcess_CommitFailureIsPersistenceFailure(t *testing.T) {
	h := newHarness(t, Options{})
	submitted := submitRequest(t, h, attendance.StatusCheckIn, h.clock.Add(-time.Hour))
	h.store.commitErr = errors.New("connection reset")

	_, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrPersistenceFailure)

	assert.Equal(t, 0, h.store.inserts)
	assert.Equal(t, attendance.RequestStatusPending, h.store.requests[submitted.ID].Status)
	assert.Equal(t, 1, h.publisher.count())
}

func TestProcess_DomainErrorsAreNotWrapped(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{
		ID:     "missing",
		Action: attendance.ProcessApprove,
	})
	assert.ErrorIs(t, err, attendance.ErrRequestNotFound)
	assert.NotErrorIs(t, err, attendance.ErrPersistenceFailure)
}

func TestProcess_Authorization(t *testing.T) {
	h := newHarness(t, Options{})
	submitted := submitRequest(t, h, attendance.StatusCheckIn, h.clock.Add(-time.Hour))

	_, err := h.requests.Process(employeeCtx(), attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	otherAdmin := auth.WithPrincipal(t.Context(), auth.Principal{
		Kind:      auth.KindAdmin,
		ID:        "admin-2",
		CompanyID: "company-2",
	})
	_, err = h.requests.Process(otherAdmin, attendance.ProcessRequestRequest{
		ID:     submitted.ID,
		Action: attendance.ProcessApprove,
	})
	assert.ErrorIs(t, err, attendance.ErrRequestNotFound)
	assert.Equal(t, 0, h.store.inserts)
}

func TestProcess_InvalidAction(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.requests.Process(adminCtx(), attendance.ProcessRequestRequest{ID: "x", Action: "escalate"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestRequestLists(t *testing.T) {
	h := newHarness(t, Options{})
	submitRequest(t, h, attendance.StatusCheckIn, h.clock.Add(-time.Hour))

	mine, err := h.requests.GetMyRequests(employeeCtx(), attendance.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalCount)

	all, err := h.requests.ListRequests(adminCtx(), attendance.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.TotalCount)
	assert.Equal(t, 1, all.TotalPages)

	_, err = h.requests.ListRequests(employeeCtx(), attendance.RequestFilter{})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}
