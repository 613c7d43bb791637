package attendance

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID  = "company-1"
	testEmployeeID = "employee-1"
	testAdminID    = "admin-1"
	testLocationID = "location-1"
)

// store is shared by the fake repositories so the fake transactor can roll everything back at once.
type store struct {
	mu       sync.Mutex
	records  []attendance.Record
	requests map[string]attendance.Request
	inserts  int
	locks    []string
	failNext error
	// commitErr makes the next transaction roll back after fn succeeds.
	commitErr error
}

func newStore() *store {
	return &store{requests: make(map[string]attendance.Request)}
}

type fakeTransactor struct {
	s *store
}

func (t fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.mu.Lock()
	records := append([]attendance.Record(nil), t.s.records...)
	requests := make(map[string]attendance.Request, len(t.s.requests))
	for k, v := range t.s.requests {
		requests[k] = v
	}
	inserts := t.s.inserts
	t.s.mu.Unlock()

	rollback := func() {
		t.s.mu.Lock()
		t.s.records = records
		t.s.requests = requests
		t.s.inserts = inserts
		t.s.mu.Unlock()
	}

	if err := fn(ctx); err != nil {
		rollback()
		return err
	}

	t.s.mu.Lock()
	commitErr := t.s.commitErr
	t.s.commitErr = nil
	t.s.mu.Unlock()
	if commitErr != nil {
		rollback()
		return fmt.Errorf("commit transaction: %w", commitErr)
	}
	return nil
}

type fakeRecordRepo struct {
	s *store
}

func (r fakeRecordRepo) Create(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNext != nil {
		err := r.s.failNext
		r.s.failNext = nil
		return attendance.Record{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()
	r.s.records = append(r.s.records, rec)
	r.s.inserts++
	return rec, nil
}

func (r fakeRecordRepo) GetByID(_ context.Context, id, companyID string) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if rec.ID == id && rec.CompanyID == companyID {
			return rec, nil
		}
	}
	return attendance.Record{}, pgx.ErrNoRows
}

func (r fakeRecordRepo) GetLatestByEmployee(_ context.Context, employeeID, companyID string) (*attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *attendance.Record
	for i := range r.s.records {
		rec := r.s.records[i]
		if rec.EmployeeID != employeeID || rec.CompanyID != companyID {
			continue
		}
		if latest == nil || !rec.Timestamp.Before(latest.Timestamp) {
			latest = &rec
		}
	}
	return latest, nil
}

func (r fakeRecordRepo) List(_ context.Context, filter attendance.RecordFilter, companyID string) ([]attendance.Record, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.s.records {
		if rec.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, int64(len(out)), nil
}

func (r fakeRecordRepo) LockEmployee(ctx context.Context, employeeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locks = append(r.s.locks, employeeID)
	return nil
}

type fakeRequestRepo struct {
	s *store
}

func (r fakeRequestRepo) Create(_ context.Context, req attendance.Request) (attendance.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = uuid.NewString()
	req.Status = attendance.RequestStatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.s.requests[req.ID] = req
	return req, nil
}

func (r fakeRequestRepo) GetByID(_ context.Context, id, companyID string) (attendance.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.CompanyID != companyID {
		return attendance.Request{}, pgx.ErrNoRows
	}
	return req, nil
}

func (r fakeRequestRepo) GetByIDForUpdate(ctx context.Context, id, companyID string) (attendance.Request, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r fakeRequestRepo) UpdateProcessed(_ context.Context, req attendance.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok || current.Status != attendance.RequestStatusPending {
		return attendance.ErrInvalidRequestState
	}
	r.s.requests[req.ID] = req
	return nil
}

func (r fakeRequestRepo) List(_ context.Context, filter attendance.RequestFilter, companyID string) ([]attendance.Request, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []attendance.Request
	for _, req := range r.s.requests {
		if req.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	r.employees[e.ID] = e
	return e, nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id, companyID string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByUsername(_ context.Context, username string) (employee.Employee, error) {
	for _, e := range r.employees {
		if e.Username == username {
			return e, nil
		}
	}
	return employee.Employee{}, pgx.ErrNoRows
}

func (r *fakeEmployeeRepo) GetByDeviceCode(_ context.Context, code string) (employee.Employee, error) {
	for _, e := range r.employees {
		if e.DeviceCode == code {
			return e, nil
		}
	}
	return employee.Employee{}, pgx.ErrNoRows
}

func (r *fakeEmployeeRepo) List(context.Context, employee.EmployeeFilter, string) ([]employee.Employee, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeEmployeeRepo) Update(context.Context, employee.UpdateEmployeeRequest) (employee.Employee, error) {
	return employee.Employee{}, errors.New("not implemented")
}

func (r *fakeEmployeeRepo) UpdateDeviceCode(context.Context, string, string, string) error {
	return errors.New("not implemented")
}

func (r *fakeEmployeeRepo) UpdateFaceDescriptor(_ context.Context, id, _ string, descriptor *string) error {
	e := r.employees[id]
	e.FaceDescriptor = descriptor
	r.employees[id] = e
	return nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id, _ string) error {
	delete(r.employees, id)
	return nil
}

type fakeLocationRepo struct {
	locations map[string]location.Location
}

func (r *fakeLocationRepo) Create(_ context.Context, l location.Location) (location.Location, error) {
	r.locations[l.ID] = l
	return l, nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id, companyID string) (location.Location, error) {
	l, ok := r.locations[id]
	if !ok || l.CompanyID != companyID {
		return location.Location{}, pgx.ErrNoRows
	}
	return l, nil
}

func (r *fakeLocationRepo) GetByCompanyID(context.Context, string) ([]location.Location, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeLocationRepo) Update(context.Context, location.UpdateLocationRequest) (location.Location, error) {
	return location.Location{}, errors.New("not implemented")
}

func (r *fakeLocationRepo) Delete(_ context.Context, id, _ string) error {
	delete(r.locations, id)
	return nil
}

type fakeShiftRepo struct {
	shifts map[string]shift.Shift
}

func (r *fakeShiftRepo) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	r.shifts[s.ID] = s
	return s, nil
}

func (r *fakeShiftRepo) GetByID(_ context.Context, id, companyID string) (shift.Shift, error) {
	s, ok := r.shifts[id]
	if !ok || s.CompanyID != companyID {
		return shift.Shift{}, pgx.ErrNoRows
	}
	return s, nil
}

func (r *fakeShiftRepo) GetByCompanyID(context.Context, string) ([]shift.Shift, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeShiftRepo) Update(context.Context, shift.UpdateShiftRequest) (shift.Shift, error) {
	return shift.Shift{}, errors.New("not implemented")
}

func (r *fakeShiftRepo) Delete(context.Context, string, string) error {
	return errors.New("not implemented")
}

type fakeFileService struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
}

func (f *fakeFileService) UploadAttendanceSelfie(_ context.Context, companyID, employeeID string, at time.Time, status string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("attendance/%s/%s/%d_%s.jpg", companyID, employeeID, at.Unix(), status)
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeFileService) UploadRequestEvidence(_ context.Context, companyID, employeeID string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("requests/%s/%s/%s.jpg", companyID, employeeID, uuid.NewString())
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeFileService) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeFileService) FileURL(key string) string {
	return "http://files.test/" + key
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *fakePublisher) Publish(event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type staticExtractor struct {
	descriptor face.Descriptor
	err        error
}

func (e staticExtractor) Extract(context.Context, []byte) (face.Descriptor, error) {
	return e.descriptor, e.err
}

type harness struct {
	store     *store
	employees *fakeEmployeeRepo
	locations *fakeLocationRepo
	shifts    *fakeShiftRepo
	files     *fakeFileService
	publisher *fakePublisher
	clock     time.Time
	service   *AttendanceServiceImpl
	requests  *RequestServiceImpl
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		store:     newStore(),
		employees: &fakeEmployeeRepo{employees: map[string]employee.Employee{}},
		locations: &fakeLocationRepo{locations: map[string]location.Location{}},
		shifts:    &fakeShiftRepo{shifts: map[string]shift.Shift{}},
		files:     &fakeFileService{},
		publisher: &fakePublisher{},
		clock:     time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
	}

	h.employees.employees[testEmployeeID] = employee.Employee{
		ID:         testEmployeeID,
		CompanyID:  testCompanyID,
		Username:   "an.nguyen",
		FullName:   "Nguyễn Văn An",
		DeviceCode: "ABC23",
	}
	h.locations.locations[testLocationID] = location.Location{
		ID:           testLocationID,
		CompanyID:    testCompanyID,
		Name:         "Head office",
		Latitude:     10.762622,
		Longitude:    106.660172,
		RadiusMeters: 100,
	}

	tx := fakeTransactor{s: h.store}
	recordRepo := fakeRecordRepo{s: h.store}

	h.service = NewAttendanceService(tx, recordRepo, h.employees, h.locations, h.shifts, h.files, nil, h.publisher, opts)
	h.service.now = func() time.Time { return h.clock }

	h.requests = NewRequestService(tx, fakeRequestRepo{s: h.store}, recordRepo, h.employees, h.files, h.publisher, 0)
	h.requests.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func employeeCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{
		Kind:      auth.KindEmployee,
		ID:        testEmployeeID,
		CompanyID: testCompanyID,
		Name:      "Nguyễn Văn An",
		Username:  "an.nguyen",
	})
}

func adminCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{
		Kind:      auth.KindAdmin,
		ID:        testAdminID,
		CompanyID: testCompanyID,
		Name:      "admin@example.com",
	})
}

func qrFor(locationID, code string) string {
	text, _ := location.QRPayload{LocationID: locationID, Code: code}.Encode()
	return text
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

// insideScan is a reading about 10 m from the test location.
func insideScan() attendance.ScanRequest {
	return attendance.ScanRequest{
		QRPayload: qrFor(testLocationID, ""),
		Latitude:  floatPtr(10.762700),
		Longitude: floatPtr(106.660200),
		Accuracy:  floatPtr(15),
	}
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func descriptorOf(v float64) []float64 {
	d := make([]float64, face.DescriptorLength)
	for i := range d {
		d[i] = v
	}
	return d
}
