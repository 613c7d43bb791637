package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type attendanceRequestRepository struct {
	db *database.DB
}

func NewAttendanceRequestRepository(db *database.DB) attendance.RequestRepository {
	return &attendanceRequestRepository{db: db}
}

const requestColumns = `
	id, company_id, employee_id, employee_name, type, claimed_at, reason, evidence_path,
	status, processed_by, processed_at, note, record_id, created_at, updated_at
`

func scanRequest(row interface{ Scan(...interface{}) error }) (attendance.Request, error) {
	var req attendance.Request
	err := row.Scan(
		&req.ID, &req.CompanyID, &req.EmployeeID, &req.EmployeeName, &req.Type, &req.ClaimedAt, &req.Reason, &req.EvidencePath,
		&req.Status, &req.ProcessedBy, &req.ProcessedAt, &req.Note, &req.RecordID, &req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

// Create implements attendance.RequestRepository.
func (r *attendanceRequestRepository) Create(ctx context.Context, req attendance.Request) (attendance.Request, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return attendance.Request{}, err
	}

	query := `
		INSERT INTO attendance_requests (
			id, company_id, employee_id, employee_name, type, claimed_at, reason, evidence_path,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + requestColumns

	created, err := scanRequest(q.QueryRow(ctx, query,
		id, req.CompanyID, req.EmployeeID, req.EmployeeName, string(req.Type), req.ClaimedAt, req.Reason, req.EvidencePath,
		string(attendance.RequestStatusPending),
	))
	if err != nil {
		return attendance.Request{}, fmt.Errorf("failed to create attendance request: %w", err)
	}
	return created, nil
}

// GetByID implements attendance.RequestRepository.
func (r *attendanceRequestRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Request, error) {
	if err := checkID(id); err != nil {
		return attendance.Request{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + requestColumns + ` FROM attendance_requests WHERE id = $1 AND company_id = $2`
	req, err := scanRequest(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return attendance.Request{}, fmt.Errorf("failed to get attendance request: %w", err)
	}
	return req, nil
}

// GetByIDForUpdate implements attendance.RequestRepository.
func (r *attendanceRequestRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Request, error) {
	if err := checkID(id); err != nil {
		return attendance.Request{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + requestColumns + ` FROM attendance_requests WHERE id = $1 AND company_id = $2 FOR UPDATE`
	req, err := scanRequest(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return attendance.Request{}, fmt.Errorf("failed to lock attendance request: %w", err)
	}
	return req, nil
}

// UpdateProcessed implements attendance.RequestRepository. Only a pending request can be resolved.
func (r *attendanceRequestRepository) UpdateProcessed(ctx context.Context, req attendance.Request) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_requests
		SET status = $1, processed_by = $2, processed_at = $3, note = $4, record_id = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7 AND status = $8
	`
	commandTag, err := q.Exec(ctx, query,
		string(req.Status), req.ProcessedBy, req.ProcessedAt, req.Note, req.RecordID,
		req.ID, req.CompanyID, string(attendance.RequestStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance request: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrInvalidRequestState
	}
	return nil
}

// List implements attendance.RequestRepository.
func (r *attendanceRequestRepository) List(ctx context.Context, filter attendance.RequestFilter, companyID string) ([]attendance.Request, int64, error) {
	if !validIDFilter(filter.EmployeeID) {
		return []attendance.Request{}, 0, nil
	}

	q := GetQuerier(ctx, r.db)

	conditions := []string{"company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_requests WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, requestColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance requests: %w", err)
	}
	defer rows.Close()

	var requests []attendance.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance request: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
