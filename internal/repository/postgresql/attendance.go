package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRecordRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewAttendanceRecordRepository returns a record repository. Date filters are interpreted in loc.
func NewAttendanceRecordRepository(db *database.DB, loc *time.Location) attendance.RecordRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceRecordRepository{db: db, loc: loc}
}

const recordColumns = `
	id, company_id, employee_id, employee_name, employee_username, location_id, location_name,
	timestamp, status, latitude, longitude, accuracy, is_late, is_early,
	image_path, is_manual, request_id, face_distance, created_at
`

func scanRecord(row interface{ Scan(...interface{}) error }) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.EmployeeName, &rec.EmployeeUsername, &rec.LocationID, &rec.LocationName,
		&rec.Timestamp, &rec.Status, &rec.Latitude, &rec.Longitude, &rec.Accuracy, &rec.IsLate, &rec.IsEarly,
		&rec.ImagePath, &rec.IsManual, &rec.RequestID, &rec.FaceDistance, &rec.CreatedAt,
	)
	return rec, err
}

// Create implements attendance.RecordRepository.
func (a *attendanceRecordRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	id, err := newID()
	if err != nil {
		return attendance.Record{}, err
	}

	query := `
		INSERT INTO attendance_records (
			id, company_id, employee_id, employee_name, employee_username, location_id, location_name,
			timestamp, status, latitude, longitude, accuracy, is_late, is_early,
			image_path, is_manual, request_id, face_distance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		RETURNING ` + recordColumns

	created, err := scanRecord(q.QueryRow(ctx, query,
		id, rec.CompanyID, rec.EmployeeID, rec.EmployeeName, rec.EmployeeUsername, rec.LocationID, rec.LocationName,
		rec.Timestamp, string(rec.Status), rec.Latitude, rec.Longitude, rec.Accuracy, rec.IsLate, rec.IsEarly,
		rec.ImagePath, rec.IsManual, rec.RequestID, rec.FaceDistance,
	))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return created, nil
}

// GetByID implements attendance.RecordRepository.
func (a *attendanceRecordRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Record, error) {
	if err := checkID(id); err != nil {
		return attendance.Record{}, err
	}

	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1 AND company_id = $2`
	rec, err := scanRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

// GetLatestByEmployee implements attendance.RecordRepository.
func (a *attendanceRecordRepository) GetLatestByEmployee(ctx context.Context, employeeID string, companyID string) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND company_id = $2
		ORDER BY timestamp DESC, created_at DESC
		LIMIT 1
	`
	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest attendance record: %w", err)
	}
	return &rec, nil
}

// List implements attendance.RecordRepository.
func (a *attendanceRecordRepository) List(ctx context.Context, filter attendance.RecordFilter, companyID string) ([]attendance.Record, int64, error) {
	if !validIDFilter(filter.EmployeeID) || !validIDFilter(filter.LocationID) {
		return []attendance.Record{}, 0, nil
	}

	q := GetQuerier(ctx, a.db)

	conditions := []string{"company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.LocationID != nil && *filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", argIdx))
		args = append(args, *filter.LocationID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.IsManual != nil {
		conditions = append(conditions, fmt.Sprintf("is_manual = $%d", argIdx))
		args = append(args, *filter.IsManual)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", *filter.StartDate, a.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid start date: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", argIdx))
		args = append(args, start)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", *filter.EndDate, a.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid end date: %w", err)
		}
		// end date is inclusive
		conditions = append(conditions, fmt.Sprintf("timestamp < $%d", argIdx))
		args = append(args, end.AddDate(0, 0, 1))
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_records
		WHERE %s
		ORDER BY timestamp DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, recordColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// LockEmployee implements attendance.RecordRepository.
func (a *attendanceRecordRepository) LockEmployee(ctx context.Context, employeeID string) error {
	return lockKey(ctx, a.db, "attendance:"+employeeID)
}
