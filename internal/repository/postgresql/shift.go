package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `id, company_id, name, start_time, end_time, created_at, updated_at`

func scanShift(row interface{ Scan(...interface{}) error }) (shift.Shift, error) {
	var s shift.Shift
	err := row.Scan(&s.ID, &s.CompanyID, &s.Name, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return shift.Shift{}, err
	}

	query := `
		INSERT INTO shifts (id, company_id, name, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + shiftColumns

	created, err := scanShift(q.QueryRow(ctx, query, id, s.CompanyID, s.Name, s.StartTime, s.EndTime))
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return created, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (shift.Shift, error) {
	if err := checkID(id); err != nil {
		return shift.Shift{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 AND company_id = $2`

	s, err := scanShift(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return s, nil
}

// GetByCompanyID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE company_id = $1 ORDER BY start_time ASC, name ASC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return shifts, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, req shift.UpdateShiftRequest) (shift.Shift, error) {
	if err := checkID(req.ID); err != nil {
		return shift.Shift{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `UPDATE shifts SET updated_at = NOW()`
	args := []interface{}{}
	argIdx := 1

	if req.Name != nil {
		query += fmt.Sprintf(", name = $%d", argIdx)
		args = append(args, *req.Name)
		argIdx++
	}
	if req.StartTime != nil {
		query += fmt.Sprintf(", start_time = $%d", argIdx)
		args = append(args, *req.StartTime)
		argIdx++
	}
	if req.EndTime != nil {
		query += fmt.Sprintf(", end_time = $%d", argIdx)
		args = append(args, *req.EndTime)
		argIdx++
	}

	query += fmt.Sprintf(" WHERE id = $%d AND company_id = $%d RETURNING %s", argIdx, argIdx+1, shiftColumns)
	args = append(args, req.ID, req.CompanyID)

	updated, err := scanShift(q.QueryRow(ctx, query, args...))
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return updated, nil
}

// Delete implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	if checkID(id) != nil {
		return shift.ErrShiftNotFound
	}

	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}
