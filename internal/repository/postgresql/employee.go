package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// Shift and location names come from LEFT JOINs so a deleted location surfaces as a NULL name.
const employeeSelect = `
	SELECT
		e.id, e.company_id, e.username, e.password_hash, e.full_name, e.device_code,
		e.shift_id, e.location_id, e.face_descriptor, e.base_salary, e.hourly_rate,
		e.created_at, e.updated_at,
		s.name AS shift_name,
		l.name AS location_name
	FROM employees e
	LEFT JOIN shifts s ON s.id = e.shift_id AND s.company_id = e.company_id
	LEFT JOIN locations l ON l.id = e.location_id AND l.company_id = e.company_id
`

func scanEmployee(row interface{ Scan(...interface{}) error }) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.Username, &emp.PasswordHash, &emp.FullName, &emp.DeviceCode,
		&emp.ShiftID, &emp.LocationID, &emp.FaceDescriptor, &emp.BaseSalary, &emp.HourlyRate,
		&emp.CreatedAt, &emp.UpdatedAt,
		&emp.ShiftName, &emp.LocationName,
	)
	return emp, err
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	id, err := newID()
	if err != nil {
		return employee.Employee{}, err
	}

	query := `
		INSERT INTO employees (
			id, company_id, username, password_hash, full_name, device_code,
			shift_id, location_id, base_salary, hourly_rate, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err = q.Exec(ctx, query,
		id, newEmployee.CompanyID, newEmployee.Username, newEmployee.PasswordHash, newEmployee.FullName,
		newEmployee.DeviceCode, newEmployee.ShiftID, newEmployee.LocationID, newEmployee.BaseSalary, newEmployee.HourlyRate,
	)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return e.GetByID(ctx, id, newEmployee.CompanyID)
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	if err := checkID(id); err != nil {
		return employee.Employee{}, err
	}

	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE e.id = $1 AND e.company_id = $2`, id, companyID))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByUsername implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByUsername(ctx context.Context, username string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE e.username = $1`, username))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee by username: %w", err)
	}
	return emp, nil
}

// GetByDeviceCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByDeviceCode(ctx context.Context, code string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE e.device_code = $1`, strings.ToUpper(code)))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee by device code: %w", err)
	}
	return emp, nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter, companyID string) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, e.db)

	conditions := []string{"e.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.full_name ILIKE $%d OR e.username ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.ShiftID != nil && *filter.ShiftID != "" {
		conditions = append(conditions, fmt.Sprintf("e.shift_id = $%d", argIdx))
		args = append(args, *filter.ShiftID)
		argIdx++
	}
	if filter.LocationID != nil && *filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("e.location_id = $%d", argIdx))
		args = append(args, *filter.LocationID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees e WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`%s WHERE %s ORDER BY e.full_name ASC, e.id ASC LIMIT $%d OFFSET $%d`,
		employeeSelect, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Update implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Update(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.Employee, error) {
	if checkID(req.ID) != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}

	q := GetQuerier(ctx, e.db)

	query := `UPDATE employees SET updated_at = NOW()`
	args := []interface{}{}
	argIdx := 1

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if req.Username != nil {
		set("username", *req.Username)
	}
	if req.PasswordHash != nil {
		set("password_hash", *req.PasswordHash)
	}
	if req.FullName != nil {
		set("full_name", *req.FullName)
	}
	if req.ShiftID != nil {
		set("shift_id", *req.ShiftID)
	} else if req.ClearShift {
		query += ", shift_id = NULL"
	}
	if req.LocationID != nil {
		set("location_id", *req.LocationID)
	} else if req.ClearLocation {
		query += ", location_id = NULL"
	}
	if req.BaseSalary != nil {
		set("base_salary", *req.BaseSalary)
	}
	if req.HourlyRate != nil {
		set("hourly_rate", *req.HourlyRate)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND company_id = $%d", argIdx, argIdx+1)
	args = append(args, req.ID, req.CompanyID)

	commandTag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}

	return e.GetByID(ctx, req.ID, req.CompanyID)
}

// UpdateDeviceCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateDeviceCode(ctx context.Context, id string, companyID string, code string) error {
	if checkID(id) != nil {
		return employee.ErrEmployeeNotFound
	}

	q := GetQuerier(ctx, e.db)

	commandTag, err := q.Exec(ctx,
		`UPDATE employees SET device_code = $1, updated_at = NOW() WHERE id = $2 AND company_id = $3`,
		code, id, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update device code: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// UpdateFaceDescriptor implements employee.EmployeeRepository. A nil descriptor removes the enrollment.
func (e *employeeRepositoryImpl) UpdateFaceDescriptor(ctx context.Context, id string, companyID string, descriptor *string) error {
	if checkID(id) != nil {
		return employee.ErrEmployeeNotFound
	}

	q := GetQuerier(ctx, e.db)

	commandTag, err := q.Exec(ctx,
		`UPDATE employees SET face_descriptor = $1, updated_at = NOW() WHERE id = $2 AND company_id = $3`,
		descriptor, id, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update face descriptor: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// Delete implements employee.EmployeeRepository. Attendance records keep their snapshot of the employee.
func (e *employeeRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	if checkID(id) != nil {
		return employee.ErrEmployeeNotFound
	}

	q := GetQuerier(ctx, e.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM employees WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
