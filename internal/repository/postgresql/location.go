package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type locationRepositoryImpl struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) location.LocationRepository {
	return &locationRepositoryImpl{db: db}
}

const locationColumns = `id, company_id, name, latitude, longitude, radius_meters, selfie_required, qr_secret, created_at, updated_at`

func scanLocation(row interface{ Scan(...interface{}) error }) (location.Location, error) {
	var l location.Location
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.Name, &l.Latitude, &l.Longitude, &l.RadiusMeters,
		&l.SelfieRequired, &l.QRSecret, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// Create implements location.LocationRepository.
func (r *locationRepositoryImpl) Create(ctx context.Context, l location.Location) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return location.Location{}, err
	}

	query := `
		INSERT INTO locations (id, company_id, name, latitude, longitude, radius_meters, selfie_required, qr_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + locationColumns

	created, err := scanLocation(q.QueryRow(ctx, query,
		id, l.CompanyID, l.Name, l.Latitude, l.Longitude, l.RadiusMeters, l.SelfieRequired, l.QRSecret,
	))
	if err != nil {
		return location.Location{}, fmt.Errorf("failed to create location: %w", err)
	}
	return created, nil
}

// GetByID implements location.LocationRepository.
func (r *locationRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (location.Location, error) {
	if err := checkID(id); err != nil {
		return location.Location{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1 AND company_id = $2`

	l, err := scanLocation(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return location.Location{}, fmt.Errorf("failed to get location: %w", err)
	}
	return l, nil
}

// GetByCompanyID implements location.LocationRepository.
func (r *locationRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + locationColumns + ` FROM locations WHERE company_id = $1 ORDER BY name ASC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get locations: %w", err)
	}
	defer rows.Close()

	var locations []location.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return locations, nil
}

// Update implements location.LocationRepository.
func (r *locationRepositoryImpl) Update(ctx context.Context, req location.UpdateLocationRequest) (location.Location, error) {
	if err := checkID(req.ID); err != nil {
		return location.Location{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `UPDATE locations SET updated_at = NOW()`
	args := []interface{}{}
	argIdx := 1

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Latitude != nil {
		set("latitude", *req.Latitude)
	}
	if req.Longitude != nil {
		set("longitude", *req.Longitude)
	}
	if req.RadiusMeters != nil {
		set("radius_meters", *req.RadiusMeters)
	}
	if req.SelfieRequired != nil {
		set("selfie_required", *req.SelfieRequired)
	}
	if req.QRSecret != nil {
		set("qr_secret", *req.QRSecret)
	} else if req.ClearQRSecret {
		query += ", qr_secret = NULL"
	}

	query += fmt.Sprintf(" WHERE id = $%d AND company_id = $%d RETURNING %s", argIdx, argIdx+1, locationColumns)
	args = append(args, req.ID, req.CompanyID)

	updated, err := scanLocation(q.QueryRow(ctx, query, args...))
	if err != nil {
		return location.Location{}, fmt.Errorf("failed to update location: %w", err)
	}
	return updated, nil
}

// Delete implements location.LocationRepository. Employees referencing the location keep the dangling id.
func (r *locationRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	if checkID(id) != nil {
		return location.ErrLocationNotFound
	}

	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM locations WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return location.ErrLocationNotFound
	}
	return nil
}
