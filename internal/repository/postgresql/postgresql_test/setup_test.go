package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/checkin-backend-go/migrations"
	"github.com/stretchr/testify/require"
)

// Children first so TRUNCATE never trips over a foreign key.
var tables = []string{
	"attendance_records",
	"attendance_requests",
	"employees",
	"locations",
	"shifts",
	"users",
	"companies",
}

// newTestDB connects to TEST_DATABASE_URL, applies the schema and empties every table.
// Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, migrations.Apply(ctx, db))
	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	for _, table := range tables {
		_, err := db.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
}

func seedCompany(t *testing.T, db *database.DB, name string) company.Company {
	t.Helper()
	created, err := postgresql.NewCompanyRepository(db).Create(context.Background(), company.Company{Name: name})
	require.NoError(t, err)
	return created
}

func seedEmployee(t *testing.T, db *database.DB, companyID, username, deviceCode string) employee.Employee {
	t.Helper()
	created, err := postgresql.NewEmployeeRepository(db).Create(context.Background(), employee.Employee{
		CompanyID:    companyID,
		Username:     username,
		PasswordHash: "$2a$10$hash",
		FullName:     "Nguyen " + username,
		DeviceCode:   deviceCode,
	})
	require.NoError(t, err)
	return created
}

func ptr[T any](v T) *T {
	return &v
}
