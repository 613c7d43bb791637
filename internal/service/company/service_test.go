package company

import (
	"context"
	"strings"
	"testing"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var superAdminCtx = auth.WithPrincipal(context.Background(), auth.Principal{Kind: auth.KindSuperAdmin, ID: "root"})

// memDB holds every table so the fake transactor can restore them on failure.
type memDB struct {
	companies map[string]company.Company
	users     map[string]user.User
	shifts    []shift.Shift
}

type fakeTransactor struct{ db *memDB }

func (t fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	companies := make(map[string]company.Company, len(t.db.companies))
	for k, v := range t.db.companies {
		companies[k] = v
	}
	users := make(map[string]user.User, len(t.db.users))
	for k, v := range t.db.users {
		users[k] = v
	}
	shifts := append([]shift.Shift(nil), t.db.shifts...)
	if err := fn(ctx); err != nil {
		t.db.companies = companies
		t.db.users = users
		t.db.shifts = shifts
		return err
	}
	return nil
}

type fakeCompanyRepo struct{ db *memDB }

func (r fakeCompanyRepo) Create(_ context.Context, c company.Company) (company.Company, error) {
	for _, existing := range r.db.companies {
		if existing.Name == c.Name {
			return company.Company{}, &pgconn.PgError{Code: "23505", ConstraintName: database.ConstraintCompanyName}
		}
	}
	c.ID = "company-" + strings.ToLower(c.Name)
	r.db.companies[c.ID] = c
	return c, nil
}

func (r fakeCompanyRepo) GetByID(_ context.Context, id string) (company.Company, error) {
	c, ok := r.db.companies[id]
	if !ok {
		return company.Company{}, pgx.ErrNoRows
	}
	return c, nil
}

func (r fakeCompanyRepo) List(context.Context) ([]company.Company, error) {
	out := make([]company.Company, 0, len(r.db.companies))
	for _, c := range r.db.companies {
		out = append(out, c)
	}
	return out, nil
}

type fakeUserRepo struct {
	user.UserRepository
	db *memDB
}

func (r fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	u.ID = "user-" + u.Email
	r.db.users[u.ID] = u
	return u, nil
}

func (r fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeShiftRepo struct {
	shift.ShiftRepository
	db *memDB
}

func (r fakeShiftRepo) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	s.ID = s.CompanyID + "/" + s.Name
	r.db.shifts = append(r.db.shifts, s)
	return s, nil
}

func newService() (company.CompanyService, *memDB) {
	db := &memDB{companies: map[string]company.Company{}, users: map[string]user.User{}}
	return NewCompanyService(fakeTransactor{db}, fakeCompanyRepo{db}, fakeUserRepo{db: db}, fakeShiftRepo{db: db}), db
}

func TestCreateCompany(t *testing.T) {
	svc, db := newService()

	resp, err := svc.CreateCompany(superAdminCtx, company.CreateCompanyRequest{
		Name: " Acme ", AdminEmail: "admin@acme.test", AdminPassword: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Name)
	require.NotNil(t, resp.Admin)
	require.NotNil(t, resp.Admin.CompanyID)
	assert.Equal(t, resp.ID, *resp.Admin.CompanyID)
	assert.False(t, resp.Admin.IsSuperAdmin)

	admin := db.users["user-admin@acme.test"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("password123")))

	require.Len(t, db.shifts, 4)
	for _, s := range db.shifts {
		assert.Equal(t, resp.ID, s.CompanyID)
	}
}

func TestCreateCompany_Conflicts(t *testing.T) {
	svc, db := newService()
	_, err := svc.CreateCompany(superAdminCtx, company.CreateCompanyRequest{
		Name: "Acme", AdminEmail: "admin@acme.test", AdminPassword: "password123",
	})
	require.NoError(t, err)

	_, err = svc.CreateCompany(superAdminCtx, company.CreateCompanyRequest{
		Name: "Globex", AdminEmail: "admin@acme.test", AdminPassword: "password123",
	})
	assert.ErrorIs(t, err, user.ErrEmailExists)

	_, err = svc.CreateCompany(superAdminCtx, company.CreateCompanyRequest{
		Name: "Acme", AdminEmail: "boss@acme.test", AdminPassword: "password123",
	})
	assert.ErrorIs(t, err, company.ErrCompanyNameExists)

	assert.Len(t, db.companies, 1)
	assert.Len(t, db.users, 1)
	assert.Len(t, db.shifts, 4)
}

func TestCreateCompany_OnlySuperAdmin(t *testing.T) {
	svc, _ := newService()
	adminCtx := auth.WithPrincipal(context.Background(), auth.Principal{Kind: auth.KindAdmin, ID: "a", CompanyID: "c"})

	_, err := svc.CreateCompany(adminCtx, company.CreateCompanyRequest{
		Name: "Acme", AdminEmail: "admin@acme.test", AdminPassword: "password123",
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.ListCompanies(adminCtx)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestGetMyCompany(t *testing.T) {
	svc, db := newService()
	db.companies["company-1"] = company.Company{ID: "company-1", Name: "Acme"}

	empCtx := auth.WithPrincipal(context.Background(), auth.Principal{Kind: auth.KindEmployee, ID: "e", CompanyID: "company-1"})
	resp, err := svc.GetMyCompany(empCtx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Name)

	_, err = svc.GetMyCompany(superAdminCtx)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	goneCtx := auth.WithPrincipal(context.Background(), auth.Principal{Kind: auth.KindAdmin, ID: "a", CompanyID: "company-9"})
	_, err = svc.GetMyCompany(goneCtx)
	assert.ErrorIs(t, err, company.ErrCompanyNotFound)
}
