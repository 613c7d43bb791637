package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

// ExistsByEmail implements user.UserRepository.
func (r *userRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := q.QueryRow(ctx, query, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return user.User{}, err
	}

	query := `
		INSERT INTO users (id, company_id, email, password_hash, is_super_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, company_id, email, password_hash, is_super_admin, created_at, updated_at
	`
	var created user.User
	err = q.QueryRow(ctx, query,
		id, newUser.CompanyID, strings.ToLower(newUser.Email), newUser.PasswordHash, newUser.IsSuperAdmin,
	).Scan(
		&created.ID, &created.CompanyID, &created.Email, &created.PasswordHash,
		&created.IsSuperAdmin, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	if err := checkID(id); err != nil {
		return user.User{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, email, password_hash, is_super_admin, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u user.User
	err := q.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.IsSuperAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to get user by id %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, email, password_hash, is_super_admin, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u user.User
	err := q.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.IsSuperAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}
