package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, name, email, password string, role models.UserRole) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	// FindAnyByRole returns an arbitrary user holding role.
	FindAnyByRole(ctx context.Context, role models.UserRole) (models.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at`

func (u *userRepository) CreateUser(ctx context.Context, name, email, password string, role models.UserRole) (models.User, error) {
	if role == "" {
		role = models.RoleDonor
	}
	if !models.IsValidRole(role) {
		return models.User{}, appErr.NewValidation("Invalid role", map[string]string{"role": "must be donor, volunteer or responder"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "failed to hash password")
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
	}

	const query = `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES (:id, :name, :email, :password_hash, :role)
		RETURNING created_at`
	rows, err := u.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return models.User{}, mapError(err, "User", "create user")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&user.CreatedAt); err != nil {
			return models.User{}, mapError(err, "User", "create user")
		}
	}
	if err := rows.Err(); err != nil {
		return models.User{}, mapError(err, "User", "create user")
	}
	return user, nil
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.GetUserByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return models.User{}, appErr.NewUnauthenticated("invalid credentials")
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, appErr.NewUnauthenticated("invalid credentials")
	}
	return user, nil
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := u.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return models.User{}, mapError(err, "User", "get user by email")
	}
	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := u.db.GetContext(ctx, &user, query, userID); err != nil {
		return models.User{}, mapError(err, "User", "get user by id")
	}
	return user, nil
}

func (u *userRepository) FindAnyByRole(ctx context.Context, role models.UserRole) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at LIMIT 1`
	if err := u.db.GetContext(ctx, &user, query, string(role)); err != nil {
		return models.User{}, mapError(err, "User", "find user by role")
	}
	return user, nil
}
