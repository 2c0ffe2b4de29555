package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/microlearn-be/internal/models"
)

// UserQuery selects users by email and/or username. Empty fields are ignored.
// With AnyOf set the present fields are OR-ed, otherwise AND-ed.
type UserQuery struct {
	Email    string
	Username string
	AnyOf    bool
}

// UserRepository is the credential store.
type UserRepository interface {
	InsertOne(ctx context.Context, user *models.User) error
	FindOne(ctx context.Context, q UserQuery) (*models.User, error)
}

// SQLUserRepository stores users in the users table.
type SQLUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLUserRepository.
func NewUserRepository(db *sql.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// InsertOne stores a new user. Username and email are unique at the table level,
// so a racing duplicate surfaces as ErrDuplicate.
func (r *SQLUserRepository) InsertOne(ctx context.Context, user *models.User) error {
	stmt, err := r.db.PrepareContext(ctx, "INSERT INTO users(id, name, username, email, password_hash, role, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Name, user.Username, user.Email, user.PasswordHash, string(user.Role), formatTime(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindOne returns the first user matching q, including the password hash.
func (r *SQLUserRepository) FindOne(ctx context.Context, q UserQuery) (*models.User, error) {
	var conds []string
	var args []any
	if q.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, q.Email)
	}
	if q.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, q.Username)
	}
	if len(conds) == 0 {
		return nil, ErrNotFound
	}

	joiner := " AND "
	if q.AnyOf {
		joiner = " OR "
	}
	query := "SELECT id, name, username, email, password_hash, role, created_at FROM users WHERE " +
		strings.Join(conds, joiner) + " LIMIT 1"

	var user models.User
	var role, createdAt string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.PasswordHash, &role, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.Role = models.Role(role)
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("user %s has bad created_at: %w", user.ID, err)
	}
	return &user, nil
}
