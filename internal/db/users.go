package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, role, branch, year, career_interest, skills,
	password_hash, password_set, created_at, updated_at`

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckEmailExists reports whether a user with the email exists.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a user without a password and returns its ID.
func (db *DB) CreateUser(ctx context.Context, name, email string, role types.UserRole) (uuid.UUID, error) {
	if role == "" {
		role = types.RoleStudent
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		strings.TrimSpace(name), NormalizeEmail(email), string(role),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, ErrDuplicateEmail
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser returns the user, or nil if none exists.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail returns the user with the email, or nil if none exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
}

func (db *DB) queryUser(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdatePassword stores a new bcrypt hash and marks the password as set.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateProfile replaces the user's branch, year, career interest and skills.
func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, profile ProfileUpdate) error {
	skills, err := EncodeJSON(orEmpty(profile.Skills))
	if err != nil {
		return err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE users
		 SET branch = $1, year = $2, career_interest = $3, skills = $4, updated_at = NOW()
		 WHERE id = $5`,
		profile.Branch, profile.Year, profile.CareerInterest, skills, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// ListStudents returns every student, newest first.
func (db *DB) ListStudents(ctx context.Context) ([]User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`,
		string(types.RoleStudent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and, by cascade, their analyses.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	var skills []byte
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Branch, &u.Year, &u.CareerInterest,
		&skills, &u.PasswordHash, &u.PasswordSet, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = types.UserRole(role)
	if err := DecodeJSON(skills, &u.Skills); err != nil {
		return nil, err
	}
	u.Skills = orEmpty(u.Skills)
	return &u, nil
}
