// Package sqlitedb is a SQLite implementation of db.Store for local development and tests.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL UNIQUE,
	role            TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('student', 'admin')),
	branch          TEXT NOT NULL DEFAULT '',
	year            INTEGER NOT NULL DEFAULT 0,
	career_interest TEXT NOT NULL DEFAULT '',
	skills          TEXT NOT NULL DEFAULT '[]',
	password_hash   TEXT NOT NULL DEFAULT '',
	password_set    INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS skill_analysis (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	career_role        TEXT NOT NULL DEFAULT '',
	readiness_score    INTEGER NOT NULL CHECK (readiness_score BETWEEN 0 AND 100),
	matched_skills     TEXT NOT NULL DEFAULT '[]',
	missing_skills     TEXT NOT NULL DEFAULT '[]',
	recommended_skills TEXT NOT NULL DEFAULT '[]',
	learning_roadmap   TEXT NOT NULL DEFAULT '[]',
	source             TEXT NOT NULL DEFAULT 'fallback',
	created_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_skill_analysis_user_created ON skill_analysis (user_id, created_at DESC);
`

const (
	userColumns = `id, name, email, role, branch, year, career_interest, skills,
	password_hash, password_set, created_at, updated_at`
	analysisColumns = `id, user_id, career_role, readiness_score, matched_skills, missing_skills,
	recommended_skills, learning_roadmap, source, created_at`
)

// DB stores users and analyses in SQLite. Timestamps are Unix nanoseconds.
type DB struct {
	sql *sql.DB

	// clock hands out strictly increasing timestamps so newest-first ordering is stable.
	mu   sync.Mutex
	last int64
}

var _ db.Store = (*DB)(nil)

// Open opens or creates the database at path (":memory:" for a private in-memory store)
// and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite: single writer, and every :memory: connection would be a separate database.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return &DB{sql: conn}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks that the database is usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) now() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := time.Now().UnixNano()
	if n <= d.last {
		n = d.last + 1
	}
	d.last = n
	return n
}

// CheckEmailExists reports whether a user with the email exists.
func (d *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.sql.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, db.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a user without a password and returns its ID.
func (d *DB) CreateUser(ctx context.Context, name, email string, role types.UserRole) (uuid.UUID, error) {
	if role == "" {
		role = types.RoleStudent
	}
	id := uuid.New()
	now := d.now()
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), strings.TrimSpace(name), db.NormalizeEmail(email), string(role), now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return uuid.Nil, db.ErrDuplicateEmail
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser returns the user, or nil if none exists.
func (d *DB) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return d.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

// GetUserByEmail returns the user with the email, or nil if none exists.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return d.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, db.NormalizeEmail(email))
}

func (d *DB) queryUser(ctx context.Context, query string, arg any) (*db.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdatePassword stores a new bcrypt hash and marks the password as set.
func (d *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, password_set = 1, updated_at = ? WHERE id = ?`,
		passwordHash, d.now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(res, id)
}

// UpdateProfile replaces the user's branch, year, career interest and skills.
func (d *DB) UpdateProfile(ctx context.Context, id uuid.UUID, profile db.ProfileUpdate) error {
	skills, err := db.EncodeJSON(nonNil(profile.Skills))
	if err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx,
		`UPDATE users SET branch = ?, year = ?, career_interest = ?, skills = ?, updated_at = ? WHERE id = ?`,
		profile.Branch, profile.Year, profile.CareerInterest, string(skills), d.now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRow(res, id)
}

// ListStudents returns every student, newest first.
func (d *DB) ListStudents(ctx context.Context) ([]db.User, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at DESC`,
		string(types.RoleStudent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	users := []db.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and their analyses.
func (d *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := d.sql.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// SaveAnalysis inserts a new analysis record. The score is clamped to 0..100 and the store
// assigns the ID and creation time, which are written back to rec.
func (d *DB) SaveAnalysis(ctx context.Context, rec *types.AnalysisRecord) (uuid.UUID, error) {
	cols, err := db.EncodeAnalysis(rec)
	if err != nil {
		return uuid.Nil, err
	}
	rec.ReadinessScore = types.ClampReadiness(rec.ReadinessScore)
	if rec.Source == "" {
		rec.Source = types.SourceFallback
	}
	id := uuid.New()
	created := d.now()

	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO skill_analysis
		 (id, user_id, career_role, readiness_score, matched_skills, missing_skills,
		  recommended_skills, learning_roadmap, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.UserID.String(), rec.CareerRole, rec.ReadinessScore,
		string(cols.Matched), string(cols.Missing), string(cols.Recommended), string(cols.Roadmap),
		string(rec.Source), created,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = time.Unix(0, created).UTC()
	return id, nil
}

// GetLatestAnalysis returns the user's most recent analysis, or nil if they have none.
func (d *DB) GetLatestAnalysis(ctx context.Context, userID uuid.UUID) (*types.AnalysisRecord, error) {
	rec, err := scanAnalysis(d.sql.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM skill_analysis WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return rec, nil
}

// ListUserAnalyses returns the user's analyses, newest first.
func (d *DB) ListUserAnalyses(ctx context.Context, userID uuid.UUID) ([]types.AnalysisRecord, error) {
	return d.listAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM skill_analysis WHERE user_id = ? ORDER BY created_at DESC`,
		userID.String(),
	)
}

// ListAllAnalyses returns every analysis, newest first.
func (d *DB) ListAllAnalyses(ctx context.Context) ([]types.AnalysisRecord, error) {
	return d.listAnalyses(ctx, `SELECT `+analysisColumns+` FROM skill_analysis ORDER BY created_at DESC`)
}

func (d *DB) listAnalyses(ctx context.Context, query string, args ...any) ([]types.AnalysisRecord, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := []types.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*db.User, error) {
	var u db.User
	var id, role, skills string
	var created, updated int64
	err := row.Scan(&id, &u.Name, &u.Email, &role, &u.Branch, &u.Year, &u.CareerInterest,
		&skills, &u.PasswordHash, &u.PasswordSet, &created, &updated)
	if err != nil {
		return nil, err
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	u.Role = types.UserRole(role)
	if err := db.DecodeJSON([]byte(skills), &u.Skills); err != nil {
		return nil, err
	}
	u.Skills = nonNil(u.Skills)
	u.CreatedAt = time.Unix(0, created).UTC()
	u.UpdatedAt = time.Unix(0, updated).UTC()
	return &u, nil
}

func scanAnalysis(row scanner) (*types.AnalysisRecord, error) {
	var rec types.AnalysisRecord
	var id, userID, source string
	var matched, missing, recommended, roadmap string
	var created int64
	err := row.Scan(&id, &userID, &rec.CareerRole, &rec.ReadinessScore,
		&matched, &missing, &recommended, &roadmap, &source, &created)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid analysis id %q: %w", id, err)
	}
	if rec.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	rec.Source = types.AnalysisSource(source)
	rec.CreatedAt = time.Unix(0, created).UTC()

	cols := db.AnalysisColumns{
		Matched:     []byte(matched),
		Missing:     []byte(missing),
		Recommended: []byte(recommended),
		Roadmap:     []byte(roadmap),
	}
	if err := cols.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
