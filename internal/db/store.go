package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Store is the persistence surface shared by the PostgreSQL and SQLite backends.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email string, role types.UserRole) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile ProfileUpdate) error
	ListStudents(ctx context.Context) ([]User, error)

	SaveAnalysis(ctx context.Context, rec *types.AnalysisRecord) (uuid.UUID, error)
	GetLatestAnalysis(ctx context.Context, userID uuid.UUID) (*types.AnalysisRecord, error)
	ListUserAnalyses(ctx context.Context, userID uuid.UUID) ([]types.AnalysisRecord, error)
	ListAllAnalyses(ctx context.Context) ([]types.AnalysisRecord, error)
}

// AnalysisColumns holds the JSON-encoded list columns of a skill_analysis row.
type AnalysisColumns struct {
	Matched     []byte
	Missing     []byte
	Recommended []byte
	Roadmap     []byte
}

// EncodeAnalysis marshals the list fields of rec. Nil slices are stored as empty arrays.
func EncodeAnalysis(rec *types.AnalysisRecord) (AnalysisColumns, error) {
	var cols AnalysisColumns
	var err error
	if cols.Matched, err = EncodeJSON(orEmpty(rec.MatchedSkills)); err != nil {
		return cols, err
	}
	if cols.Missing, err = EncodeJSON(orEmpty(rec.MissingSkills)); err != nil {
		return cols, err
	}
	if cols.Recommended, err = EncodeJSON(orEmpty(rec.RecommendedSkills)); err != nil {
		return cols, err
	}
	if cols.Roadmap, err = EncodeJSON(orEmpty(rec.LearningRoadmap)); err != nil {
		return cols, err
	}
	return cols, nil
}

// Decode unmarshals the list columns into rec.
func (c AnalysisColumns) Decode(rec *types.AnalysisRecord) error {
	if err := DecodeJSON(c.Matched, &rec.MatchedSkills); err != nil {
		return err
	}
	if err := DecodeJSON(c.Missing, &rec.MissingSkills); err != nil {
		return err
	}
	if err := DecodeJSON(c.Recommended, &rec.RecommendedSkills); err != nil {
		return err
	}
	if err := DecodeJSON(c.Roadmap, &rec.LearningRoadmap); err != nil {
		return err
	}
	rec.MatchedSkills = orEmpty(rec.MatchedSkills)
	rec.MissingSkills = orEmpty(rec.MissingSkills)
	rec.RecommendedSkills = orEmpty(rec.RecommendedSkills)
	rec.LearningRoadmap = orEmpty(rec.LearningRoadmap)
	return nil
}

// EncodeJSON marshals a JSON column value.
func EncodeJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column: %w", err)
	}
	return b, nil
}

// DecodeJSON unmarshals a JSON column value. Empty input leaves v untouched.
func DecodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
