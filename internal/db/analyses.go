package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

const analysisColumns = `id, user_id, career_role, readiness_score, matched_skills, missing_skills,
	recommended_skills, learning_roadmap, source, created_at`

// SaveAnalysis inserts a new analysis record. The score is clamped to 0..100 and the store
// assigns the ID and creation time, which are written back to rec.
func (db *DB) SaveAnalysis(ctx context.Context, rec *types.AnalysisRecord) (uuid.UUID, error) {
	cols, err := EncodeAnalysis(rec)
	if err != nil {
		return uuid.Nil, err
	}
	rec.ReadinessScore = types.ClampReadiness(rec.ReadinessScore)
	if rec.Source == "" {
		rec.Source = types.SourceFallback
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO skill_analysis
		 (user_id, career_role, readiness_score, matched_skills, missing_skills,
		  recommended_skills, learning_roadmap, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		rec.UserID, rec.CareerRole, rec.ReadinessScore, cols.Matched, cols.Missing,
		cols.Recommended, cols.Roadmap, string(rec.Source),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return rec.ID, nil
}

// GetLatestAnalysis returns the user's most recent analysis, or nil if they have none.
func (db *DB) GetLatestAnalysis(ctx context.Context, userID uuid.UUID) (*types.AnalysisRecord, error) {
	rec, err := scanAnalysis(db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM skill_analysis
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return rec, nil
}

// ListUserAnalyses returns the user's analyses, newest first.
func (db *DB) ListUserAnalyses(ctx context.Context, userID uuid.UUID) ([]types.AnalysisRecord, error) {
	return db.listAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM skill_analysis WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// ListAllAnalyses returns every analysis, newest first.
func (db *DB) ListAllAnalyses(ctx context.Context) ([]types.AnalysisRecord, error) {
	return db.listAnalyses(ctx,
		`SELECT `+analysisColumns+` FROM skill_analysis ORDER BY created_at DESC`,
	)
}

func (db *DB) listAnalyses(ctx context.Context, query string, args ...any) ([]types.AnalysisRecord, error) {
	rows, err := db.pool.Query(ctx, query, args...)
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

func scanAnalysis(row pgx.Row) (*types.AnalysisRecord, error) {
	var rec types.AnalysisRecord
	var source string
	var cols AnalysisColumns
	err := row.Scan(&rec.ID, &rec.UserID, &rec.CareerRole, &rec.ReadinessScore,
		&cols.Matched, &cols.Missing, &cols.Recommended, &cols.Roadmap, &source, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Source = types.AnalysisSource(source)
	if err := cols.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
