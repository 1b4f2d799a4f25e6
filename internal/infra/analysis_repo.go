package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type PostgresAnalysisRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAnalysisRepo(pool *pgxpool.Pool) ports.AnalysisRepository {
	return &PostgresAnalysisRepo{pool: pool}
}

func (r *PostgresAnalysisRepo) InsertAnalysis(ctx context.Context, a *models.VoiceAnalysis) (*models.VoiceAnalysis, error) {
	query := `
		INSERT INTO voice_analyses (user_id, filename, file_path, prediction, confidence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, analyzed_at
	`
	row := r.pool.QueryRow(ctx, query, a.UserID, a.Filename, a.FilePath, a.Prediction, a.Confidence)
	if err := row.Scan(&a.ID, &a.AnalyzedAt); err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return a, nil
}

func (r *PostgresAnalysisRepo) GetAnalysisByID(ctx context.Context, id int) (*models.VoiceAnalysis, error) {
	query := `
		SELECT id, user_id, filename, file_path, prediction, confidence, analyzed_at
		FROM voice_analyses
		WHERE id = $1
	`

	var a models.VoiceAnalysis
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&a.Filename,
		&a.FilePath,
		&a.Prediction,
		&a.Confidence,
		&a.AnalyzedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}
	return &a, nil
}

func (r *PostgresAnalysisRepo) ListRecentAnalyses(ctx context.Context, userID int, limit int) ([]models.VoiceAnalysis, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, filename, file_path, prediction, confidence, analyzed_at
		FROM voice_analyses
		WHERE user_id = $1
		ORDER BY analyzed_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := make([]models.VoiceAnalysis, 0, limit)
	for rows.Next() {
		var a models.VoiceAnalysis
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Filename,
			&a.FilePath,
			&a.Prediction,
			&a.Confidence,
			&a.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
