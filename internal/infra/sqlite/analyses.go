package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type AnalysisRepo struct {
	store *Store
}

func NewAnalysisRepo(store *Store) ports.AnalysisRepository {
	return &AnalysisRepo{store: store}
}

const analysisColumns = `id, user_id, filename, file_path, prediction, confidence, analyzed_at`

func (r *AnalysisRepo) InsertAnalysis(ctx context.Context, a *models.VoiceAnalysis) (*models.VoiceAnalysis, error) {
	now := time.Now().UTC()
	res, err := r.store.execWithRetry(ctx,
		`INSERT INTO voice_analyses (user_id, filename, file_path, prediction, confidence, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Filename, a.FilePath, a.Prediction, a.Confidence, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert analysis id: %w", err)
	}
	a.ID = int(id)
	a.AnalyzedAt = now
	return a, nil
}

func (r *AnalysisRepo) GetAnalysisByID(ctx context.Context, id int) (*models.VoiceAnalysis, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM voice_analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis by id: %w", err)
	}
	return a, nil
}

func (r *AnalysisRepo) ListRecentAnalyses(ctx context.Context, userID int, limit int) ([]models.VoiceAnalysis, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM voice_analyses
		 WHERE user_id = ?
		 ORDER BY analyzed_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []models.VoiceAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.VoiceAnalysis, error) {
	var (
		a          models.VoiceAnalysis
		confidence sql.NullFloat64
		analyzed   string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Filename, &a.FilePath, &a.Prediction, &confidence, &analyzed); err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		a.Confidence = &v
	}
	t, err := parseTime(analyzed)
	if err != nil {
		return nil, fmt.Errorf("parse analyzed_at: %w", err)
	}
	a.AnalyzedAt = t
	return &a, nil
}
