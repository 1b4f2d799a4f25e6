package ports

import (
	"context"

	"github.com/Vovarama1992/voicecheck/internal/models"
)

type AnalysisRepository interface {
	InsertAnalysis(ctx context.Context, a *models.VoiceAnalysis) (*models.VoiceAnalysis, error)
	GetAnalysisByID(ctx context.Context, id int) (*models.VoiceAnalysis, error)
	ListRecentAnalyses(ctx context.Context, userID int, limit int) ([]models.VoiceAnalysis, error)
}

// Migrator is implemented by repositories that own their schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
