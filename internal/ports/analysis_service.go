package ports

import (
	"context"
	"io"
	"strconv"

	"github.com/Vovarama1992/voicecheck/internal/models"
)

type AnalysisEvent struct {
	RoomID     string
	UserID     int
	AnalysisID int
	Prediction string
	Confidence float64
}

type Upload struct {
	Filename string
	Body     io.Reader
}

type AnalysisResult struct {
	AnalysisID int
	Prediction string
	Confidence float64 // 0..1
}

type AnalysisProcessor interface {
	Analyze(ctx context.Context, userID int, up Upload) (*AnalysisResult, error)
	Recent(ctx context.Context, userID int, limit int) ([]models.VoiceAnalysis, error)
	Get(ctx context.Context, userID, analysisID int) (*models.VoiceAnalysis, error)
	OpenAudio(ctx context.Context, userID, analysisID int) (io.ReadCloser, *models.VoiceAnalysis, error)
	Events() <-chan AnalysisEvent
}

// UserRoom names the websocket room that receives a user's events.
func UserRoom(userID int) string {
	return "user:" + strconv.Itoa(userID)
}
