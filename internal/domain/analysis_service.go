package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/domain/stations"
	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const eventBuffer = 100

type AnalysisService struct {
	repo  ports.AnalysisRepository
	store ports.FileStore

	s1 *stations.S1StoreUpload
	s2 *stations.S2DecodeAudio
	s3 *stations.S3ExtractFeatures
	s4 *stations.S4Classify

	allowedExts []string
	log         *logger.ZapLogger
	events      chan ports.AnalysisEvent
}

func NewAnalysisService(
	repo ports.AnalysisRepository,
	store ports.FileStore,
	s1 *stations.S1StoreUpload,
	s2 *stations.S2DecodeAudio,
	s3 *stations.S3ExtractFeatures,
	s4 *stations.S4Classify,
	allowedExts []string,
	log *logger.ZapLogger,
) *AnalysisService {
	return &AnalysisService{
		repo:        repo,
		store:       store,
		s1:          s1,
		s2:          s2,
		s3:          s3,
		s4:          s4,
		allowedExts: allowedExts,
		log:         log,
		events:      make(chan ports.AnalysisEvent, eventBuffer),
	}
}

func (m *AnalysisService) Events() <-chan ports.AnalysisEvent { return m.events }

// Analyze stores the upload, classifies it and records the result. The file
// is kept even when classification fails.
func (m *AnalysisService) Analyze(ctx context.Context, userID int, up ports.Upload) (*ports.AnalysisResult, error) {
	start := time.Now()

	if up.Filename == "" || up.Body == nil {
		return nil, ErrNoFile
	}
	if !stations.AllowedFile(up.Filename, m.allowedExts) {
		return nil, ErrInvalidFileType
	}

	data, err := io.ReadAll(up.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	name, key, err := m.s1.Run(ctx, up.Filename, data)
	if errors.Is(err, stations.ErrEmptyFilename) {
		return nil, ErrInvalidFileType
	}
	if err != nil {
		return nil, err
	}

	if !m.s4.Ready() {
		return nil, ErrModelNotLoaded
	}

	clip, err := m.s2.Run(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioProcessing, err)
	}
	features, err := m.s3.Run(clip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioProcessing, err)
	}

	label, confidence, err := m.s4.Run(features)
	if err != nil {
		return nil, err
	}

	row, err := m.repo.InsertAnalysis(ctx, &models.VoiceAnalysis{
		UserID:     userID,
		Filename:   name,
		FilePath:   key,
		Prediction: label,
		Confidence: &confidence,
	})
	if err != nil {
		if delErr := m.store.Delete(ctx, key); delErr != nil {
			m.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[DB][FAIL] orphaned upload not removed",
				Fields:  map[string]any{"key": key},
				Error:   delErr,
			})
		}
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	m.publish(ports.AnalysisEvent{
		RoomID:     ports.UserRoom(userID),
		UserID:     userID,
		AnalysisID: row.ID,
		Prediction: label,
		Confidence: confidence,
	})

	m.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[DONE] analysis stored",
		Fields: map[string]any{
			"analysisID": row.ID,
			"userID":     userID,
			"prediction": label,
			"confidence": confidence,
			"took":       time.Since(start).String(),
		},
	})

	return &ports.AnalysisResult{
		AnalysisID: row.ID,
		Prediction: label,
		Confidence: confidence,
	}, nil
}

// publish drops the event when nobody drains the channel fast enough.
func (m *AnalysisService) publish(ev ports.AnalysisEvent) {
	select {
	case m.events <- ev:
	default:
		m.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[SEND][DROP] event buffer full",
			Fields:  map[string]any{"analysisID": ev.AnalysisID, "room": ev.RoomID},
		})
	}
}

func (m *AnalysisService) Recent(ctx context.Context, userID int, limit int) ([]models.VoiceAnalysis, error) {
	rows, err := m.repo.ListRecentAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return rows, nil
}

func (m *AnalysisService) Get(ctx context.Context, userID, analysisID int) (*models.VoiceAnalysis, error) {
	row, err := m.repo.GetAnalysisByID(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	if row.UserID != userID {
		return nil, ErrForbidden
	}
	return row, nil
}

func (m *AnalysisService) OpenAudio(ctx context.Context, userID, analysisID int) (io.ReadCloser, *models.VoiceAnalysis, error) {
	row, err := m.Get(ctx, userID, analysisID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := m.store.Open(ctx, row.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: audio file missing", ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open audio: %w", err)
	}
	return rc, row, nil
}

var _ ports.AnalysisProcessor = (*AnalysisService)(nil)
