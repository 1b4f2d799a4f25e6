package domain

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/classifier"
	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type memUsers struct {
	mu   sync.Mutex
	next int
	byID map[int]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int]*models.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == u.Username {
			return nil, ports.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return nil, ports.ErrDuplicateEmail
		}
	}
	m.next++
	cp := *u
	cp.ID = m.next
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	return &cp, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type memAnalyses struct {
	mu        sync.Mutex
	rows      []models.VoiceAnalysis
	insertErr error
}

func (m *memAnalyses) InsertAnalysis(_ context.Context, a *models.VoiceAnalysis) (*models.VoiceAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	a.ID = len(m.rows) + 1
	a.AnalyzedAt = time.Now()
	m.rows = append(m.rows, *a)
	return a, nil
}

func (m *memAnalyses) GetAnalysisByID(_ context.Context, id int) (*models.VoiceAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAnalyses) ListRecentAnalyses(_ context.Context, userID int, limit int) ([]models.VoiceAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VoiceAnalysis
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (m *memStore) Save(_ context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = b
	return nil
}

func (m *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

type stubDecoder struct{}

func (stubDecoder) Decode(_ context.Context, _ string, data []byte) (*audio.Clip, error) {
	if string(data) == "garbage" {
		return nil, audio.ErrUnsupportedFormat
	}
	return &audio.Clip{Samples: make([]float64, 8000), SampleRate: 8000}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(*audio.Clip) ([]float64, error) { return []float64{1, 2}, nil }

type stubClassifier struct{}

func (stubClassifier) Predict([]float64) (classifier.Prediction, error) {
	return classifier.Prediction{Class: 1, Probabilities: []float64{0.125, 0.875}}, nil
}
