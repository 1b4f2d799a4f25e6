package sqlite

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "voice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(openTestStore(t))

	u, err := users.CreateUser(ctx, &models.User{Username: "alice", Email: "a@example.com", Password: "hash"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = users.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrDuplicateUsername)

	_, err = users.CreateUser(ctx, &models.User{Username: "bob", Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, ports.ErrDuplicateEmail)

	got, err := users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	byID, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	missing, err := users.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalysisRepo(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	users := NewUserRepo(store)
	analyses := NewAnalysisRepo(store)

	u, err := users.CreateUser(ctx, &models.User{Username: "alice", Email: "a@example.com", Password: "hash"})
	require.NoError(t, err)
	other, err := users.CreateUser(ctx, &models.User{Username: "bob", Email: "b@example.com", Password: "hash"})
	require.NoError(t, err)

	conf := 0.87
	var ids []int
	for i := 0; i < 12; i++ {
		a, err := analyses.InsertAnalysis(ctx, &models.VoiceAnalysis{
			UserID:     u.ID,
			Filename:   "clip.wav",
			FilePath:   "20240101_000000_clip.wav",
			Prediction: models.PredictionReal,
			Confidence: &conf,
		})
		require.NoError(t, err)
		ids = append(ids, a.ID)
		time.Sleep(time.Millisecond)
	}
	_, err = analyses.InsertAnalysis(ctx, &models.VoiceAnalysis{
		UserID: other.ID, Filename: "x.mp3", FilePath: "x.mp3", Prediction: models.PredictionFake,
	})
	require.NoError(t, err)

	recent, err := analyses.ListRecentAnalyses(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, ids[11], recent[0].ID)
	assert.Equal(t, ids[2], recent[9].ID)
	for _, a := range recent {
		assert.Equal(t, u.ID, a.UserID)
	}

	got, err := analyses.GetAnalysisByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.87, *got.Confidence, 1e-9)
	assert.Equal(t, models.PredictionReal, got.Prediction)

	missing, err := analyses.GetAnalysisByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalysisRequiresUser(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	analyses := NewAnalysisRepo(store)

	// hold one connection so the pool has to open another
	pinned, err := store.db.Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pinned.Close() })

	for _, pragma := range []struct {
		name string
		want int
	}{
		{"foreign_keys", 1},
		{"busy_timeout", 5000},
	} {
		var got int
		require.NoError(t, pinned.QueryRowContext(ctx, "PRAGMA "+pragma.name).Scan(&got))
		assert.Equal(t, pragma.want, got, "pinned "+pragma.name)
		require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA "+pragma.name).Scan(&got))
		assert.Equal(t, pragma.want, got, "pooled "+pragma.name)
	}

	_, err = analyses.InsertAnalysis(ctx, &models.VoiceAnalysis{
		UserID: 42, Filename: "a.wav", FilePath: "a.wav", Prediction: models.PredictionReal,
	})
	assert.Error(t, err)

	var orphans int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM voice_analyses").Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestDSNCarriesPragmas(t *testing.T) {
	got := dsn("/data/voice.db")
	assert.True(t, strings.HasPrefix(got, "file:/data/voice.db?"), got)
	for _, pragma := range connPragmas {
		assert.Contains(t, got, url.QueryEscape(pragma))
	}
}
