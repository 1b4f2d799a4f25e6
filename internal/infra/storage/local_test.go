package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir() + "/uploads")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "20240101_120000_clip.wav", strings.NewReader("RIFF")))

	rc, err := store.Open(ctx, "20240101_120000_clip.wav")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))

	require.NoError(t, store.Delete(ctx, "20240101_120000_clip.wav"))
	require.NoError(t, store.Delete(ctx, "20240101_120000_clip.wav"))

	_, err = store.Open(ctx, "20240101_120000_clip.wav")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../x.wav", "/etc/passwd", "a/../../x", `a\b.wav`} {
		err := store.Save(ctx, key, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
