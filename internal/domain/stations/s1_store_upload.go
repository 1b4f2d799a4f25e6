package stations

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"

	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const uploadStampLayout = "20060102_150405"

type S1StoreUpload struct {
	store ports.FileStore
	log   *logger.ZapLogger
	now   func() time.Time
	token func() string
}

func NewS1StoreUpload(store ports.FileStore, log *logger.ZapLogger) *S1StoreUpload {
	return &S1StoreUpload{store: store, log: log, now: time.Now, token: shortToken}
}

func shortToken() string {
	return uuid.NewString()[:8]
}

// Run saves data under "<YYYYMMDD_HHMMSS>_<token>_<secure name>" and returns
// the sanitised name and the storage key. The token keeps same-named uploads
// from different requests in the same second apart.
func (s *S1StoreUpload) Run(ctx context.Context, filename string, data []byte) (string, string, error) {
	secure, err := SecureFilename(filename)
	if err != nil {
		return "", "", err
	}
	key := s.now().Format(uploadStampLayout) + "_" + s.token() + "_" + secure

	if err := s.store.Save(ctx, key, bytes.NewReader(data)); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[S1][FAIL]",
			Fields:  map[string]any{"key": key},
			Error:   err,
		})
		return "", "", fmt.Errorf("save upload: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S1][OK]",
		Fields:  map[string]any{"key": key, "bytes": len(data)},
	})
	return secure, key, nil
}
