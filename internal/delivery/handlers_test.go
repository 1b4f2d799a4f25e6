package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicecheck/internal/domain"
	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const testToken = "valid-token"

type fakeAuth struct {
	registered []ports.RegisterInput
}

func (f *fakeAuth) Register(_ context.Context, in ports.RegisterInput) (*models.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}
	if in.Username == "taken" {
		return nil, domain.ErrUsernameTaken
	}
	f.registered = append(f.registered, in)
	return &models.User{ID: len(f.registered), Username: in.Username, Email: in.Email}, nil
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (string, *models.User, error) {
	if username == "alice" && password == "pw" {
		return testToken, &models.User{ID: 1, Username: "alice"}, nil
	}
	return "", nil, domain.ErrInvalidCredentials
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if token == testToken {
		return &models.User{ID: 1, Username: "alice"}, nil
	}
	return nil, domain.ErrInvalidToken
}

type fakeAnalyses struct {
	err      error
	lastName string
	lastBody string
}

func (f *fakeAnalyses) Analyze(_ context.Context, _ int, up ports.Upload) (*ports.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(up.Body)
	f.lastName, f.lastBody = up.Filename, string(b)
	return &ports.AnalysisResult{AnalysisID: 42, Prediction: models.PredictionReal, Confidence: 0.912345}, nil
}

func (f *fakeAnalyses) Recent(_ context.Context, userID int, limit int) ([]models.VoiceAnalysis, error) {
	out := make([]models.VoiceAnalysis, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, models.VoiceAnalysis{ID: i + 1, UserID: userID})
	}
	return out, nil
}

func (f *fakeAnalyses) Get(_ context.Context, userID, id int) (*models.VoiceAnalysis, error) {
	switch id {
	case 1:
		return &models.VoiceAnalysis{ID: 1, UserID: userID, Filename: "clip.wav", FilePath: "k_clip.wav"}, nil
	case 2:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrNotFound
	}
}

func (f *fakeAnalyses) OpenAudio(ctx context.Context, userID, id int) (io.ReadCloser, *models.VoiceAnalysis, error) {
	row, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(strings.NewReader("RIFFDATA")), row, nil
}

func (f *fakeAnalyses) Events() <-chan ports.AnalysisEvent { return nil }

func newRouter(analyses *fakeAnalyses, maxBytes int64) http.Handler {
	log := logger.NewZapLogger(zap.NewNop().Sugar())
	auth := &fakeAuth{}
	r := chi.NewRouter()
	r.Use(LoadUser(auth, "session", log))
	RegisterRoutes(r,
		NewAuthHandler(auth, CookieConfig{Name: "session", TTL: time.Hour}, log),
		NewAnalysisHandler(analyses, maxBytes, 10, log),
	)
	return r
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "session", Value: testToken})
	return req
}

func fileUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRegisterFlows(t *testing.T) {
	h := newRouter(&fakeAnalyses{}, 1<<20)

	form := url.Values{"username": {"bob"}, "email": {"b@x"}, "password": {"1"}, "confirm_password": {"2"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match!", body["message"])

	req = httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"username":"taken","email":"t@x","password":"1","confirm_password":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body = do(t, h, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already exists!", body["message"])

	form.Set("confirm_password", "1")
	req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, body = do(t, h, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Registration successful! Please login.", body["message"])

	rec, _ = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/register", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestCredentialBodiesAreCapped(t *testing.T) {
	h := newRouter(&fakeAnalyses{}, 1<<20)
	padding := strings.Repeat("a", maxFormBytes+1)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"`+padding+`","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large.", body["message"])

	form := url.Values{"username": {padding}, "email": {"b@x"}, "password": {"1"}, "confirm_password": {"1"}}
	req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, body = do(t, h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large.", body["message"])

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	h := newRouter(&fakeAnalyses{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Login failed. Check username and password.", body["message"])

	form := url.Values{"username": {"alice"}, "password": {"pw"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, body = do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful!", body["message"])
	assert.Equal(t, testToken, body["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec, body = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/logout", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You have been logged out.", body["message"])
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestIndexAndHeaderToken(t *testing.T) {
	h := newRouter(&fakeAnalyses{}, 1<<20)

	_, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, body["user"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Auth", testToken)
	_, body = do(t, h, req)
	require.NotNil(t, body["user"])
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])
}

func TestAnalyzeResponses(t *testing.T) {
	analyses := &fakeAnalyses{}
	h := newRouter(analyses, 1<<10)

	rec, body := do(t, h, fileUpload(t, "file", "a.wav", []byte("RIFF")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please login first", body["error"])

	rec, body = do(t, h, authed(fileUpload(t, "file", "my.wav", []byte("RIFF"))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Real", body["prediction"])
	assert.InDelta(t, 91.23, body["confidence"], 1e-9)
	assert.EqualValues(t, 42, body["analysis_id"])
	assert.Equal(t, "my.wav", analyses.lastName)
	assert.Equal(t, "RIFF", analyses.lastBody)

	rec, body = do(t, h, authed(fileUpload(t, "other", "a.wav", []byte("RIFF"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", body["error"])

	rec, _ = do(t, h, authed(fileUpload(t, "file", "big.wav", bytes.Repeat([]byte("x"), 4<<10))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.ErrNoFile, http.StatusBadRequest, "No file selected"},
		{domain.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type. Please upload WAV or MP3."},
		{domain.ErrModelNotLoaded, http.StatusInternalServerError, "ML model not loaded properly"},
		{fmt.Errorf("%w: bad header", domain.ErrAudioProcessing), http.StatusBadRequest, "Failed to process audio file"},
		{fmt.Errorf("save analysis: db down"), http.StatusInternalServerError, "Analysis failed: save analysis: db down"},
	}
	for _, tc := range cases {
		analyses.err = tc.err
		rec, body = do(t, h, authed(fileUpload(t, "file", "a.wav", []byte("RIFF"))))
		assert.Equal(t, tc.status, rec.Code, tc.msg)
		assert.Equal(t, tc.msg, body["error"])
	}
}

func TestDashboardAndResults(t *testing.T) {
	h := newRouter(&fakeAnalyses{}, 1<<20)

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please login to access dashboard.", body["message"])

	rec, body = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["analyses"], 10)

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/result/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please login to view results.", body["message"])

	rec, _ = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/result/1", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/result/2", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied.", body["message"])

	rec, _ = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/result/3", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, authed(httptest.NewRequest(http.MethodGet, "/result/1/audio", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RIFFDATA", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "audio/")

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
