package delivery

import (
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/voicecheck/internal/domain"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const multipartMemory = 8 << 20

type AnalysisHandler struct {
	analyses       ports.AnalysisProcessor
	maxBytes       int64
	dashboardLimit int
	log            *logger.ZapLogger
}

func NewAnalysisHandler(analyses ports.AnalysisProcessor, maxBytes int64, dashboardLimit int, log *logger.ZapLogger) *AnalysisHandler {
	return &AnalysisHandler{
		analyses:       analyses,
		maxBytes:       maxBytes,
		dashboardLimit: dashboardLimit,
		log:            log,
	}
}

// POST /analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Please login first")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is "+strconv.FormatInt(h.maxBytes>>20, 10)+" MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a part named "file" without a filename arrives as a plain value
		if _, present := r.MultipartForm.Value["file"]; present {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	res, err := h.analyses.Analyze(r.Context(), user.ID, ports.Upload{
		Filename: header.Filename,
		Body:     file,
	})
	switch {
	case errors.Is(err, domain.ErrNoFile):
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	case errors.Is(err, domain.ErrInvalidFileType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload WAV or MP3.")
		return
	case errors.Is(err, domain.ErrModelNotLoaded):
		writeError(w, http.StatusInternalServerError, "ML model not loaded properly")
		return
	case errors.Is(err, domain.ErrAudioProcessing):
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "audio processing failed",
			Fields:  map[string]any{"userID": user.ID, "filename": header.Filename},
			Error:   err,
		})
		writeError(w, http.StatusBadRequest, "Failed to process audio file")
		return
	case err != nil:
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "analysis failed",
			Fields:  map[string]any{"userID": user.ID, "filename": header.Filename},
			Error:   err,
		})
		writeError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"prediction":  res.Prediction,
		"confidence":  percent(res.Confidence),
		"analysis_id": res.AnalysisID,
	})
}

// GET /dashboard
func (h *AnalysisHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		writeFlash(w, http.StatusUnauthorized, categoryDanger, "Please login to access dashboard.")
		return
	}

	rows, err := h.analyses.Recent(r.Context(), user.ID, h.dashboardLimit)
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "dashboard query failed",
			Fields:  map[string]any{"userID": user.ID},
			Error:   err,
		})
		writeFlash(w, http.StatusInternalServerError, categoryDanger, "Failed to load analyses.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user,
		"analyses": rows,
	})
}

// GET /result/{id}
func (h *AnalysisHandler) Result(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		writeFlash(w, http.StatusUnauthorized, categoryDanger, "Please login to view results.")
		return
	}
	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	row, err := h.analyses.Get(r.Context(), user.ID, id)
	if err != nil {
		h.writeLookupError(w, err, id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     user,
		"analysis": row,
	})
}

// GET /result/{id}/audio
func (h *AnalysisHandler) ResultAudio(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		writeFlash(w, http.StatusUnauthorized, categoryDanger, "Please login to view results.")
		return
	}
	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	rc, row, err := h.analyses.OpenAudio(r.Context(), user.ID, id)
	if err != nil {
		h.writeLookupError(w, err, id)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", audioContentType(row.Filename))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": row.Filename}))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "audio stream interrupted",
			Fields:  map[string]any{"analysisID": id},
			Error:   err,
		})
	}
}

func (h *AnalysisHandler) writeLookupError(w http.ResponseWriter, err error, id int) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeFlash(w, http.StatusNotFound, categoryDanger, "Analysis not found.")
	case errors.Is(err, domain.ErrForbidden):
		writeFlash(w, http.StatusForbidden, categoryDanger, "Access denied.")
	default:
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "analysis lookup failed",
			Fields:  map[string]any{"analysisID": id},
			Error:   err,
		})
		writeFlash(w, http.StatusInternalServerError, categoryDanger, "Failed to load analysis.")
	}
}

func analysisID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeFlash(w, http.StatusNotFound, categoryDanger, "Analysis not found.")
		return 0, false
	}
	return id, true
}

func audioContentType(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".wav", ".wave":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// percent renders a 0..1 probability as a percentage with two decimals.
func percent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
