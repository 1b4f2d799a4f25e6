package delivery

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/domain"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	auth   ports.AuthService
	cookie CookieConfig
	log    *logger.ZapLogger
}

func NewAuthHandler(auth ports.AuthService, cookie CookieConfig, log *logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		cookie: cookie,
		log:    log,
	}
}

// GET /
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": CurrentUser(r)})
}

// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":   "register",
		"fields": []string{"username", "email", "password", "confirm_password"},
	})
}

// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}

	var in ports.RegisterInput
	if err := decodeForm(w, r, &in, func(get func(string) string) {
		in.Username = get("username")
		in.Email = get("email")
		in.Password = get("password")
		in.ConfirmPassword = get("confirm_password")
	}); err != nil {
		writeFormError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), in)
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeFlash(w, http.StatusBadRequest, categoryDanger, "All fields are required!")
		return
	case errors.Is(err, domain.ErrPasswordMismatch):
		writeFlash(w, http.StatusBadRequest, categoryDanger, "Passwords do not match!")
		return
	case errors.Is(err, domain.ErrUsernameTaken):
		writeFlash(w, http.StatusConflict, categoryDanger, "Username already exists!")
		return
	case errors.Is(err, domain.ErrEmailTaken):
		writeFlash(w, http.StatusConflict, categoryDanger, "Email already registered!")
		return
	case err != nil:
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "register failed",
			Error:   err,
		})
		writeFlash(w, http.StatusInternalServerError, categoryDanger, "Registration failed. Please try again.")
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "user registered",
		Fields:  map[string]any{"userID": user.ID},
	})
	writeFlash(w, http.StatusCreated, categorySuccess, "Registration successful! Please login.")
}

// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":   "login",
		"fields": []string{"username", "password"},
	})
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if redirectIfLoggedIn(w, r) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeForm(w, r, &req, func(get func(string) string) {
		req.Username = get("username")
		req.Password = get("password")
	}); err != nil {
		writeFormError(w, err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			h.log.Log(logger.LogEntry{
				Level:   "error",
				Message: "login failed",
				Error:   err,
			})
		}
		writeFlash(w, http.StatusUnauthorized, categoryDanger, "Login failed. Check username and password.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "login success",
		Fields:  map[string]any{"userID": user.ID},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"category": categorySuccess,
		"message":  "Login successful!",
		"token":    token,
		"user":     user,
	})
}

// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeFlash(w, http.StatusOK, categoryInfo, "You have been logged out.")
}

func redirectIfLoggedIn(w http.ResponseWriter, r *http.Request) bool {
	if CurrentUser(r) == nil {
		return false
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return true
}

// maxFormBytes caps credential bodies on /register and /login.
const maxFormBytes = 64 << 10

// decodeForm reads a JSON body into dst, or falls back to url-encoded and
// multipart fields through fill. The body is limited to maxFormBytes.
func decodeForm(w http.ResponseWriter, r *http.Request, dst any, fill func(get func(string) string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return err
		}
	} else if err := r.ParseForm(); err != nil {
		return err
	}
	fill(r.PostFormValue)
	return nil
}

func writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeFlash(w, http.StatusRequestEntityTooLarge, categoryDanger, "Request body too large.")
		return
	}
	writeFlash(w, http.StatusBadRequest, categoryDanger, "invalid form: "+err.Error())
}
