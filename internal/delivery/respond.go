package delivery

import (
	"encoding/json"
	"net/http"
)

const (
	categorySuccess = "success"
	categoryDanger  = "danger"
	categoryInfo    = "info"
)

// flash mirrors the one-line notices shown after form actions.
type flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFlash(w http.ResponseWriter, status int, category, msg string) {
	writeJSON(w, status, flash{Category: category, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
