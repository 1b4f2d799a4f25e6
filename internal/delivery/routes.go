package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hAuth *AuthHandler, hAnalysis *AnalysisHandler) {
	r.Get("/", hAuth.Index)

	r.Get("/register", hAuth.RegisterPage)
	r.Post("/register", hAuth.Register)
	r.Get("/login", hAuth.LoginPage)
	r.Post("/login", hAuth.Login)
	r.Get("/logout", hAuth.Logout)

	r.Get("/dashboard", hAnalysis.Dashboard)
	r.Post("/analyze", hAnalysis.Analyze)
	r.Get("/result/{id}", hAnalysis.Result)
	r.Get("/result/{id}/audio", hAnalysis.ResultAudio)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}
