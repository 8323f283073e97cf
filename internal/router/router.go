package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/swift-sage/internal/handlers"
	"github.com/GregMSThompson/swift-sage/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	vh := handlers.NewVoiceHandlers(deps)
	uh := handlers.NewUsageHandlers(deps)

	r.Group(func(r chi.Router) {
		if deps.AuthRequired {
			r.Use(middleware.NewMiddleware(deps.Firebase).FirebaseAuth)
		}
		r.Mount("/api", vh.VoiceRoutes())
		r.Mount("/usage", uh.UsageRoutes())
	})
	return r
}
