package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/owleyes/internal/httpapi/middleware"
	"github.com/hamed0406/owleyes/internal/repo"
)

type Server struct {
	Logger   *zap.Logger
	Projects repo.ProjectStore
	Monitors repo.MonitorStore
	Results  repo.ResultStore
}

func NewServer(l *zap.Logger, ps repo.ProjectStore, ms repo.MonitorStore, rs repo.ResultStore) *Server {
	return &Server{Logger: l, Projects: ps, Monitors: ms, Results: rs}
}

// Router mounts the v1 API. allowedOrigins feeds CORS; publicRPM <= 0
// disables rate limiting.
func (s *Server) Router(allowedOrigins []string, publicRPM, publicBurst int) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{id}", s.handleGetProject)
			r.Put("/{id}", s.handleUpdateProject)
			r.Delete("/{id}", s.handleDeleteProject)
			r.Get("/{id}/monitors", s.handleListProjectMonitors)
			r.Post("/{id}/monitors", s.handleCreateMonitor)
		})

		r.Route("/monitors/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMonitor)
			r.Put("/", s.handleUpdateMonitor)
			r.Delete("/", s.handleDeleteMonitor)
			r.Get("/status", s.handleMonitorStatus)
			r.Get("/badge", s.handleMonitorBadge)
		})
	})

	return r
}
