package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"leadprep/services"
	"leadprep/storage"
	"leadprep/utils"
)

// PushHistory lists recorded push runs. *storage.PushLog satisfies it.
type PushHistory interface {
	Recent(ctx context.Context, file string, limit int) ([]storage.PushRun, error)
}

// Server exposes file management, reshaping and delivery over HTTP.
type Server struct {
	Files    *services.FileService
	Reshaper *services.Reshaper
	Pusher   *services.Pusher
	Summary  *services.SummaryService
	// History is nil when the push ledger is disabled.
	History PushHistory

	MaxUploadBytes int64
	CORSOrigins    []string

	logger *utils.Logger
}

func NewServer(logger *utils.Logger) *Server {
	return &Server{logger: logger, MaxUploadBytes: 50 << 20}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/files", func(r chi.Router) {
		r.Get("/", s.listFiles)
		r.Post("/", s.uploadFile)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.downloadFile)
			r.Delete("/", s.deleteFile)
			r.Post("/process", s.processFile)
			r.Post("/push", s.pushFile)
			r.Get("/summary", s.summarizeFile)
		})
	})

	r.Get("/pushes", s.listPushes)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("[api] %s %s → %d (%d bytes) in %v [%s]",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}
