package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Scans and imports may outlive the request timeout
		r.Post("/scan", s.handleScan)
		r.Post("/upload/html", s.handleImport)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/status", s.handleStatus)
			r.Get("/vrms", s.handleListVRMs)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/scans", s.handleScanRecords)
			r.Post("/dashboard/upload", s.handleDashboardUpload)
			r.Get("/export/cameras.csv", s.handleExportCameras)
			r.Get("/export/vrms.csv", s.handleExportVRMs)
		})
	})

	return r
}
