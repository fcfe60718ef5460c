// Package server exposes the latest fleet snapshot, scans, uploads and exports over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vrm-observer/pkg/config"
	"vrm-observer/pkg/metrics"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/orchestrate"
	"vrm-observer/pkg/snapshot"
	"vrm-observer/pkg/storage"
)

// Scanner produces snapshots from live appliances or uploaded files
type Scanner interface {
	Scan(ctx context.Context, vrms []models.VRM) *models.Snapshot
	Import(label string, files []orchestrate.UploadFile) *models.Snapshot
}

// Server holds the dependencies of the HTTP API
type Server struct {
	appCfg    *config.AppConfig
	scanner   Scanner
	snapshots *snapshot.Store
	scans     storage.ScanStore // Optional
	metrics   *metrics.Metrics  // Optional
	log       *logrus.Entry

	scanMu     sync.Mutex // Held while a scan or import replaces the snapshot
	router     http.Handler
	httpServer *http.Server
}

// NewServer wires the API. scans and m may be nil.
func NewServer(appCfg *config.AppConfig, scanner Scanner, snapshots *snapshot.Store, scans storage.ScanStore, m *metrics.Metrics, log *logrus.Entry) *Server {
	s := &Server{
		appCfg:    appCfg,
		scanner:   scanner,
		snapshots: snapshots,
		scans:     scans,
		metrics:   m,
		log:       log,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.appCfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.WithField("addr", s.appCfg.ListenAddr).Info("HTTP API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.log.Info("Shutting down HTTP API")
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
