// Package mcp exposes fleet scans, the latest snapshot and dashboard parsing as MCP tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/config"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/orchestrate"
	"vrm-observer/pkg/snapshot"
	"vrm-observer/pkg/storage"
)

const (
	serverName    = "vrm-observer"
	serverVersion = "1.0.0"
)

// FleetScanner runs fleet scans reporting per-appliance completion
type FleetScanner interface {
	ScanWithProgress(ctx context.Context, vrms []models.VRM, progress orchestrate.ProgressFunc) *models.Snapshot
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
	Scanner    FleetScanner
	Snapshots  *snapshot.Store   // Defaults to a fresh store
	Scans      storage.ScanStore // Optional, adds last scan outcomes to list_vrms
}

// Server wraps the MCP server with the observer's tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Scanner == nil {
		return nil, fmt.Errorf("Scanner is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Snapshots == nil {
		cfg.Snapshots = snapshot.NewStore()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	listVRMsTool := mcp.NewTool("list_vrms",
		mcp.WithDescription("List the configured VRM appliances with the outcome of their last scan"),
	)
	s.mcpServer.AddTool(listVRMsTool, s.handleListVRMs)

	scanFleetTool := mcp.NewTool("scan_fleet",
		mcp.WithDescription("Start a background scan of the configured appliances. Returns immediately with a job ID."),
		mcp.WithString("vrms",
			mcp.Description("Comma-separated hosts or names to scan (defaults to every configured VRM)"),
		),
	)
	s.mcpServer.AddTool(scanFleetTool, s.handleScanFleet)

	getScanStatusTool := mcp.NewTool("get_scan_status",
		mcp.WithDescription("Get the status of a scan job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by scan_fleet"),
		),
	)
	s.mcpServer.AddTool(getScanStatusTool, s.handleGetScanStatus)

	getSnapshotTool := mcp.NewTool("get_snapshot",
		mcp.WithDescription("Return the latest fleet snapshot"),
		mcp.WithString("view",
			mcp.Description("summary (default), cameras, vrms or full"),
		),
		mcp.WithNumber("max_cameras",
			mcp.Description("Maximum cameras returned by the cameras view (default: 200, max: 5000)"),
		),
	)
	s.mcpServer.AddTool(getSnapshotTool, s.handleGetSnapshot)

	parseDashboardTool := mcp.NewTool("parse_dashboard",
		mcp.WithDescription("Parse a saved VRM dashboard file (HTML or MHTML) and return its sections and device metrics"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the dashboard file on the server"),
		),
	)
	s.mcpServer.AddTool(parseDashboardTool, s.handleParseDashboard)

	s.log.Infof("Registered %d MCP tools", 5)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running scan jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
