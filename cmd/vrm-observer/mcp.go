package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	logpkg "vrm-observer/pkg/log"
	"vrm-observer/pkg/mcp"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: vrm-observer mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  vrm-observer mcp-server -config config.yaml

  # Start with SSE transport on port 8080
  vrm-observer mcp-server -config config.yaml -transport sse -port 8080

Available MCP Tools:
  list_vrms        List configured appliances and their last scan
  scan_fleet       Start a background fleet scan
  get_scan_status  Check a scan job
  get_snapshot     Read the latest snapshot
  parse_dashboard  Parse a saved dashboard file
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doMcpServer(*configFile, *envFile, *transport, *port, *logLevel, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, envFile, transport string, port int, logLevel string, stdout, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log, err := logpkg.NewLogger(logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %s\n", logLevel)
		return 1
	}

	appCfg, notes, err := loadConfig(configPath, envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	for _, n := range notes {
		log.Warn(n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := newEngine(ctx, appCfg, true, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening state database: %v\n", err)
		return 1
	}
	defer e.Close()

	serverCfg := &mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     log,
		Scanner:    e.orch,
		Scans:      e.store,
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}
	defer server.Shutdown(ctx)

	log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
