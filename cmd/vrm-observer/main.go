package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/config"
	"vrm-observer/pkg/export"
	"vrm-observer/pkg/fetch"
	logpkg "vrm-observer/pkg/log"
	"vrm-observer/pkg/metrics"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/orchestrate"
	"vrm-observer/pkg/server"
	"vrm-observer/pkg/snapshot"
	"vrm-observer/pkg/storage"
	"vrm-observer/pkg/utils"
	"vrm-observer/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(os.Args[2:])
	case "parse":
		runParse(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-vrms":
		runListVRMs(os.Args[2:])
	case "version":
		fmt.Printf("vrm-observer %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `vrm-observer - VRM appliance telemetry collector

Usage:
  vrm-observer <command> [options]

Commands:
  scan        Scan appliances once and print the snapshot
  parse       Parse a saved dashboard file (HTML or MHTML)
  import      Build a snapshot from manually saved appliance pages
  serve       Start the HTTP API
  watch       Rescan appliances on a schedule
  mcp-server  Start MCP server for AI tool integration
  validate    Validate configuration file
  list-vrms   List configured appliances
  version     Show version info

Run 'vrm-observer <command> -h' for command-specific help.`)
}

// commonFlags registers the flags shared by every config-driven subcommand
func commonFlags(fs *flag.FlagSet) (configFile, envFile *string) {
	configFile = fs.String("config", "config.yaml", "Path to config file")
	envFile = fs.String("env", ".env", "Environment file with DBG_USER, DBG_PASS, VRMS, PORT overrides")
	return configFile, envFile
}

// loadConfig loads the config file and environment overrides, then applies defaults.
// Notes and validation warnings are returned together.
func loadConfig(path, envFile string) (*config.AppConfig, []string, error) {
	appCfg, notes, err := config.Load(path, envFile)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, append(notes, warnings...), err
	}
	return appCfg, append(notes, warnings...), nil
}

// setupLogger creates the process logger, falling back to info on a bad level
func setupLogger(logLevelStr string, out io.Writer) *logrus.Logger {
	log, err := logpkg.NewLogger(logLevelStr, out)
	if err != nil {
		log.Warnf("%v, using default 'info'", err)
	}
	return log
}

// loadAndValidateConfig loads the config and logs its warnings. Fatal on error.
func loadAndValidateConfig(configFile, envFile string, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", configFile)
	appCfg, notes, err := loadConfig(configFile, envFile)
	for _, n := range notes {
		log.Warn(n)
	}
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logAppConfig(appCfg, log)
	return appCfg
}

// splitList splits a comma-separated flag value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// engine bundles the components a live scan needs
type engine struct {
	orch    *orchestrate.Orchestrator
	store   *storage.BadgerStore // nil when opened without a store
	metrics *metrics.Metrics
}

// Close releases the state database
func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// newEngine builds the downloader, optional state store, metrics and orchestrator
func newEngine(ctx context.Context, appCfg *config.AppConfig, withStore bool, log *logrus.Logger) (*engine, error) {
	e := &engine{metrics: metrics.NewMetrics()}

	var observerStore storage.ObserverStore
	if withStore {
		store, err := storage.NewBadgerStore(appCfg.StateDir, log.WithField("component", "store"))
		if err != nil {
			return nil, err
		}
		e.store = store
		observerStore = store
		go store.RunGC(ctx, 10*time.Minute)
	}

	downloader := fetch.NewDownloaderFromConfig(appCfg, log.WithField("component", "fetch"))
	go downloader.Hosts().RunEviction(ctx, time.Minute)

	e.orch = orchestrate.NewOrchestrator(appCfg, downloader, observerStore, e.metrics, log.WithField("component", "scan"))
	return e, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. A second signal forces exit.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// startPprof starts the pprof HTTP server if addr is non-empty.
func startPprof(addr string, log *logrus.Logger) {
	if addr != "" {
		go func() {
			log.Infof("Starting pprof server at http://%s/debug/pprof/", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Errorf("pprof server error: %v", err)
			}
		}()
	}
}

// runScan handles the scan subcommand
func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)
	vrms := fs.String("vrms", "", "Comma-separated hosts or names to scan (default: all)")
	format := fs.String("format", "json", "Output format (json, cameras-csv, vrms-csv)")
	outFile := fs.String("out", "", "Write output to this file instead of stdout")
	noStore := fs.Bool("no-store", false, "Do not open the state database (no scan records or dashboard copies)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	pprofAddr := fs.String("pprof", "", "pprof address, e.g. localhost:6060 (disabled by default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer scan [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer scan\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer scan -vrms 10.0.0.1,VRM-North -format cameras-csv -out cameras.csv\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel, os.Stderr)
	startPprof(*pprofAddr, log)

	ctx, stop := signalContext(log)
	defer stop()

	var out *os.File
	stdout := io.Writer(os.Stdout)
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			log.Fatalf("Cannot create output file: %v", err)
		}
		out = f
		stdout = f
	}

	exitCode := doScan(ctx, scanOptions{
		ConfigPath: *configFile,
		EnvFile:    *envFile,
		Selectors:  splitList(*vrms),
		Format:     *format,
		WithStore:  !*noStore,
	}, log, stdout, os.Stderr)
	if out != nil {
		if err := out.Close(); err != nil {
			log.Errorf("Failed to close output file: %v", err)
			exitCode = 1
		}
	}
	stop()
	os.Exit(exitCode)
}

// scanOptions holds the scan subcommand settings
type scanOptions struct {
	ConfigPath string
	EnvFile    string
	Selectors  []string
	Format     string
	WithStore  bool
}

// doScan runs one fleet scan and writes the snapshot in the requested format.
// Returns exit code (0 = at least one appliance answered, 1 = error or every appliance failed).
func doScan(ctx context.Context, opts scanOptions, log *logrus.Logger, stdout, stderr io.Writer) int {
	write, err := snapshotWriter(opts.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	appCfg, notes, err := loadConfig(opts.ConfigPath, opts.EnvFile)
	for _, n := range notes {
		log.Warn(n)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	vrms, err := orchestrate.SelectVRMs(appCfg, opts.Selectors)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(vrms) == 0 {
		fmt.Fprintln(stderr, "Error: No VRMs configured")
		return 1
	}

	e, err := newEngine(ctx, appCfg, opts.WithStore, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer e.Close()

	snap := e.orch.Scan(ctx, vrms)
	if err := write(stdout, snap); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if ctx.Err() != nil {
		log.Warn("Scan cancelled, snapshot is incomplete.")
		return 1
	}
	failed := 0
	for _, r := range snap.VRMs {
		if r.Error != "" {
			failed++
		}
	}
	if failed == len(snap.VRMs) {
		log.Error("Every appliance failed.")
		return 1
	}
	log.Infof("Scan completed: %d cameras from %d/%d VRMs.", snap.Summary.Total, len(snap.VRMs)-failed, len(snap.VRMs))
	return 0
}

// snapshotWriter returns the encoder for an output format
func snapshotWriter(format string) (func(io.Writer, *models.Snapshot) error, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return writeJSON, nil
	case "cameras-csv":
		return func(w io.Writer, snap *models.Snapshot) error {
			return export.WriteCameras(w, snap.Cameras)
		}, nil
	case "vrms-csv":
		return func(w io.Writer, snap *models.Snapshot) error {
			return export.WriteVRMs(w, snap.VRMStats)
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (supported: json, cameras-csv, vrms-csv)", format)
	}
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v *models.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runParse handles the parse subcommand
func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer parse <dashboard.html|dashboard.mhtml>\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	exitCode := doParse(fs.Arg(0), os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doParse parses one saved dashboard file and prints the result as JSON.
// Returns exit code (0 = success, 1 = error).
func doParse(path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	res := orchestrate.ParseUpload(filepath.Base(path), data)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if res.ParseError != "" {
		fmt.Fprintf(stderr, "Error: dashboard not parsed: %s\n", res.ParseError)
		return 1
	}
	return 0
}

// runImport handles the import subcommand
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	label := fs.String("label", orchestrate.DefaultImportLabel, "Appliance label used in the snapshot")
	format := fs.String("format", "json", "Output format (json, cameras-csv, vrms-csv)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer import [options] <file>...\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFiles named showCameras*, showDevices* and showTargets* are read as debug tables;\nanything else is read as the dashboard.\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel, os.Stderr)
	exitCode := doImport(*label, fs.Args(), *format, log, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doImport builds a single-appliance snapshot from saved pages.
// Returns exit code (0 = success, 1 = error or nothing usable).
func doImport(label string, paths []string, format string, log *logrus.Logger, stdout, stderr io.Writer) int {
	write, err := snapshotWriter(format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	files := make([]orchestrate.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		files = append(files, orchestrate.UploadFile{Name: filepath.Base(p), Data: data})
	}

	orch := orchestrate.NewOrchestrator(&config.AppConfig{}, nil, nil, nil, log.WithField("component", "import"))
	snap := orch.Import(label, files)
	if err := write(stdout, snap); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if snap.VRMs[0].Error != "" {
		fmt.Fprintf(stderr, "Error: %s\n", snap.VRMs[0].Error)
		return 1
	}
	return 0
}

// runServe handles the serve subcommand
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)
	addr := fs.String("addr", "", "Listen address (overrides listen_addr and PORT)")
	watchInterval := fs.String("watch", "", "Also rescan every appliance on this interval (e.g., 15m, 1h)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	pprofAddr := fs.String("pprof", "", "pprof address, e.g. localhost:6060 (disabled by default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer serve -addr :3000\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer serve -watch 30m\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	executeServe(*configFile, *envFile, *addr, *watchInterval, *logLevel, *pprofAddr)
}

// executeServe runs the HTTP API, optionally with a watch scheduler feeding the same snapshot
func executeServe(configFile, envFile, addr, watchIntervalStr, logLevelStr, pprofAddr string) {
	log := setupLogger(logLevelStr, os.Stderr)
	appCfg := loadAndValidateConfig(configFile, envFile, log)
	if addr != "" {
		appCfg.ListenAddr = addr
	}
	startPprof(pprofAddr, log)

	ctx, stop := signalContext(log)
	defer stop()

	e, err := newEngine(ctx, appCfg, true, log)
	if err != nil {
		log.Fatalf("Failed to initialize scan engine: %v", err)
	}
	defer e.Close()

	snapshots := snapshot.NewStore()
	srv := server.NewServer(appCfg, e.orch, snapshots, e.store, e.metrics, log.WithField("component", "server"))

	if watchIntervalStr == "" {
		watchIntervalStr = appCfg.WatchInterval
	}
	if watchIntervalStr != "" {
		interval, err := watch.ParseInterval(watchIntervalStr)
		if err != nil {
			log.Fatalf("Invalid watch interval: %v", err)
		}
		scheduler := watch.NewScheduler(e.orch, appCfg.VRMList(), interval, appCfg.StateDir,
			func(snap *models.Snapshot) { snapshots.Replace(snap) },
			log.WithField("component", "watch"))
		go func() {
			<-ctx.Done()
			scheduler.Stop()
		}()
		go func() {
			if err := scheduler.Run(); err != nil {
				log.Errorf("Watch scheduler error: %v", err)
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		log.Errorf("HTTP server error: %v", err)
		stop()
		e.Close()
		os.Exit(1)
	}
	log.Info("HTTP server stopped")
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)
	vrms := fs.String("vrms", "", "Comma-separated hosts or names to watch (default: all)")
	interval := fs.String("interval", "", "Scan interval (e.g., 15m, 1h, 1d); defaults to watch_interval or 1h")
	outFile := fs.String("out", "", "Rewrite this file with the latest snapshot JSON after each scan")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer watch -interval 30m\n")
		fmt.Fprintf(os.Stderr, "  vrm-observer watch -vrms 10.0.0.1 -interval 1h -out latest.json\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	executeWatch(*configFile, *envFile, splitList(*vrms), *interval, *outFile, *logLevel)
}

// executeWatch runs the watch scheduler
func executeWatch(configFile, envFile string, selectors []string, intervalStr, outFile, logLevelStr string) {
	log := setupLogger(logLevelStr, os.Stderr)
	appCfg := loadAndValidateConfig(configFile, envFile, log)

	if intervalStr == "" {
		intervalStr = appCfg.WatchInterval
	}
	if intervalStr == "" {
		intervalStr = "1h"
	}
	interval, err := watch.ParseInterval(intervalStr)
	if err != nil {
		log.Fatalf("Invalid interval: %v", err)
	}
	log.Infof("Watch interval: %v", watch.FormatInterval(interval))

	vrms, err := orchestrate.SelectVRMs(appCfg, selectors)
	if err != nil {
		log.Fatalf("Invalid VRM selection: %v", err)
	}
	if len(vrms) == 0 {
		log.Fatal("No VRMs configured")
	}

	ctx, stop := signalContext(log)
	defer stop()

	e, err := newEngine(ctx, appCfg, true, log)
	if err != nil {
		log.Fatalf("Failed to initialize scan engine: %v", err)
	}
	defer e.Close()

	onSnapshot := func(snap *models.Snapshot) {
		log.WithFields(logrus.Fields{
			"snapshot":  snap.ID,
			"cameras":   snap.Summary.Total,
			"recording": snap.Summary.Recording,
			"offline":   snap.Summary.Offline,
		}).Info("Snapshot ready")
		if outFile == "" {
			return
		}
		if err := writeSnapshotFile(outFile, snap); err != nil {
			log.Errorf("Failed to write snapshot: %v", err)
		}
	}

	scheduler := watch.NewScheduler(e.orch, vrms, interval, appCfg.StateDir, onSnapshot, log.WithField("component", "watch"))
	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()

	if err := scheduler.Run(); err != nil {
		log.Errorf("Watch scheduler error: %v", err)
	}
	log.Info("Watch mode stopped")
}

// writeSnapshotFile replaces path with the snapshot JSON
func writeSnapshotFile(path string, snap *models.Snapshot) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return utils.WrapErrorf(fmt.Errorf("%w: %v", utils.ErrFilesystem, err), "creating %s", tmp)
	}
	if err := writeJSON(f, snap); err != nil {
		f.Close()
		return utils.WrapErrorf(err, "encoding snapshot %s", snap.ID)
	}
	if err := f.Close(); err != nil {
		return utils.WrapErrorf(fmt.Errorf("%w: %v", utils.ErrFilesystem, err), "closing %s", tmp)
	}
	return utils.WrapErrorf(os.Rename(tmp, path), "replacing %s", path)
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, *envFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath, envFile string, stdout, stderr io.Writer) int {
	appCfg, notes, err := loadConfig(configPath, envFile)
	for _, n := range notes {
		fmt.Fprintf(stdout, "WARN: %s\n", n)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	if len(appCfg.VRMs) == 0 {
		fmt.Fprintln(stdout, "WARN: no VRMs configured")
	}
	for _, v := range appCfg.VRMList() {
		fmt.Fprintf(stdout, "OK: [%s]\n", orchestrate.VRMID(v))
	}
	if appCfg.WatchInterval != "" {
		if _, err := watch.ParseInterval(appCfg.WatchInterval); err != nil {
			fmt.Fprintf(stderr, "ERROR: watch_interval: %v\n", err)
			return 1
		}
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListVRMs handles the list-vrms subcommand
func runListVRMs(args []string) {
	fs := flag.NewFlagSet("list-vrms", flag.ExitOnError)
	configFile, envFile := commonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vrm-observer list-vrms [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doListVRMs(*configFile, *envFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doListVRMs lists appliances and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListVRMs(configPath, envFile string, stdout, stderr io.Writer) int {
	appCfg, _, err := loadConfig(configPath, envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "VRMs in %s:\n\n", configPath)
	for _, v := range appCfg.VRMs {
		fmt.Fprintf(stdout, "  %s\n", orchestrate.VRMID(v.ToVRM()))
		fmt.Fprintf(stdout, "    Host: %s\n", v.Host)
		switch {
		case v.User != "":
			fmt.Fprintf(stdout, "    User: %s (own credentials)\n", v.User)
		case appCfg.DebugUser != "":
			fmt.Fprintf(stdout, "    User: %s (global)\n", appCfg.DebugUser)
		default:
			fmt.Fprintln(stdout, "    User: none")
		}
		fmt.Fprintln(stdout)
	}
	return 0
}

// logAppConfig logs the effective global configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Global Config: VRMs:%d, MaxConcurrentVRMs:%d, MaxReqPerHost:%d, DelayPerHost:%v",
		len(appCfg.VRMs), appCfg.MaxConcurrentVRMs, appCfg.MaxRequestsPerHost, appCfg.DelayPerHost)
	log.Infof("Global Config: Schemes:%v, DebugBasePath:%s, DashboardPaths:%v",
		appCfg.Schemes, appCfg.DebugBasePath, appCfg.DashboardPaths)
	log.Infof("Global Config Retries: Max:%d, InitialDelay:%v, MaxDelay:%v",
		appCfg.MaxRetries, appCfg.InitialRetryDelay, appCfg.MaxRetryDelay)
	log.Infof("Global Config: StateDir:%s, PersistDashboards:%t, ScanTimeout:%v",
		appCfg.StateDir, appCfg.PersistDashboards, appCfg.ScanTimeout)
	log.Infof("Global Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d, IdleTimeout:%v, TLSTimeout:%v, DialerTimeout:%v",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost,
		appCfg.HTTPClientSettings.IdleConnTimeout, appCfg.HTTPClientSettings.TLSHandshakeTimeout, appCfg.HTTPClientSettings.DialerTimeout)
}
