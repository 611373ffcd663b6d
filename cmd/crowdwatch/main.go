// Command crowdwatch reads facility occupancy pages and appends
// timestamped observations to per-source CSV logs.
//
// Usage:
//
//	crowdwatch                            # one pass over the built-in sources
//	crowdwatch -source luzanky            # one pass over one source
//	crowdwatch -config crowdwatch.yaml -daemon
//	crowdwatch -daemon -api 127.0.0.1:8732
//
// Individual source failures are logged and never set the exit code;
// only setup errors (bad config, unknown source name) do.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/crowdwatch"
)

func main() {
	configPath := flag.String("config", "", "path to crowdwatch.yaml config file")
	source := flag.String("source", "all", `source to run, or "all"`)
	daemon := flag.Bool("daemon", false, "keep running, one pass per configured interval")
	apiAddr := flag.String("api", "", "status API listen address (daemon mode only)")
	dataDir := flag.String("data-dir", "", "override the CSV data directory")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *source, *daemon, *apiAddr, *dataDir); err != nil {
		logger.Error("crowdwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, source string, daemon bool, apiAddr, dataDir string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		// A history path derived from the old data dir follows the override.
		if cfg.HistoryDB == filepath.Join(cfg.DataDir, "crowdwatch.db") {
			cfg.HistoryDB = filepath.Join(dataDir, "crowdwatch.db")
		}
		cfg.DataDir = dataDir
	}
	if apiAddr != "" {
		cfg.API.Addr = apiAddr
	}

	w, err := crowdwatch.New(cfg, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if daemon {
		return w.RunDaemon(ctx)
	}

	if source == "" || source == "all" {
		w.RunAll(ctx)
		return nil
	}
	_, err = w.RunSource(ctx, source)
	return err
}

func loadConfig(path string) (*crowdwatch.Config, error) {
	if path == "" {
		return crowdwatch.DefaultConfig(), nil
	}
	return crowdwatch.LoadConfigFile(path)
}
