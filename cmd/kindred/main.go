// Command kindred is a voice companion that listens, remembers and
// answers out loud.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/config"
	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/ollama"
	"github.com/kalambet/kindred/internal/outbox"
	"github.com/kalambet/kindred/internal/storage"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "kindred",
	Short:         "A voice companion that listens, remembers and talks back",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	rootCmd.AddCommand(talkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(medsCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(memoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// parseLevel maps the log.level key to a slog level. Unknown values mean
// info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// local bundles the on-disk stores the maintenance commands work on.
type local struct {
	mem    *memory.Store
	jobs   *storage.Store
	outbox *outbox.Queue
}

func openLocal(cfg config.Config) (*local, error) {
	mem, err := memory.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}
	jobs, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return &local{mem: mem, jobs: jobs, outbox: outbox.NewQueue(jobs)}, nil
}

func (l *local) Close() {
	if err := l.jobs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

// openLocalFromConfig is the entry point for commands that need no
// provider keys.
var openLocalFromConfig = func() (*local, error) {
	cfg, err := config.LoadPartial()
	if err != nil {
		return nil, err
	}
	return openLocal(cfg)
}

// recoverJobs returns outbox jobs a previous crash left running to the
// queue.
func recoverJobs(store *storage.Store, logger *slog.Logger) {
	n, err := store.RequeueRunning()
	if err != nil {
		logger.Warn("requeueing interrupted jobs", "error", err)
		return
	}
	if n > 0 {
		logger.Info("requeued interrupted jobs", "count", n)
	}
}

// prepareOllama pulls and warms the local fallback model. The local model
// is the last resort, so failures only warn.
func prepareOllama(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) {
	if cfg.OllamaModel == "" {
		return
	}
	if err := ollama.EnsureReady(ctx, ollama.New(cfg.OllamaURL, nil), cfg.OllamaModel, os.Stderr); err != nil {
		logger.Warn("local model unavailable", "model", cfg.OllamaModel, "error", err)
	}
}
