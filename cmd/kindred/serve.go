package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/api"
	"github.com/kalambet/kindred/internal/config"
	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/monitor"
	"github.com/kalambet/kindred/internal/netutil"
	"github.com/kalambet/kindred/internal/outbox"
	"github.com/kalambet/kindred/internal/profile"
	"github.com/kalambet/kindred/internal/storage"
	"github.com/kalambet/kindred/internal/stt"
	"github.com/kalambet/kindred/internal/tts"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web companion server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show web server and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "kindred.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "kindred version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	addr := net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port))
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get("http://" + addr + "/health"); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on %s", addr)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	if cfg.Server.APIToken == "" && cfg.Server.Bind != "127.0.0.1" && cfg.Server.Bind != "localhost" {
		logger.Warn("serving without an API token on a non-loopback address", "bind", cfg.Server.Bind)
	}

	ctx, stop := signalContext()
	defer stop()

	hc, err := netutil.NewHTTPClient(cfg.Net.SOCKSProxy)
	if err != nil {
		return err
	}

	mem, err := memory.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	recoverJobs(store, logger)

	state, err := api.NewWebState(profile.NewManager(store), store, mem.Profile().String("preferred_name"), logger)
	if err != nil {
		return err
	}
	defer state.Close()

	prepareOllama(ctx, cfg.LLM, logger)
	client, backboard := llm.Build(cfg.LLM, hc, logger)
	synth := tts.Build(cfg.TTS, hc, nil, logger)

	var transcriber stt.Transcriber
	if cfg.STT.GroqAPIKey != "" {
		transcriber = stt.NewGroq(cfg.STT.GroqAPIKey, cfg.STT.BaseURL, cfg.STT.Model, hc)
	} else {
		logger.Warn("stt.groq_api_key not set, /api/stt disabled")
	}

	hub := api.NewHub(logger)
	mon := monitor.New(mem, hub, hub, time.Duration(cfg.Session.MonitorIntervalSeconds)*time.Second, logger)
	go func() {
		if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("monitor stopped", "error", err)
		}
	}()

	if backboard != nil {
		go outbox.NewWorker(store, backboard, 0).Run(ctx)
	}

	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			State:  state,
			LLM:    client,
			TTS:    synth,
			STT:    transcriber,
			Events: hub,
			Token:  cfg.Server.APIToken,
			Logger: logger,
		}),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "kindred listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.LoadPartial()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("kindred is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("stopping kindred (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to kindred (PID %d)", pid)
	return nil
}

type healthResponse struct {
	Status string `json:"status"`
}

type ttsCheckResponse struct {
	Engines []string `json:"engines"`
	OK      bool     `json:"ok"`
}

func showStatus(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
		return nil
	}
	var health healthResponse
	if err := decodeJSON(resp, &health); err != nil {
		printStatus("Server", "error (%v)", err)
		return nil
	}
	printStatus("Server", "%s at %s", health.Status, client.baseURL)

	resp, err = client.get(ctx, "/api/tts-check")
	if err != nil {
		return err
	}
	var check ttsCheckResponse
	if err := decodeJSON(resp, &check); err != nil {
		printStatus("Speech", "unknown (%v)", err)
		return nil
	}
	if check.OK {
		printStatus("Speech", "%s", strings.Join(check.Engines, ", "))
	} else {
		printStatus("Speech", "%s", colorize(colorYellow, "no engine configured"))
	}
	return nil
}
