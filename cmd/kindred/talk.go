package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/kindred/internal/audio"
	"github.com/kalambet/kindred/internal/audio/device"
	"github.com/kalambet/kindred/internal/config"
	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/netutil"
	"github.com/kalambet/kindred/internal/outbox"
	"github.com/kalambet/kindred/internal/questions"
	"github.com/kalambet/kindred/internal/session"
	"github.com/kalambet/kindred/internal/storage"
	"github.com/kalambet/kindred/internal/stt"
	"github.com/kalambet/kindred/internal/tts"
	"github.com/kalambet/kindred/internal/voice"
)

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Start a spoken conversation (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTalk()
	},
}

func runTalk() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.STT.GroqAPIKey == "" {
		return fmt.Errorf("stt.groq_api_key is not set; talk needs speech recognition")
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(cfg.Log.Level),
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)

	hc, err := netutil.NewHTTPClient(cfg.Net.SOCKSProxy)
	if err != nil {
		return err
	}

	mem, err := memory.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	jobs, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := jobs.Close(); err != nil {
			logger.Warn("closing storage", "error", err)
		}
	}()

	recoverJobs(jobs, logger)

	client, backboard := llm.Build(cfg.LLM, hc, logger)
	synth := tts.Build(cfg.TTS, hc, os.Stdout, logger)

	rec := device.NewRecorder(cfg.Audio.SampleRate, audio.DetectorConfig{
		Threshold:    cfg.Audio.Threshold,
		Silence:      time.Duration(cfg.Audio.SilenceSeconds * float64(time.Second)),
		MaxUtterance: time.Duration(cfg.Audio.MaxRecordSeconds) * time.Second,
	})
	defer rec.Close()

	mic := voice.NewMicrophone(rec, stt.NewGroq(cfg.STT.GroqAPIKey, cfg.STT.BaseURL, cfg.STT.Model, hc), logger)
	speaker := voice.NewSpeaker(synth, device.NewPlayer(), logger)
	speaker.SetMicrophone(mic)

	ctrl := session.New(session.Deps{
		Store:     mem,
		LLM:       client,
		Speaker:   speaker,
		Listener:  mic,
		Outbox:    outbox.NewQueue(jobs),
		Questions: questions.New(nil, nil),
		Logger:    logger,
	}, session.Options{
		HistorySize:     cfg.Session.HistorySize,
		SilenceTimeout:  time.Duration(cfg.Session.SilenceTimeoutSeconds) * time.Second,
		GreetingWait:    time.Duration(cfg.Session.GreetingWaitSeconds) * time.Second,
		MonitorInterval: time.Duration(cfg.Session.MonitorIntervalSeconds) * time.Second,
	})

	ctx, stop := signalContext()
	defer stop()
	prepareOllama(ctx, cfg.LLM, logger)

	// The speaker outlives the controller so the goodbye can be heard.
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()
	g, gctx := errgroup.WithContext(workCtx)
	g.Go(func() error { return mic.Run(gctx) })
	g.Go(func() error { return speaker.Run(gctx) })
	if backboard != nil {
		worker := outbox.NewWorker(jobs, backboard, 0)
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	// A failed audio worker ends the conversation too.
	sessCtx, endSession := context.WithCancel(ctx)
	defer endSession()
	context.AfterFunc(gctx, endSession)

	printStep("Listening. Say goodbye or press Ctrl+C to end.")
	runErr := ctrl.Run(sessCtx)

	stopWork()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("audio: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	printSuccess("Session %s ended", ctrl.ID())
	return nil
}
