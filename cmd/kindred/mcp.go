package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/config"
	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/mcpserver"
	"github.com/kalambet/kindred/internal/netutil"
	"github.com/kalambet/kindred/internal/outbox"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the memory store as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func runMCP() error {
	cfg, err := config.LoadPartial()
	if err != nil {
		return err
	}

	// stdout carries the protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	l, err := openLocal(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signalContext()
	defer stop()

	if cfg.LLM.BackboardAPIKey != "" {
		recoverJobs(l.jobs, logger)
		hc, err := netutil.NewHTTPClient(cfg.Net.SOCKSProxy)
		if err != nil {
			return err
		}
		bb := llm.NewBackboard(cfg.LLM.BackboardAPIKey, cfg.LLM.BackboardBaseURL, hc)
		go outbox.NewWorker(l.jobs, bb, 0).Run(ctx)
	}

	srv := mcpserver.New(mcpserver.Deps{
		Store:   l.mem,
		Outbox:  l.outbox,
		Version: version,
		Logger:  logger,
	})
	logger.Info("MCP server started (stdio transport)", "data_dir", cfg.Storage.DataDir)

	if err := server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}
