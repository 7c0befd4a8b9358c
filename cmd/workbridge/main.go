// workbridge serves Databricks and Notion workspaces to agents over the
// Model Context Protocol: newline-delimited JSON-RPC on stdio. Stdout is the
// wire; all logging goes to stderr.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"workbridge/internal/config"
	"workbridge/internal/databricks"
	"workbridge/internal/mcpserver"
	"workbridge/internal/notion"
	"workbridge/internal/tools"
)

const version = "1.0.0"

var (
	// Global flags
	verbose    bool
	configPath string
	watch      bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "workbridge",
	Short: "workbridge - bounded MCP access to compute and document platforms",
	Long: `workbridge exposes Databricks and Notion workspaces to agents as MCP tools.

Every response is bounded: large text fields are truncated with metadata,
lists are windowed, and long-running operations are polled with an explicit
timeout outcome. The agent always gets a payload it can hold.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries protocol frames, so the logger must write to stderr.
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve [platform]",
	Short: "Serve one platform's tools over stdio",
	Long: `Starts an MCP server on stdin/stdout for the given platform.

Platforms:
  - databricks: notebooks, serverless jobs, clusters, interactive execution
  - notion: data source queries, pages, blocks, search, users`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"databricks", "notion"},
	RunE:      runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	platform := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	watcher := config.NewWatcher(cfg, configPath, logger)
	registry := tools.NewRegistry(logger)

	switch platform {
	case "databricks":
		if err := cfg.ValidateDatabricks(); err != nil {
			return err
		}
		client := databricks.NewClient(cfg.Databricks.Host, cfg.Databricks.Token, logger)
		svc := databricks.NewService(client, watcher.Limits, logger)
		if err := svc.RegisterAll(registry); err != nil {
			return err
		}
	case "notion":
		if err := cfg.ValidateNotion(); err != nil {
			return err
		}
		client := notion.NewClient(cfg.Notion.BaseURL, cfg.Notion.APIKey, logger)
		svc := notion.NewService(client, watcher.Limits, logger)
		if err := svc.RegisterAll(registry); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown platform %q (want databricks or notion)", platform)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving",
		zap.String("platform", platform),
		zap.Int("tools", registry.Count()),
		zap.String("version", version))

	g, ctx := errgroup.WithContext(ctx)
	if watch && configPath != "" {
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error {
		srv := mcpserver.New("workbridge-"+platform, version, registry, watcher.Limits, logger)
		return srv.Run(ctx, os.Stdin, os.Stdout)
	})
	return g.Wait()
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&watch, "watch", false, "reload limits when the config file changes")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
