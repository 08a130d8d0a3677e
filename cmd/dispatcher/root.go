package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"task-dispatcher/internal/api"
	"task-dispatcher/internal/config"
	"task-dispatcher/internal/db"
	"task-dispatcher/internal/dispatcher"
	"task-dispatcher/internal/logger"
)

var (
	envFile     string
	workerCount int
	workerMode  string
)

var rootCmd = &cobra.Command{
	Use:   "dispatcher",
	Short: "Master-worker task dispatcher",
	Long: `dispatcher reads arithmetic and file-reading tasks from stdin,
hands them to a pool of worker processes and prints results as they arrive.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runDispatcher,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the master and an interactive session (default)",
	Args:  cobra.NoArgs,
	RunE:  runDispatcher,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to .env file")
	rootCmd.PersistentFlags().IntVarP(&workerCount, "workers", "w", 0, "number of workers (overrides WORKER_COUNT)")
	rootCmd.PersistentFlags().StringVar(&workerMode, "mode", "", "worker mode: process or inproc (overrides WORKER_MODE)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(runCmd, workerCmd, hashPasswordCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(envFile); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if workerCount < 0 {
		return fmt.Errorf("--workers must not be negative")
	}
	if workerCount > 0 {
		config.AppConfig.WorkerCount = workerCount
	}
	switch workerMode {
	case "":
	case config.WorkerModeProcess, config.WorkerModeInproc:
		config.AppConfig.WorkerMode = workerMode
	default:
		return fmt.Errorf("--mode must be %q or %q", config.WorkerModeProcess, config.WorkerModeInproc)
	}
	return nil
}

func runDispatcher(cmd *cobra.Command, args []string) error {
	cfg := config.AppConfig
	logger.InitMasterLogger(cfg.LogFilePath, cfg.LogLevel)
	defer logger.CloseLogger()

	opts := dispatcher.OptionsFromConfig(os.Stdout)
	if cfg.ResultsDBPath != "" {
		if err := db.InitDB(cfg.ResultsDBPath); err != nil {
			return fmt.Errorf("failed to open results journal: %w", err)
		}
		defer db.CloseDB()
		opts.Journal = db.Journal{}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := dispatcher.NewMaster(opts)
	if err := m.Start(ctx); err != nil {
		logger.ERROR.Printf("Master: startup failed: %v", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	apiCtx, cancelAPI := context.WithCancel(gctx)
	defer cancelAPI()

	g.Go(func() error {
		defer cancelAPI()
		return m.Run(gctx, os.Stdin, os.Stdout)
	})

	if cfg.APIPort != "" {
		router := api.NewRouter(&api.Handler{Dispatcher: m, JournalEnabled: cfg.ResultsDBPath != ""})
		g.Go(func() error {
			return api.Serve(apiCtx, ":"+cfg.APIPort, router)
		})
	}

	return g.Wait()
}
