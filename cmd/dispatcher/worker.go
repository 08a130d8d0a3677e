package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"task-dispatcher/internal/config"
	"task-dispatcher/internal/dispatcher"
	"task-dispatcher/internal/logger"
)

var (
	workerID     int
	workerSocket string
)

// workerCmd запускается мастером, руками его не вызывают
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run a single worker connected to the master",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerID, "id", 0, "worker id")
	workerCmd.Flags().StringVar(&workerSocket, "socket", "", "master queue socket")
	_ = workerCmd.MarkFlagRequired("socket")
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Ctrl+C приходит всей группе процессов; остановкой управляет мастер
	signal.Ignore(os.Interrupt)

	cfg := config.AppConfig
	logger.InitWorkerLogger(cfg.LogFilePath, cfg.LogLevel, workerID)
	defer logger.CloseLogger()

	if err := dispatcher.ServeWorker(context.Background(), workerID, workerSocket, cfg.WorkerMaxGetFailures); err != nil {
		logger.ERROR.Printf("Worker %d: %v", workerID, err)
		return fmt.Errorf("worker %d: %w", workerID, err)
	}
	return nil
}
