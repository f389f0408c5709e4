package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshua-maros/ackulator/internal/runner"
)

// runCmd executes script files
var runCmd = &cobra.Command{
	Use:   "run [scripts...]",
	Short: "Run one or more script files",
	Long: `Runs each script on a fresh session, concurrently, and reports
find, check and show results as they complete. The exit status is nonzero
when any script has a fatal error, a failed find or a failed check.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScripts,
}

func runScripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nRun cancelled")
		cancel()
	}()

	r := runner.New(cfg, os.Stdout)
	reports, err := r.RunFiles(ctx, args)
	if err != nil {
		return err
	}

	failed := 0
	for _, rep := range reports {
		if rep.Failed() {
			failed++
			logger.Debug("script failed",
				zap.String("file", rep.File),
				zap.Duration("duration", rep.Duration),
				zap.Error(rep.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(reports))
	}
	return nil
}
