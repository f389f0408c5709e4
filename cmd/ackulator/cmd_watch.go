package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshua-maros/ackulator/internal/runner"
)

// watchCmd reruns scripts as they change
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and rerun scripts as they change",
	Long: `Runs every ` + runner.ScriptExt + ` script under the directory once, then watches
for changes and reruns each script as it settles. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: watchScripts,
}

func watchScripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := runner.New(cfg, os.Stdout)

	// Initial pass over what is already there
	scripts, err := filepath.Glob(filepath.Join(dir, "*"+runner.ScriptExt))
	if err != nil {
		return err
	}
	sort.Strings(scripts)
	if len(scripts) > 0 {
		if _, err := r.RunFiles(ctx, scripts); err != nil {
			return err
		}
	}

	w, err := runner.NewWatcher(r, dir)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("watching %s for %s changes, Ctrl+C to stop\n", dir, runner.ScriptExt)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nstopping")
	w.Stop()

	stats := w.Stats()
	logger.Debug("watch finished",
		zap.Int("files_changed", stats.FilesChanged),
		zap.Int("runs", stats.RunsTriggered),
		zap.Int("failed", stats.RunsFailed))
	return nil
}
