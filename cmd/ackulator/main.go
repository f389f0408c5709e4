package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joshua-maros/ackulator/internal/config"
	"github.com/joshua-maros/ackulator/internal/logging"
)

var (
	// Global flags
	verbose     bool
	workspace   string
	epsilon     string
	fatalChecks bool
	noCatalog   bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ackulator",
	Short: "ackulator - dimensional reasoning calculator",
	Long: `ackulator is a calculator that reasons about quantities, not just numbers.

Values carry units and dimensions, arithmetic is exact rational, and a
Datalog kernel chains rules over declared entities so laws like
Area = Pi * R^2 apply themselves to whatever you declare.

Run without arguments to start the interactive REPL.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(resolveWorkspace()); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the REPL
		return runRepl(cmd, args)
	},
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ackulator version",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.DefaultConfig()
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	},
}

func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// loadConfig loads the workspace config and layers explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.DefaultPath(resolveWorkspace()))
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("epsilon") {
		cfg.Comparison.Epsilon = epsilon
	}
	if cmd.Flags().Changed("fatal-checks") {
		cfg.Checks.FatalFailures = fatalChecks
	}
	if cmd.Flags().Changed("no-catalog") {
		cfg.Catalog.StandardUnits = !noCatalog
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&epsilon, "epsilon", "", "Relative comparison tolerance, e.g. 1e-9; 0 compares exactly")
	rootCmd.PersistentFlags().BoolVar(&fatalChecks, "fatal-checks", false, "Treat failed checks as fatal errors")
	rootCmd.PersistentFlags().BoolVar(&noCatalog, "no-catalog", false, "Start without the standard units catalog")

	// Add commands to root
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
