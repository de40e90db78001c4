package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cfgpkg "github.com/KaramelBytes/mixclust/internal/config"
	"github.com/KaramelBytes/mixclust/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	flagLogLevel  string
	flagLogFormat string
	flagLogDir    string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "mixclust",
	Short: "mixclust: bicluster mixed-type tables into typed, globally ordered blocks",
	Long: `mixclust clusters the rows and columns of a table holding numeric and categorical
columns, cuts it into type-homogeneous blocks and orders all blocks along one
global row and column order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mixclust/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "also write JSON logs to this directory (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("log-dir") {
		cfg.LogDir = flagLogDir
	}
}

// effectiveConfig returns the loaded config, or defaults when loading failed.
func effectiveConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		RowClusters: 3,
		ColClusters: 3,
		Linkage:     "ward",
		MaxRows:     cfgpkg.DefaultMaxRows,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// newLogger builds the command logger from config. Logs go to stderr so
// they never mix with command output.
func newLogger() (*logging.Logger, error) {
	c := effectiveConfig()
	lvl, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var useJSON bool
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text":
	case "json":
		useJSON = true
	default:
		return nil, fmt.Errorf("unsupported log format: %s (use text|json)", c.LogFormat)
	}
	return logging.New(logging.Config{
		Level:   lvl,
		Service: "mixclust",
		JSON:    useJSON,
		LogDir:  c.LogDir,
	}), nil
}
