package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weareuntitled/fixundfertig/internal/config"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configPath   string

	appConfig = config.Default()
	configErr error
	logger    = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "fixundfertig",
	Short: "Render German invoices as PDF/A-3b with Factur-X",
	Long: `fixundfertig renders invoices as DIN 5008 letters and embeds the
matching Factur-X BASIC XML, producing a PDF/A-3b e-invoice.

Examples:
  # Render a single invoice
  fixundfertig render invoice.json -o rechnung.pdf

  # Render a directory of invoices
  fixundfertig render invoices/ --out-dir out/

  # Check an invoice without rendering
  fixundfertig validate invoice.json

  # Show what a rendered PDF carries
  fixundfertig inspect rechnung.pdf`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (env: "+config.EnvConfig+")")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if configPath == "" {
		configPath = os.Getenv(config.EnvConfig)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		configErr = err
		return
	}
	appConfig = cfg.ApplyEnv(os.LookupEnv)
	if configPath != "" {
		logger.Debug("config loaded", "path", configPath)
	}
}

// loadedConfig returns the configuration or the error that loading it hit
func loadedConfig() (config.Config, error) {
	return appConfig, configErr
}

func checkFormat() error {
	switch outputFormat {
	case "json", "table":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
