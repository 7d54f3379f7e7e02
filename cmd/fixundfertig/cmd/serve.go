package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weareuntitled/fixundfertig/internal/server"
)

var (
	serverAddr    string
	serverDebug   bool
	readTimeout   time.Duration
	writeTimeout  time.Duration
	renderTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for rendering invoices.

The API provides endpoints for:
  - POST /api/v1/invoices/render     - Render PDF/A-3b (?format=json for JSON)
  - POST /api/v1/invoices/totals     - Compute totals only
  - POST /api/v1/invoices/xml        - Factur-X XML only
  - POST /api/v1/documents/extract   - Read the XML back out of a PDF
  - GET  /health                     - Health check

Examples:
  # Start server with the configured address
  fixundfertig serve

  # Start on custom port in debug mode
  fixundfertig serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default: server.addr from config)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", time.Minute, "HTTP write timeout")
	serveCmd.Flags().DurationVar(&renderTimeout, "render-timeout", 30*time.Second, "Timeout per render request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serverAddr != "" {
		addr = serverAddr
	}

	config := &server.Config{
		Address:       addr,
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		RenderTimeout: renderTimeout,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Debug:         serverDebug || cfg.Server.Mode == "debug",
		Render:        cfg.Render,
		LogoDir:       cfg.Logos.Dir,
	}

	srv := server.NewServer(config, server.WithLogger(logger))

	fmt.Fprintf(cmd.OutOrStdout(), "Starting server on %s\n", addr)
	if cfg.Logos.Dir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Logos resolved from %s\n", cfg.Logos.Dir)
	}

	return srv.Run(cmd.Context())
}
