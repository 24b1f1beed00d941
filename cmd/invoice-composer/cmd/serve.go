package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for composing invoices.

The API provides endpoints for:
  - GET  /api/v1/profiles       - List e-invoice profiles
  - POST /api/v1/generate       - Generate a PDF/A-3 invoice from JSON or TOML
  - POST /api/v1/xml/:profile   - Encode e-invoice XML (cii, ubl)
  - POST /api/v1/embed          - Embed XML into a PDF (multipart: pdf, xml)
  - POST /api/v1/inspect        - Report attachments and PDF/A structures
  - POST /api/v1/verify         - Verify an integrity seal
  - POST /api/v1/info           - Get file information
  - GET  /health                - Health check

Examples:
  # Start server on default port
  invoice-composer serve

  # Start with a config file in debug mode
  invoice-composer serve --config composer.toml --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv := server.NewServer(&server.Config{
		Address:      serverAddr,
		Composer:     cfg,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}, server.WithLogger(logger))

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down server")
		os.Exit(0)
	}()

	if cfg.Seal.Key != "" {
		logger.Info("integrity seals enabled")
	} else {
		logger.Info("integrity seals disabled (no key)")
	}
	logger.Info("using color profile", "icc", cfg.Resources.ICCProfile)

	return srv.Run()
}
