package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/config"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	configFile   string
	outputFormat string
	iccProfile   string
)

var rootCmd = &cobra.Command{
	Use:   "invoice-composer",
	Short: "Compose PDF/A-3 invoices with embedded e-invoice XML",
	Long: `Invoice Composer renders invoices to paginated PDF documents and embeds a
machine-readable e-invoice so the result is a hybrid PDF/A-3 invoice.

Supports:
  - Schema A: UN/CEFACT Cross Industry Invoice (factur-x.xml)
  - Schema B: UBL 2.1 Invoice (xrechnung.xml)
  - Integrity seals over the finished document

Examples:
  # Generate a hybrid invoice
  invoice-composer generate invoice.toml -o invoice.pdf

  # Print the e-invoice XML only
  invoice-composer xml invoice.toml --profile ubl

  # Embed existing XML into an existing PDF
  invoice-composer embed scan.pdf invoice.xml -o hybrid.pdf

  # Show what a document carries
  invoice-composer inspect hybrid.pdf`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (TOML)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Report format (json, table)")
	rootCmd.PersistentFlags().StringVar(&iccProfile, "icc", "", "ICC output profile (env: INVOICE_COMPOSER_ICC)")
}

// loadConfig reads the config file and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if iccProfile != "" {
		cfg.Resources.ICCProfile = iccProfile
	}
	return cfg, nil
}
