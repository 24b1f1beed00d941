package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/config"
	"github.com/rezonia/invoice-composer/internal/einvoice"
)

var xmlOutput string

var xmlCmd = &cobra.Command{
	Use:   "xml <invoice>",
	Short: "Encode an invoice as e-invoice XML",
	Long: `Encode a TOML or JSON invoice file as Schema A (CII) or Schema B (UBL) XML
without producing a PDF.

Examples:
  invoice-composer xml invoice.toml
  invoice-composer xml invoice.toml --profile ubl -o xrechnung.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runXML,
}

func init() {
	rootCmd.AddCommand(xmlCmd)

	xmlCmd.Flags().StringVarP(&xmlOutput, "output", "o", "", "Output file (default: stdout)")
	xmlCmd.Flags().StringVarP(&profileName, "profile", "p", "", "E-invoice profile (cii, ubl)")
}

func runXML(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if profileName != "" {
		cfg.Output.Profile = profileName
	}
	profile, err := resolveProfile(cfg)
	if err != nil {
		return err
	}

	inv, err := config.LoadInvoice(args[0])
	if err != nil {
		return err
	}
	enc, err := einvoice.NewRegistry().Get(profile)
	if err != nil {
		return err
	}
	out, err := enc.Encode(inv)
	if err != nil {
		return err
	}

	if xmlOutput == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(xmlOutput, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xmlOutput, err)
	}
	logger.Info("encoded invoice", "file", xmlOutput, "profile", profile, "bytes", len(out))
	return nil
}
