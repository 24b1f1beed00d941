package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/seal"
)

var (
	verifyInvoiceID string
	verifySeal      string
	verifySealFile  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <pdf>",
	Short: "Verify the integrity seal of a generated invoice",
	Long: `Recompute the integrity seal of a document and compare it with the expected
value. The document must also carry an associated e-invoice attachment.

The sealing key is read from the config file or INVOICE_COMPOSER_SEAL_KEY.

Examples:
  invoice-composer verify invoice.pdf --id RE-2025-042 --seal 3f2a...
  invoice-composer verify invoice.pdf --id RE-2025-042 --seal-file invoice.seal -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyInvoiceID, "id", "", "Invoice number the seal was issued for")
	verifyCmd.Flags().StringVar(&verifySeal, "seal", "", "Expected seal (hex)")
	verifyCmd.Flags().StringVar(&verifySealFile, "seal-file", "", "File holding the expected seal")
	_ = verifyCmd.MarkFlagRequired("id")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sealer, err := seal.New([]byte(cfg.Seal.Key))
	if err != nil {
		return err
	}

	expected := verifySeal
	if expected == "" && verifySealFile != "" {
		b, err := os.ReadFile(verifySealFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", verifySealFile, err)
		}
		expected = strings.TrimSpace(string(b))
	}
	if expected == "" {
		return fmt.Errorf("either --seal or --seal-file is required")
	}

	pdf, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	result, err := sealer.Verify(ctx, verifyInvoiceID, pdf, expected)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		statusIcon, statusText := "✓", "VALID"
		if !result.Valid {
			statusIcon, statusText = "✗", "INVALID"
		}
		fmt.Fprintf(out, "%s %s: %s\n", statusIcon, args[0], statusText)
		fmt.Fprintf(out, "  Invoice:    %s\n", result.InvoiceID)
		fmt.Fprintf(out, "  Seal:       %s\n", mark(result.SealValid))
		fmt.Fprintf(out, "  Attachment: %s %s\n", mark(result.AttachmentFound), result.Attachment)
		if result.AttachedNumber != "" {
			fmt.Fprintf(out, "  Declares:   %s\n", result.AttachedNumber)
		}
		if result.PDFA != "" {
			fmt.Fprintf(out, "  PDF/A:      %s\n", result.PDFA)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  ✗ %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  ⚠ %s\n", w)
		}
	}

	if !result.Valid {
		return fmt.Errorf("verification failed")
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
