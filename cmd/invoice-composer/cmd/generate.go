package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/config"
	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/generator"
	"github.com/rezonia/invoice-composer/internal/seal"
)

var (
	outputFile     string
	profileName    string
	attachmentName string
	fontFile       string
	logoFile       string
	sealFile       string
)

var generateCmd = &cobra.Command{
	Use:   "generate <invoice>",
	Short: "Generate a PDF/A-3 invoice",
	Long: `Generate a paginated invoice PDF from a TOML or JSON invoice file and embed
the e-invoice XML as a PDF/A-3 associated file.

Without --output the document is written next to the invoice file with a .pdf
extension. When a seal key is configured (env: INVOICE_COMPOSER_SEAL_KEY) the
integrity seal is printed, or written to --seal.

Examples:
  invoice-composer generate invoice.toml
  invoice-composer generate invoice.json -o out.pdf --profile ubl
  invoice-composer generate invoice.toml --logo logo.png --font OpenSans.ttf`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PDF file")
	generateCmd.Flags().StringVarP(&profileName, "profile", "p", "", "E-invoice profile (cii, ubl)")
	generateCmd.Flags().StringVar(&attachmentName, "attachment", "", "Attachment filename override")
	generateCmd.Flags().StringVar(&fontFile, "font", "", "TrueType font file")
	generateCmd.Flags().StringVar(&logoFile, "logo", "", "Logo image (PNG, JPEG, GIF, BMP, TIFF, WebP)")
	generateCmd.Flags().StringVar(&sealFile, "seal", "", "Write the integrity seal to this file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cfg)

	inv, err := config.LoadInvoice(args[0])
	if err != nil {
		return err
	}

	profile, err := resolveProfile(cfg)
	if err != nil {
		return err
	}

	font, err := cfg.ReadFont()
	if err != nil {
		return err
	}
	logo, err := cfg.ReadLogo()
	if err != nil {
		return err
	}

	g := generator.New(
		generator.WithLogger(logger),
		generator.WithProfile(profile),
		generator.WithAttachmentName(cfg.Output.Attachment),
		generator.WithDocument(cfg.Document.Title, cfg.Document.Creator),
		generator.WithICCProfile(cfg.Resources.ICCProfile),
	)
	res, err := g.Build(inv, font, logo)
	if err != nil {
		return err
	}

	out := outputFile
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".pdf"
	}
	if err := os.WriteFile(out, res.PDF, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("generated invoice",
		"file", out,
		"number", inv.Number,
		"pages", res.Pages,
		"profile", res.Profile,
		"attachment", res.Attachment,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.Seal.Key == "" {
		return nil
	}
	sealer, err := seal.New([]byte(cfg.Seal.Key))
	if err != nil {
		return err
	}
	digest := sealer.Compute(inv.Number, res.PDF)
	if sealFile != "" {
		if err := os.WriteFile(sealFile, []byte(digest+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", sealFile, err)
		}
		logger.Debug("wrote seal", "file", sealFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), digest)
	return nil
}

func applyGenerateFlags(cfg *config.Config) {
	if profileName != "" {
		cfg.Output.Profile = profileName
	}
	if attachmentName != "" {
		cfg.Output.Attachment = attachmentName
	}
	if fontFile != "" {
		cfg.Resources.Font = fontFile
	}
	if logoFile != "" {
		cfg.Resources.Logo = logoFile
	}
}

func resolveProfile(cfg *config.Config) (einvoice.Profile, error) {
	return einvoice.ParseProfile(cfg.Output.Profile)
}
