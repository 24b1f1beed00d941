package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-composer/internal/pdfa"
)

var (
	embedOutput   string
	embedFilename string
	embedTitle    string
	embedAuthor   string
)

var embedCmd = &cobra.Command{
	Use:   "embed <pdf> <xml>",
	Short: "Embed e-invoice XML into an existing PDF",
	Long: `Attach an XML e-invoice to an existing PDF and add the PDF/A-3 structures
(associated file, XMP metadata, sRGB output intent, page transparency groups).

Embedding into a document that already carries an attachment replaces it.

Examples:
  invoice-composer embed invoice.pdf factur-x.xml -o hybrid.pdf
  invoice-composer embed invoice.pdf invoice.xml --filename xrechnung.xml`,
	Args: cobra.ExactArgs(2),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVarP(&embedOutput, "output", "o", "", "Output PDF file (default: overwrite input)")
	embedCmd.Flags().StringVar(&embedFilename, "filename", "", "Attachment filename (default: configured or XML file name)")
	embedCmd.Flags().StringVar(&embedTitle, "title", "", "Document title")
	embedCmd.Flags().StringVar(&embedAuthor, "author", "", "Document author")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pdf, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	xml, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}

	filename := embedFilename
	if filename == "" {
		filename = cfg.Output.Attachment
	}
	if filename == "" {
		filename = filepath.Base(args[1])
	}

	packager := pdfa.NewPackager(
		pdfa.WithLogger(logger),
		pdfa.WithICCProfile(cfg.Resources.ICCProfile),
		pdfa.WithDocumentInfo(pdfa.DocumentInfo{
			Title:   embedTitle,
			Author:  embedAuthor,
			Creator: cfg.Document.Creator,
		}),
	)
	out, err := packager.Embed(pdf, string(xml), filename)
	if err != nil {
		return err
	}

	target := embedOutput
	if target == "" {
		target = args[0]
	}
	if err := os.WriteFile(target, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	logger.Info("embedded attachment", "file", target, "attachment", filename)
	return nil
}
