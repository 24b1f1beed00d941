package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	xmlparser "github.com/rezonia/invoice-composer/internal/parser/xml"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

var (
	extractName   string
	extractOutput string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "Show attachments and PDF/A structures of a document",
	Long: `Report the page count, embedded files, associated files, output intents and
the PDF/A identification declared in the XMP metadata.

Examples:
  invoice-composer inspect hybrid.pdf
  invoice-composer inspect hybrid.pdf -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract an embedded file",
	Long: `Write the decoded content of an embedded file to stdout or --output.

Examples:
  invoice-composer extract hybrid.pdf
  invoice-composer extract hybrid.pdf --name xrechnung.xml -o invoice.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractName, "name", "", "Attachment name (default: the only associated file)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (default: stdout)")
}

// InspectOutput is the JSON form of the inspect command
type InspectOutput struct {
	File string `json:"file"`
	*pdfa.Report
	Invoice *xmlparser.Document `json:"invoice,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	report, err := pdfa.Inspect(data)
	if err != nil {
		return err
	}

	result := InspectOutput{File: args[0], Report: report}
	if name := xmlparser.AssociatedName(report); name != "" {
		doc, err := xmlparser.Embedded(cmd.Context(), data, name)
		if err != nil {
			logger.Warn("attachment is not a readable e-invoice", "name", name, "err", err)
		} else {
			result.Invoice = doc
		}
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	level := report.PDFA()
	if level == "" {
		level = "-"
	}
	fmt.Fprintf(out, "File:           %s\n", args[0])
	fmt.Fprintf(out, "Pages:          %d (%d with transparency group)\n", report.Pages, report.PagesWithGroup)
	fmt.Fprintf(out, "PDF/A:          %s\n", level)
	fmt.Fprintf(out, "Metadata:       %t\n", report.HasMetadata)
	if report.Info.Producer != "" {
		fmt.Fprintf(out, "Producer:       %s\n", report.Info.Producer)
	}
	fmt.Fprintf(out, "Output intents: %d\n", report.OutputIntents)
	fmt.Fprintf(out, "Associated:     %d\n", report.AFCount)
	if report.XMP.DocumentFileName != "" {
		fmt.Fprintf(out, "E-invoice:      %s %s (%s)\n", report.XMP.DocumentType, report.XMP.Version, report.XMP.ConformanceLevel)
	}
	if inv := result.Invoice; inv != nil {
		fmt.Fprintf(out, "Invoice:        %s (%s) issued %s\n", inv.Number, inv.Profile, inv.IssueDate.Format("2006-01-02"))
		fmt.Fprintf(out, "Parties:        %s -> %s\n", inv.Seller, inv.Buyer)
		fmt.Fprintf(out, "Total:          %s %s (tax %s, %d lines)\n", inv.GrandTotal.StringFixed(2), inv.Currency, inv.TaxTotal.StringFixed(2), inv.Lines)
	}
	if len(report.Attachments) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tRELATIONSHIP\tSIZE\tAF")
	for _, a := range report.Attachments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", a.Name, a.Subtype, a.Relationship, a.Size, a.AssociatedFile)
	}
	return w.Flush()
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	name := extractName
	if name == "" {
		report, err := pdfa.Inspect(data)
		if err != nil {
			return err
		}
		if name, err = soleAttachment(report); err != nil {
			return err
		}
	}

	content, err := pdfa.Attachment(data, name)
	if err != nil {
		return err
	}
	if extractOutput == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	if err := os.WriteFile(extractOutput, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", extractOutput, err)
	}
	logger.Info("extracted attachment", "name", name, "file", extractOutput, "bytes", len(content))
	return nil
}

func soleAttachment(report *pdfa.Report) (string, error) {
	var names []string
	for _, a := range report.Attachments {
		if a.AssociatedFile {
			names = append(names, a.Name)
		}
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("document has no associated file")
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("document has %d associated files, choose one with --name", len(names))
	}
}
