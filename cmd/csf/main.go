// Command csf extracts structured data from tax-status certificates on
// the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"csf.practicafiscal.mx/internal/extractor"
	"csf.practicafiscal.mx/internal/pdftext"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "csf",
		Short:   "Tax-status certificate extractor",
		Long:    "csf reads a tax-status certificate PDF and emits its identity, address, activity, regime and obligation data as JSON.",
		Version: version,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	var textFile string

	cmd := &cobra.Command{
		Use:   "extract [certificate.pdf]",
		Short: "Extract a certificate to JSON",
		Long: `Extract structured data from a certificate and print it as JSON.

Example:
  csf extract constancia.pdf
  csf extract --text constancia.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := certificateText(args, textFile)
			if err != nil {
				return err
			}

			result := extractor.Extract(text)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&textFile, "text", "", "read already-extracted certificate text from this file instead of a PDF")
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		textFile string
		known    string
	)

	cmd := &cobra.Command{
		Use:   "check [certificate.pdf]",
		Short: "Check a certificate against a known taxpayer id",
		Long: `Check that a certificate belongs to the expected taxpayer.

Exits non-zero when the certificate carries a different taxpayer id.

Example:
  csf check constancia.pdf --known ABC850101XYZ`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if known == "" {
				return fmt.Errorf("--known is required")
			}

			text, err := certificateText(args, textFile)
			if err != nil {
				return err
			}

			result := extractor.Extract(text)
			if result.TaxpayerID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no taxpayer id found in certificate; nothing to compare")
				return nil
			}
			if err := extractor.CheckTaxpayerID(result.TaxpayerID, known); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "certificate matches %s\n", known)
			return nil
		},
	}
	cmd.Flags().StringVar(&textFile, "text", "", "read already-extracted certificate text from this file instead of a PDF")
	cmd.Flags().StringVar(&known, "known", "", "taxpayer id the certificate must carry")
	return cmd
}

func certificateText(args []string, textFile string) (string, error) {
	switch {
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("reading text file: %w", err)
		}
		return pdftext.Plain(data).Text()
	case len(args) == 1:
		src, err := pdftext.OpenPDF(args[0])
		if err != nil {
			return "", err
		}
		return src.Text()
	default:
		return "", fmt.Errorf("pass a certificate PDF or --text file")
	}
}
