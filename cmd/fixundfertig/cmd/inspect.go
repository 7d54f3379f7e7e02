package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
)

var (
	extractXML     bool
	attachmentName string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Show what a rendered PDF carries",
	Long: `Display the PDF/A and Factur-X properties of rendered invoices.

Shows:
  - PDF version and page count
  - Embedded files and XMP metadata
  - The invoice header read back from the embedded XML

Examples:
  fixundfertig inspect rechnung.pdf
  fixundfertig inspect out/ --extract-xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&extractXML, "extract-xml", false, "Write the embedded XML next to each PDF")
	inspectCmd.Flags().StringVar(&attachmentName, "name", facturx.FileName, "Attachment to read")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	files, err := collectFiles(args, ".pdf")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	results := make([]*InspectResult, 0, len(files))
	failed := false
	for _, file := range files {
		result := inspectFile(file)
		if result.Error != "" {
			failed = true
		}
		results = append(results, result)
	}

	if err := outputInspectResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("inspection failed for some files")
	}
	return nil
}

func inspectFile(filePath string) *InspectResult {
	result := &InspectResult{File: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	report, err := assembler.Inspect(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Document = report

	xml, _, err := assembler.Extract(data, attachmentName)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if summary, err := facturx.Parse(xml); err == nil {
		result.Invoice = summary
	} else {
		printVerbose("%s: attachment is not a CII invoice: %v\n", filePath, err)
	}

	if extractXML {
		out := outputName(filepath.Dir(filePath), filePath, ".xml")
		if err := writeOutput(out, xml); err != nil {
			result.Error = err.Error()
			return result
		}
		result.XMLOut = out
	}

	return result
}

func outputInspectResults(w io.Writer, results []*InspectResult) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "File: %s\n", r.File)
		if r.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", r.Error)
			continue
		}

		d := r.Document
		fmt.Fprintf(w, "  PDF version: %s\n", d.Version)
		fmt.Fprintf(w, "  Pages: %d\n", d.Pages)
		fmt.Fprintf(w, "  PDF/A-3: %s\n", yesNo(d.PDFA3))
		fmt.Fprintf(w, "  XMP metadata: %s\n", yesNo(d.Metadata))
		fmt.Fprintf(w, "  Output intent: %s\n", yesNo(d.OutputIntent))
		fmt.Fprintf(w, "  Attachments: %s\n", strings.Join(d.Attachments, ", "))

		if inv := r.Invoice; inv != nil {
			fmt.Fprintf(w, "  Profile: %s\n", inv.Profile)
			fmt.Fprintf(w, "  Number: %s\n", inv.ID)
			fmt.Fprintf(w, "  Issue date: %s\n", inv.IssueDate.Format("02.01.2006"))
			fmt.Fprintf(w, "  Seller: %s\n", inv.Seller)
			fmt.Fprintf(w, "  Buyer: %s\n", inv.Buyer)
			fmt.Fprintf(w, "  Lines: %d\n", inv.LineCount)
			fmt.Fprintf(w, "  Gross: %s %s\n", inv.Gross.StringFixed(2), inv.Currency)
		}
		if r.XMLOut != "" {
			fmt.Fprintf(w, "  XML written to: %s\n", r.XMLOut)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
