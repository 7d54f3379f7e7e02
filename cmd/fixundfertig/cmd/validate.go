package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/renderer"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice JSON files",
	Long: `Validate one or more invoice JSON files without rendering a PDF.

Checks performed:
  - Dates parse (YYYY-MM-DD or DD.MM.YYYY)
  - Item amounts parse and are not negative
  - Totals can be computed
  - The Factur-X XML is produced and reads back with the same number and gross

Examples:
  fixundfertig validate invoice.json
  fixundfertig validate invoices/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	pipeline := newValidationPipeline()
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(pipeline, cfg.Render, file)
		results = append(results, result)
		if !result.Valid {
			allValid = false
		}
	}

	if err := outputValidationResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}
	return nil
}

func newValidationPipeline() *renderer.Pipeline {
	return renderer.NewPipeline(renderer.WithLogger(logger))
}

func validateFile(pipeline *renderer.Pipeline, cfg layout.Config, filePath string) *ValidationResult {
	result := &ValidationResult{File: filePath, Valid: true}
	fail := func(format string, args ...interface{}) *ValidationResult {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
		return result
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fail("failed to read file: %v", err)
	}

	in, err := model.ParseInput(data)
	if err != nil {
		return fail("parse error: %v", err)
	}

	doc, warnings, err := in.ToDocument()
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return fail("%s", describe(err))
	}
	if err := cfg.Validate(); err != nil {
		return fail("config: %s", describe(err))
	}

	xml, sums, err := pipeline.EncodeXML(doc, cfg)
	if err != nil {
		return fail("%s", describe(err))
	}
	result.Totals = &sums

	summary, err := facturx.Parse(xml)
	if err != nil {
		return fail("factur-x: %v", err)
	}
	result.Profile = summary.Profile

	if number := doc.DocumentNumber(); summary.ID != number {
		fail("factur-x: document id %q, expected %q", summary.ID, number)
	}
	if !summary.Gross.Equal(sums.Gross) {
		fail("factur-x: gross %s, expected %s", summary.Gross.StringFixed(2), sums.Gross.StringFixed(2))
	}
	if doc.IsDraft() {
		result.Warnings = append(result.Warnings, "no invoice number: renders as draft")
	}

	return result
}

func describe(err error) string {
	var validation *model.ValidationError
	if errors.As(err, &validation) {
		return fmt.Sprintf("%s: %s", validation.Field, validation.Message)
	}
	return err.Error()
}

func outputValidationResults(w io.Writer, results []*ValidationResult) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s: VALID", r.File)
			if r.Totals != nil {
				fmt.Fprintf(w, " (gross %s EUR, %s)", r.Totals.Gross.StringFixed(2), r.Profile)
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintf(w, "✗ %s: INVALID\n", r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warning)
		}
	}
	return nil
}
