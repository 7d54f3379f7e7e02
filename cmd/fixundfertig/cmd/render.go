package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/weareuntitled/fixundfertig/pkg/invoicelib"
)

var (
	outputFile  string
	outputDir   string
	writeXML    bool
	logoDir     string
	timeout     time.Duration
	concurrency int
)

var renderCmd = &cobra.Command{
	Use:   "render [files...]",
	Short: "Render invoice JSON files to PDF/A-3b",
	Long: `Render one or more invoice JSON files. Each PDF carries its
Factur-X BASIC XML as an embedded attachment.

Nothing is written unless every invoice renders.

Examples:
  fixundfertig render invoice.json -o rechnung.pdf
  fixundfertig render invoices/ --out-dir out/ --xml
  fixundfertig render *.json --logo-dir logos/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PDF (single input only)")
	renderCmd.Flags().StringVar(&outputDir, "out-dir", "", "Output directory (default: next to each input)")
	renderCmd.Flags().BoolVar(&writeXML, "xml", false, "Also write the Factur-X XML next to each PDF")
	renderCmd.Flags().StringVar(&logoDir, "logo-dir", "", "Directory with <company_id>.<ext> logos")
	renderCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for the whole batch")
	renderCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel renders (default: GOMAXPROCS)")
}

func runRender(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no files found to render")
	}
	if outputFile != "" && len(files) > 1 {
		return fmt.Errorf("--output needs exactly one input, got %d", len(files))
	}

	printVerbose("Found %d files to render\n", len(files))

	inputs := make([]*invoicelib.InvoiceInput, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		in, err := invoicelib.ParseInput(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		inputs[i] = in
	}

	opts := invoicelib.Options{
		Config:      cfg.Render,
		LogoDir:     cfg.Logos.Dir,
		Logger:      logger,
		Concurrency: concurrency,
	}
	if logoDir != "" {
		opts.LogoDir = logoDir
	}
	renderer := invoicelib.NewRenderer(opts)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rendered, err := renderer.RenderBatch(ctx, inputs)
	if err != nil {
		var batch *invoicelib.BatchError
		if errors.As(err, &batch) {
			return fmt.Errorf("%s: %w", files[batch.Index], batch.Err)
		}
		return err
	}

	results := make([]*RenderResult, 0, len(files))
	for i, res := range rendered {
		result := &RenderResult{
			File:     files[i],
			Output:   pdfPath(files[i]),
			Number:   inputs[i].Number,
			Pages:    res.Pages,
			Totals:   &res.Totals,
			Warnings: res.Warnings,
		}

		if err := writeOutput(result.Output, res.PDF); err != nil {
			return err
		}
		if writeXML {
			result.XML = outputName(filepath.Dir(result.Output), result.Output, ".xml")
			if err := writeOutput(result.XML, res.XML); err != nil {
				return err
			}
		}

		printVerbose("Rendered: %s -> %s (%d pages)\n", result.File, result.Output, result.Pages)
		for _, w := range result.Warnings {
			logger.Warn("render warning", "file", result.File, "warning", w)
		}
		results = append(results, result)
	}

	return outputRenderResults(cmd.OutOrStdout(), results)
}

func pdfPath(input string) string {
	if outputFile != "" {
		return outputFile
	}
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return outputName(dir, input, ".pdf")
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func outputRenderResults(w io.Writer, results []*RenderResult) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tOUTPUT\tNUMBER\tPAGES\tNET\tVAT\tGROSS\tWARNINGS")
	fmt.Fprintln(tw, "----\t------\t------\t-----\t---\t---\t-----\t--------")
	for _, r := range results {
		number := r.Number
		if number == "" {
			number = "(Entwurf)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%d\n",
			r.File,
			r.Output,
			number,
			r.Pages,
			r.Totals.Net.StringFixed(2),
			r.Totals.VAT.StringFixed(2),
			r.Totals.Gross.StringFixed(2),
			len(r.Warnings),
		)
	}
	return tw.Flush()
}
