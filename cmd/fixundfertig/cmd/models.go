package cmd

import (
	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// RenderResult holds the result of rendering a single file
type RenderResult struct {
	File     string              `json:"file"`
	Output   string              `json:"output,omitempty"`
	XML      string              `json:"xml,omitempty"`
	Number   string              `json:"number,omitempty"`
	Pages    int                 `json:"pages,omitempty"`
	Totals   *model.TotalsResult `json:"totals,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string              `json:"file"`
	Valid    bool                `json:"valid"`
	Totals   *model.TotalsResult `json:"totals,omitempty"`
	Profile  facturx.Profile     `json:"profile,omitempty"`
	Errors   []string            `json:"errors,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// InspectResult describes a rendered PDF
type InspectResult struct {
	File     string            `json:"file"`
	Document *assembler.Report `json:"document,omitempty"`
	Invoice  *facturx.Summary  `json:"invoice,omitempty"`
	XMLOut   string            `json:"xml_output,omitempty"`
	Error    string            `json:"error,omitempty"`
}
