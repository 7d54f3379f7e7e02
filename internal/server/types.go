package server

import (
	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// RenderResponse is the JSON form of the render endpoint
type RenderResponse struct {
	PDF      []byte             `json:"pdf"` // base64 in JSON
	XML      string             `json:"xml"`
	Totals   model.TotalsResult `json:"totals"`
	Pages    int                `json:"pages"`
	Warnings []string           `json:"warnings,omitempty"`
}

// TotalsResponse is the response for the totals endpoint
type TotalsResponse struct {
	Totals   model.TotalsResult `json:"totals"`
	Warnings []string           `json:"warnings,omitempty"`
}

// ExtractResponse describes an embedded invoice
type ExtractResponse struct {
	Name         string            `json:"name"`
	Relationship string            `json:"relationship"`
	XML          string            `json:"xml"`
	Invoice      *facturx.Summary  `json:"invoice,omitempty"`
	Document     *assembler.Report `json:"document,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Field    string   `json:"field,omitempty"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
