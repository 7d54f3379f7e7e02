package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/model"
)

func TestInvoiceDocument_Draft(t *testing.T) {
	doc := model.InvoiceDocument{Title: "Rechnung"}
	assert.True(t, doc.IsDraft())
	assert.Equal(t, model.DraftNumber, doc.DocumentNumber())

	doc.Number = "RE-2026-001"
	assert.False(t, doc.IsDraft())
	assert.Equal(t, "RE-2026-001", doc.DocumentNumber())
}

func TestInvoiceDocument_Buyer(t *testing.T) {
	doc := model.InvoiceDocument{
		Recipient: model.PartyAddress{Name: "Erika Musterfrau"},
	}
	assert.Equal(t, "Erika Musterfrau", doc.Buyer())

	doc.BuyerName = "Muster GmbH"
	assert.Equal(t, "Muster GmbH", doc.Buyer())
}

func TestInvoiceDocument_DueDate(t *testing.T) {
	doc := model.InvoiceDocument{IssueDate: time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC), doc.DueDate(14))
}

func TestLineItem_Net(t *testing.T) {
	item := model.LineItem{
		Quantity:  decimal.RequireFromString("1.5"),
		UnitPrice: decimal.RequireFromString("3.333"),
	}
	assert.True(t, item.Net().Equal(decimal.RequireFromString("4.9995")))
}

func TestPartyAddress_CityLine(t *testing.T) {
	tests := []struct {
		name     string
		addr     model.PartyAddress
		expected string
	}{
		{"both", model.PartyAddress{PostalCode: "10115", City: "Berlin"}, "10115 Berlin"},
		{"city only", model.PartyAddress{City: "Berlin"}, "Berlin"},
		{"postal only", model.PartyAddress{PostalCode: "10115"}, "10115"},
		{"empty", model.PartyAddress{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.addr.CityLine())
		})
	}
}

func TestErrors(t *testing.T) {
	verr := model.NewValidationError("items[0].quantity", "-1", "non_negative", "must not be negative")
	assert.Contains(t, verr.Error(), "items[0].quantity")
	assert.Contains(t, verr.Error(), "non_negative")

	cause := errors.New("missing %%EOF")
	cerr := model.NewContractError("assemble", "page stream is not a complete PDF", cause)
	assert.ErrorIs(t, cerr, cause)

	var target *model.ContractError
	wrapped := model.NewRenderError("assemble", "failed", cerr)
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "assemble", target.Stage)
}
