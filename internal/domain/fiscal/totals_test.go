package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/fiscal"
)

func buildDocument() *entity.FiscalDocument {
	a := buildLine()
	b := buildLine()
	b.Qty = decimal.NewFromInt(2)
	b.TaxableQty = decimal.NewFromInt(2)
	b.UnitPrice = decimal.RequireFromString("15.50")
	b.Discount = decimal.RequireFromString("1.00")

	return &entity.FiscalDocument{
		ID:     "doc-1",
		Status: entity.StatusDraft,
		Header: entity.DocumentHeader{
			Number:    "1234",
			Serie:     "serie-1",
			IssueDate: "2026-08-31",
			NatOp:     "VENDA DE MERCADORIA",
		},
		CompanyID:     "emp-1",
		PartyID:       "cli-1",
		Lines:         []*entity.LineItem{a, b},
		Freight:       decimal.RequireFromString("12.00"),
		OtherExpenses: decimal.RequireFromString("3.00"),
	}
}

func TestComputeTotals_SomaLinhasEEncargos(t *testing.T) {
	doc := buildDocument()
	fiscal.RecalculateDocument(doc)

	// linha A: 30.00; linha B: 2*15.50 - 1.00 = 30.00
	assert.True(t, decimal.RequireFromString("60.00").Equal(doc.Totals.Products))
	assert.True(t, decimal.RequireFromString("1.00").Equal(doc.Totals.Discounts))
	// ICMS 18% sobre base 100% de cada linha: 5.40 + 5.40
	assert.True(t, decimal.RequireFromString("10.80").Equal(doc.Totals.ICMS))
	assert.True(t, decimal.RequireFromString("60.00").Equal(doc.Totals.ICMSBase))
}

// TestComputeTotals_TotalGeral grandTotal = produtos + frete + outras despesas
// (seguro e desconto não entram na fórmula; desconto já está líquido na linha).
func TestComputeTotals_TotalGeral(t *testing.T) {
	doc := buildDocument()
	doc.Insurance = decimal.RequireFromString("5.00")
	fiscal.RecalculateDocument(doc)

	esperado := doc.Totals.Products.Add(doc.Totals.Freight).Add(doc.Totals.Other)
	assert.True(t, esperado.Equal(doc.Totals.GrandTotal))
	assert.True(t, decimal.RequireFromString("75.00").Equal(doc.Totals.GrandTotal))
}

func TestComputeTotals_Idempotente(t *testing.T) {
	doc := buildDocument()
	fiscal.RecalculateDocument(doc)
	primeira := doc.Totals
	fiscal.RecalculateDocument(doc)

	assert.Equal(t, primeira.GrandTotal.String(), doc.Totals.GrandTotal.String(),
		"recomputar duas vezes sem nova entrada deve produzir totais idênticos")
	assert.Equal(t, primeira.ICMS.String(), doc.Totals.ICMS.String())
}

func TestComputeTotals_DocumentoSemLinhas(t *testing.T) {
	doc := buildDocument()
	doc.Lines = nil
	fiscal.RecalculateDocument(doc)

	assert.True(t, doc.Totals.Products.IsZero())
	// ainda soma os encargos do documento
	assert.True(t, decimal.RequireFromString("15.00").Equal(doc.Totals.GrandTotal))
}
