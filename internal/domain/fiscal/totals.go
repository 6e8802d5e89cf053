package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// ComputeTotals agrega os valores das linhas nos totais do documento.
// Derivação pura e idempotente: recomputar sem nova entrada produz o mesmo
// resultado. Total geral = produtos + frete + outras despesas.
func ComputeTotals(doc *entity.FiscalDocument) entity.DocumentTotals {
	t := entity.DocumentTotals{
		Products:   decimal.Zero,
		Discounts:  decimal.Zero,
		ICMSBase:   decimal.Zero,
		ICMS:       decimal.Zero,
		ICMSST:     decimal.Zero,
		FCP:        decimal.Zero,
		IPI:        decimal.Zero,
		PIS:        decimal.Zero,
		COFINS:     decimal.Zero,
		Freight:    doc.Freight.Round(2),
		Insurance:  doc.Insurance.Round(2),
		Other:      doc.OtherExpenses.Round(2),
		GrandTotal: decimal.Zero,
	}

	for _, line := range doc.Lines {
		if line == nil {
			continue
		}
		t.Products = t.Products.Add(line.LineTotal)
		t.Discounts = t.Discounts.Add(line.Discount)
		t.ICMSBase = t.ICMSBase.Add(line.ICMS.Base)
		t.ICMS = t.ICMS.Add(line.ICMS.Value)
		t.ICMSST = t.ICMSST.Add(line.ICMSST.Value)
		t.FCP = t.FCP.Add(line.FCP.Value)
		t.IPI = t.IPI.Add(line.IPI.Value)
		t.PIS = t.PIS.Add(line.PIS.Value)
		t.COFINS = t.COFINS.Add(line.COFINS.Value)
	}

	t.Products = t.Products.Round(2)
	t.Discounts = t.Discounts.Round(2)
	t.ICMSBase = t.ICMSBase.Round(2)
	t.ICMS = t.ICMS.Round(2)
	t.ICMSST = t.ICMSST.Round(2)
	t.FCP = t.FCP.Round(2)
	t.IPI = t.IPI.Round(2)
	t.PIS = t.PIS.Round(2)
	t.COFINS = t.COFINS.Round(2)
	t.GrandTotal = t.Products.Add(t.Freight).Add(t.Other).Round(2)

	doc.Totals = t
	return t
}

// RecalculateDocument recalcula todas as linhas (sem mudar o campo editado
// por último) e em seguida os totais. Usado após cargas e escritas do rascunho.
func RecalculateDocument(doc *entity.FiscalDocument) {
	for _, line := range doc.Lines {
		Recalculate(line, EditedCommercial)
	}
	ComputeTotals(doc)
}
