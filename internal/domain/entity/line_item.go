package entity

import "github.com/shopspring/decimal"

// LineTax campos de um tributo por linha: código de regime (CST/CSOSN),
// percentual de base, base calculada, alíquota e valor.
type LineTax struct {
	CST         string
	BasePercent decimal.Decimal
	Base        decimal.Decimal
	Rate        decimal.Decimal
	Value       decimal.Decimal
}

// LineItem uma linha comercial do documento fiscal.
// Quantidades com 3 casas decimais; valores monetários com 2.
type LineItem struct {
	ID         string
	DocumentID string

	ProductRef  string
	Description string
	CFOP        string
	NCM         string

	CommercialUnit string
	TaxableUnit    string

	Qty              decimal.Decimal
	TaxableQty       decimal.Decimal
	UnitPrice        decimal.Decimal
	TaxableUnitPrice decimal.Decimal

	Discount      decimal.Decimal
	OtherExpenses decimal.Decimal
	Freight       decimal.Decimal
	Insurance     decimal.Decimal

	// LineTotal = max(0, Qty*UnitPrice - Discount), recalculado pelo motor.
	LineTotal decimal.Decimal

	ICMS   LineTax
	ICMSST LineTax
	FCP    LineTax
	IPI    LineTax
	PIS    LineTax
	COFINS LineTax
}
