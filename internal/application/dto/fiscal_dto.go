package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineTaxDTO bloco de um tributo por linha (CST/CSOSN, base, alíquota, valor).
type LineTaxDTO struct {
	CST         string          `json:"cst"`
	BasePercent decimal.Decimal `json:"base_percent"`
	Base        decimal.Decimal `json:"base"`
	Rate        decimal.Decimal `json:"rate"`
	Value       decimal.Decimal `json:"value"`
}

// LineItemRequest linha do rascunho em POST/PUT.
// last_edited indica qual lado da quantidade foi editado por último
// ("commercial" | "taxable"); vazio equivale a "commercial".
type LineItemRequest struct {
	ID               string          `json:"id,omitempty"`
	ProductRef       string          `json:"product_ref"`
	Description      string          `json:"description"`
	CFOP             string          `json:"cfop"`
	NCM              string          `json:"ncm,omitempty"`
	CommercialUnit   string          `json:"commercial_unit"`
	TaxableUnit      string          `json:"taxable_unit"`
	Qty              decimal.Decimal `json:"qty"`
	TaxableQty       decimal.Decimal `json:"taxable_qty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TaxableUnitPrice decimal.Decimal `json:"taxable_unit_price"`
	Discount         decimal.Decimal `json:"discount"`
	OtherExpenses    decimal.Decimal `json:"other_expenses"`
	Freight          decimal.Decimal `json:"freight"`
	Insurance        decimal.Decimal `json:"insurance"`
	LastEdited       string          `json:"last_edited,omitempty"`

	ICMS   LineTaxDTO `json:"icms"`
	ICMSST LineTaxDTO `json:"icms_st"`
	FCP    LineTaxDTO `json:"fcp"`
	IPI    LineTaxDTO `json:"ipi"`
	PIS    LineTaxDTO `json:"pis"`
	COFINS LineTaxDTO `json:"cofins"`
}

// SaveDraftRequest body para POST/PUT /api/fiscal/drafts.
// payments é o bloco do sub-razão de pagamentos do colaborador externo:
// persistido e devolvido como chegou, sem interpretação pelo núcleo.
type SaveDraftRequest struct {
	Number        string            `json:"number"`
	SerieID       string            `json:"serie_id"`
	Type          string            `json:"type"` // entrada | saida
	IssueDate     string            `json:"issue_date"`
	EntryDate     string            `json:"entry_date,omitempty"`
	NatOp         string            `json:"nat_op"`
	PartyID       string            `json:"party_id"`
	Freight       decimal.Decimal   `json:"freight"`
	Insurance     decimal.Decimal   `json:"insurance"`
	OtherExpenses decimal.Decimal   `json:"other_expenses"`
	Items         []LineItemRequest `json:"items"`
	Payments      json.RawMessage   `json:"payments,omitempty"`
}

// LineItemResponse linha com campos calculados pelo motor.
type LineItemResponse struct {
	ID               string          `json:"id"`
	ProductRef       string          `json:"product_ref"`
	Description      string          `json:"description"`
	CFOP             string          `json:"cfop"`
	NCM              string          `json:"ncm,omitempty"`
	CommercialUnit   string          `json:"commercial_unit"`
	TaxableUnit      string          `json:"taxable_unit"`
	Qty              decimal.Decimal `json:"qty"`
	TaxableQty       decimal.Decimal `json:"taxable_qty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TaxableUnitPrice decimal.Decimal `json:"taxable_unit_price"`
	Discount         decimal.Decimal `json:"discount"`
	OtherExpenses    decimal.Decimal `json:"other_expenses"`
	LineTotal        decimal.Decimal `json:"line_total"`

	ICMS   LineTaxDTO `json:"icms"`
	ICMSST LineTaxDTO `json:"icms_st"`
	FCP    LineTaxDTO `json:"fcp"`
	IPI    LineTaxDTO `json:"ipi"`
	PIS    LineTaxDTO `json:"pis"`
	COFINS LineTaxDTO `json:"cofins"`
}

// TotalsResponse totais derivados do documento.
type TotalsResponse struct {
	Products   decimal.Decimal `json:"products"`
	Discounts  decimal.Decimal `json:"discounts"`
	ICMSBase   decimal.Decimal `json:"icms_base"`
	ICMS       decimal.Decimal `json:"icms"`
	ICMSST     decimal.Decimal `json:"icms_st"`
	FCP        decimal.Decimal `json:"fcp"`
	IPI        decimal.Decimal `json:"ipi"`
	PIS        decimal.Decimal `json:"pis"`
	COFINS     decimal.Decimal `json:"cofins"`
	Freight    decimal.Decimal `json:"freight"`
	Insurance  decimal.Decimal `json:"insurance"`
	Other      decimal.Decimal `json:"other"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// FiscalEventResponse evento registrado contra o documento.
type FiscalEventResponse struct {
	Event         string `json:"event"`
	Protocol      string `json:"protocol,omitempty"`
	Justification string `json:"justification,omitempty"`
	Sequence      int    `json:"sequence,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// DraftResponse rascunho completo para GET /api/fiscal/drafts/:id.
type DraftResponse struct {
	ID          string                `json:"id"`
	Code        int64                 `json:"code"`
	Status      string                `json:"status"`
	Number      string                `json:"number"`
	SerieID     string                `json:"serie_id"`
	Type        string                `json:"type"`
	Model       string                `json:"model"`
	IssueDate   string                `json:"issue_date"`
	EntryDate   string                `json:"entry_date,omitempty"`
	NatOp       string                `json:"nat_op"`
	CompanyID   string                `json:"company_id"`
	PartyID     string                `json:"party_id"`
	PartyName   string                `json:"party_name,omitempty"`
	AccessKey   string                `json:"access_key,omitempty"`
	Ambient     string                `json:"ambient,omitempty"`
	Items       []LineItemResponse    `json:"items"`
	Totals      TotalsResponse        `json:"totals"`
	Payments    json.RawMessage       `json:"payments,omitempty"`
	Events      []FiscalEventResponse `json:"events"`
	Protocol    string                `json:"protocol,omitempty"`
	SefazStatus string                `json:"sefaz_status,omitempty"`
	SefazMsg    string                `json:"sefaz_message,omitempty"`
	Logs        []string              `json:"logs,omitempty"`
	InvalidRows int                   `json:"invalid_rows,omitempty"`
	CreatedAt   string                `json:"created_at,omitempty"`
	UpdatedAt   string                `json:"updated_at,omitempty"`
}

// ValidateDraftResponse resultado de POST /api/fiscal/drafts/:id/validate.
type ValidateDraftResponse struct {
	OK            bool     `json:"ok"`
	Status        string   `json:"status"`
	MissingFields []string `json:"missing_fields,omitempty"`
	InvalidRows   int      `json:"invalid_rows"`
	LineCount     int      `json:"line_count"`
}

// SefazResponse resultado de um passo do fluxo de transmissão
// (gerar/assinar/transmitir/consultar/evento).
type SefazResponse struct {
	Status      string `json:"status,omitempty"` // cStat
	Message     string `json:"message,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`
	AccessKey   string `json:"access_key,omitempty"`
	DraftStatus string `json:"draft_status"`
}

// XMLResponse XML corrente do documento.
type XMLResponse struct {
	AccessKey   string `json:"access_key,omitempty"`
	Content     string `json:"content"`
	Signed      bool   `json:"signed"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

// RegisterEventRequest body para POST /api/fiscal/drafts/:id/events.
type RegisterEventRequest struct {
	Kind          string `json:"kind"` // cancellation | correctionLetter
	Justification string `json:"justification"`
}
