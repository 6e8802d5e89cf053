package fiscal

import (
	"strings"
	"time"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	domfiscal "github.com/eobicho/fiscal-api/internal/domain/fiscal"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

func toEntityTax(in dto.LineTaxDTO) entity.LineTax {
	return entity.LineTax{
		CST:         strings.TrimSpace(in.CST),
		BasePercent: in.BasePercent,
		Base:        in.Base,
		Rate:        in.Rate,
		Value:       in.Value,
	}
}

func toTaxDTO(in entity.LineTax) dto.LineTaxDTO {
	return dto.LineTaxDTO{
		CST:         in.CST,
		BasePercent: in.BasePercent,
		Base:        in.Base,
		Rate:        in.Rate,
		Value:       in.Value,
	}
}

// lastEditedField traduz o marcador do cliente para o motor de cálculo.
func lastEditedField(value string) domfiscal.EditedField {
	if strings.EqualFold(strings.TrimSpace(value), "taxable") {
		return domfiscal.EditedTaxable
	}
	return domfiscal.EditedCommercial
}

func toEntityLine(in dto.LineItemRequest, id string) *entity.LineItem {
	return &entity.LineItem{
		ID:               id,
		ProductRef:       strings.TrimSpace(in.ProductRef),
		Description:      strings.TrimSpace(in.Description),
		CFOP:             strings.TrimSpace(in.CFOP),
		NCM:              strings.TrimSpace(in.NCM),
		CommercialUnit:   strings.TrimSpace(in.CommercialUnit),
		TaxableUnit:      strings.TrimSpace(in.TaxableUnit),
		Qty:              in.Qty,
		TaxableQty:       in.TaxableQty,
		UnitPrice:        in.UnitPrice,
		TaxableUnitPrice: in.TaxableUnitPrice,
		Discount:         in.Discount,
		OtherExpenses:    in.OtherExpenses,
		Freight:          in.Freight,
		Insurance:        in.Insurance,
		ICMS:             toEntityTax(in.ICMS),
		ICMSST:           toEntityTax(in.ICMSST),
		FCP:              toEntityTax(in.FCP),
		IPI:              toEntityTax(in.IPI),
		PIS:              toEntityTax(in.PIS),
		COFINS:           toEntityTax(in.COFINS),
	}
}

func toLineResponse(in *entity.LineItem) dto.LineItemResponse {
	return dto.LineItemResponse{
		ID:               in.ID,
		ProductRef:       in.ProductRef,
		Description:      in.Description,
		CFOP:             in.CFOP,
		NCM:              in.NCM,
		CommercialUnit:   in.CommercialUnit,
		TaxableUnit:      in.TaxableUnit,
		Qty:              in.Qty,
		TaxableQty:       in.TaxableQty,
		UnitPrice:        in.UnitPrice,
		TaxableUnitPrice: in.TaxableUnitPrice,
		Discount:         in.Discount,
		OtherExpenses:    in.OtherExpenses,
		LineTotal:        in.LineTotal,
		ICMS:             toTaxDTO(in.ICMS),
		ICMSST:           toTaxDTO(in.ICMSST),
		FCP:              toTaxDTO(in.FCP),
		IPI:              toTaxDTO(in.IPI),
		PIS:              toTaxDTO(in.PIS),
		COFINS:           toTaxDTO(in.COFINS),
	}
}

func toTotalsResponse(t entity.DocumentTotals) dto.TotalsResponse {
	return dto.TotalsResponse{
		Products:   t.Products,
		Discounts:  t.Discounts,
		ICMSBase:   t.ICMSBase,
		ICMS:       t.ICMS,
		ICMSST:     t.ICMSST,
		FCP:        t.FCP,
		IPI:        t.IPI,
		PIS:        t.PIS,
		COFINS:     t.COFINS,
		Freight:    t.Freight,
		Insurance:  t.Insurance,
		Other:      t.Other,
		GrandTotal: t.GrandTotal,
	}
}

// ToDraftResponse projeta o agregado completo para a resposta da API.
func ToDraftResponse(doc *entity.FiscalDocument) *dto.DraftResponse {
	out := &dto.DraftResponse{
		ID:        doc.ID,
		Code:      doc.Code,
		Status:    doc.Status,
		Number:    doc.Header.Number,
		SerieID:   doc.Header.Serie,
		Type:      doc.Header.Type,
		Model:     doc.Header.Model,
		IssueDate: doc.Header.IssueDate,
		EntryDate: doc.Header.EntryDate,
		NatOp:     doc.Header.NatOp,
		CompanyID: doc.CompanyID,
		PartyID:   doc.PartyID,
		PartyName: doc.PartyName,
		AccessKey: doc.XML.AccessKey,
		Ambient:   doc.XML.Ambient,
		Totals:    toTotalsResponse(doc.Totals),
		Payments:  doc.Payments,
		Logs:      doc.Logs,
	}
	if doc.Authorization != nil {
		out.Protocol = doc.Authorization.Protocol
	}
	out.SefazStatus = doc.LastSefaz.Status
	out.SefazMsg = doc.LastSefaz.Message
	if !doc.CreatedAt.IsZero() {
		out.CreatedAt = doc.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !doc.UpdatedAt.IsZero() {
		out.UpdatedAt = doc.UpdatedAt.UTC().Format(time.RFC3339)
	}
	out.Items = make([]dto.LineItemResponse, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		out.Items = append(out.Items, toLineResponse(line))
	}
	out.Events = make([]dto.FiscalEventResponse, 0, len(doc.Events))
	for _, ev := range doc.Events {
		out.Events = append(out.Events, dto.FiscalEventResponse{
			Event:         ev.Event,
			Protocol:      ev.Protocol,
			Justification: ev.Justification,
			Sequence:      ev.Sequence,
			Status:        ev.Status,
			Message:       ev.Message,
			CreatedAt:     ev.CreatedAt,
		})
	}
	return out
}

// toSefazResponse projeta o desfecho de um passo do fluxo de transmissão.
func toSefazResponse(doc *entity.FiscalDocument, res entity.SefazResult) *dto.SefazResponse {
	return &dto.SefazResponse{
		Status:      res.Status,
		Message:     res.Message,
		Protocol:    res.Protocol,
		ProcessedAt: res.ProcessedAt,
		AccessKey:   doc.XML.AccessKey,
		DraftStatus: doc.Status,
	}
}

// resolveAmbiente devolve o tpAmb da série, com homologação como padrão seguro.
func resolveAmbiente(serie *entity.FiscalSerie) string {
	if serie != nil && strings.EqualFold(serie.Ambiente, "producao") {
		return nfe.AmbienteProducao
	}
	return nfe.AmbienteHomologacao
}
