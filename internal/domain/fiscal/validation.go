package fiscal

import (
	"strings"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// ValidationReport resultado da validação de emissão. Linhas inválidas são
// contadas e devolvidas ao chamador, não tratadas como falha dura: a UI
// apresenta a contagem e o operador corrige.
type ValidationReport struct {
	MissingFields []string
	InvalidLines  int
	LineCount     int
}

// OK indica que o documento pode transicionar para "ready".
func (r ValidationReport) OK() bool {
	return len(r.MissingFields) == 0 && r.InvalidLines == 0 && r.LineCount > 0
}

// Validate verifica campos obrigatórios do cabeçalho e de cada linha.
// Não muda status; MarkReady é aplicado pelo caso de uso quando OK().
func Validate(doc *entity.FiscalDocument) ValidationReport {
	var r ValidationReport
	if doc == nil {
		r.MissingFields = append(r.MissingFields, "documento")
		return r
	}

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			r.MissingFields = append(r.MissingFields, field)
		}
	}
	require("numero", doc.Header.Number)
	require("serie", doc.Header.Serie)
	require("dataEmissao", doc.Header.IssueDate)
	require("naturezaOperacao", doc.Header.NatOp)
	require("empresa", doc.CompanyID)
	require("destinatario", doc.PartyID)

	r.LineCount = len(doc.Lines)
	if r.LineCount == 0 {
		r.MissingFields = append(r.MissingFields, "itens")
	}
	for _, line := range doc.Lines {
		if !lineValid(line) {
			r.InvalidLines++
		}
	}
	return r
}

// lineValid campos mínimos de uma linha emitível.
func lineValid(line *entity.LineItem) bool {
	if line == nil {
		return false
	}
	switch {
	case strings.TrimSpace(line.Description) == "":
		return false
	case strings.TrimSpace(line.CFOP) == "":
		return false
	case strings.TrimSpace(line.CommercialUnit) == "":
		return false
	case !line.Qty.IsPositive():
		return false
	case line.UnitPrice.IsNegative():
		return false
	}
	return true
}
