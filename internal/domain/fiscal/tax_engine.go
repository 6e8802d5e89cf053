// Package fiscal contém o núcleo puro do documento fiscal: motor de cálculo
// de tributos por linha (ICMS, ICMS-ST, FCP, IPI, PIS, COFINS), agregador de
// totais e a máquina de estados do ciclo de vida. Sem I/O.
package fiscal

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// ICMSExemptCodes códigos CSOSN/CST do regime simplificado que isentam ICMS e FCP.
// Linhas nesses códigos têm os campos de ICMS/FCP zerados e travados: o motor
// nunca recalcula valor a partir de alíquota para elas.
var ICMSExemptCodes = map[string]bool{
	"101": true,
	"102": true,
	"103": true,
	"300": true,
	"400": true,
}

const (
	// CSTIPISuspenso CST de IPI que zera base/alíquota/valor.
	CSTIPISuspenso = "53"
	// CSTPisCofinsNormal CST de PIS/COFINS com tributação normal (base = total da linha).
	CSTPisCofinsNormal = "01"
)

var hundred = decimal.NewFromInt(100)

// EditedField indica qual campo de quantidade foi editado por último,
// para resolver o espelhamento bidirecional quando as unidades coincidem.
type EditedField int

const (
	EditedCommercial EditedField = iota // qty / unitPrice
	EditedTaxable                       // taxableQty / taxableUnitPrice
)

// Recalculate recalcula o total da linha, sincroniza unidades e aplica as
// regras tributárias na ordem exigida (IPI antes do ICMS, que compõe a base).
// Única mutação permitida: a própria linha.
func Recalculate(line *entity.LineItem, lastEdited EditedField) {
	if line == nil {
		return
	}
	normalizeQuantities(line)
	recalcLineTotal(line)
	SyncUnits(line, lastEdited)
	recalcIPI(line)
	recalcICMS(line)
	recalcPisCofins(line)
}

// recalcLineTotal aplica lineTotal = max(0, qty*unitPrice - discount).
func recalcLineTotal(line *entity.LineItem) {
	gross := line.Qty.Mul(line.UnitPrice).Round(2)
	total := gross.Sub(line.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	line.LineTotal = total.Round(2)
}

// SyncUnits espelha quantidades/preços entre unidade comercial e tributável.
// Unidades iguais: o último campo editado vence e o par é espelhado.
// Unidades distintas: taxableUnitPrice = lineTotal / taxableQty (0 se divisor zero).
func SyncUnits(line *entity.LineItem, lastEdited EditedField) {
	if sameUnit(line.CommercialUnit, line.TaxableUnit) {
		if lastEdited == EditedTaxable {
			line.Qty = line.TaxableQty
			line.UnitPrice = line.TaxableUnitPrice
			recalcLineTotal(line)
		} else {
			line.TaxableQty = line.Qty
			line.TaxableUnitPrice = line.UnitPrice
		}
		return
	}
	if line.TaxableQty.IsZero() {
		line.TaxableUnitPrice = decimal.Zero
		return
	}
	line.TaxableUnitPrice = line.LineTotal.Div(line.TaxableQty).Round(2)
}

// recalcIPI CST 53 (suspenso) zera base/alíquota/valor; demais códigos
// recalculam base e valor a partir do percentual de base e da alíquota.
func recalcIPI(line *entity.LineItem) {
	if strings.TrimSpace(line.IPI.CST) == CSTIPISuspenso {
		line.IPI.Base = decimal.Zero
		line.IPI.Rate = decimal.Zero
		line.IPI.Value = decimal.Zero
		return
	}
	line.IPI.Base = line.LineTotal.Mul(line.IPI.BasePercent).Div(hundred).Round(2)
	line.IPI.Value = line.IPI.Base.Mul(line.IPI.Rate).Div(hundred).Round(2)
}

// recalcICMS códigos isentos zeram e travam ICMS/ICMS-ST/FCP; demais códigos
// recalculam base = (lineTotal + otherExpenses + ipiValue) * basePercent/100
// e valor = base * alíquota/100. FCP só é calculado quando há ICMS devido.
func recalcICMS(line *entity.LineItem) {
	if ICMSExemptCodes[strings.TrimSpace(line.ICMS.CST)] {
		zeroTax(&line.ICMS)
		zeroTax(&line.ICMSST)
		zeroTax(&line.FCP)
		return
	}

	assessable := line.LineTotal.Add(line.OtherExpenses).Add(line.IPI.Value)

	line.ICMS.Base = assessable.Mul(line.ICMS.BasePercent).Div(hundred).Round(2)
	line.ICMS.Value = line.ICMS.Base.Mul(line.ICMS.Rate).Div(hundred).Round(2)

	line.ICMSST.Base = assessable.Mul(line.ICMSST.BasePercent).Div(hundred).Round(2)
	line.ICMSST.Value = line.ICMSST.Base.Mul(line.ICMSST.Rate).Div(hundred).Round(2)

	if line.ICMS.Value.IsPositive() {
		line.FCP.Base = line.ICMS.Base
		line.FCP.Value = line.FCP.Base.Mul(line.FCP.Rate).Div(hundred).Round(2)
	} else {
		line.FCP.Base = decimal.Zero
		line.FCP.Value = decimal.Zero
	}
}

// recalcPisCofins CST 01 (tributação normal) recalcula base = total da linha
// e valor = base * alíquota/100; outros códigos passam intocados (o chamador
// é responsável por eles).
func recalcPisCofins(line *entity.LineItem) {
	recalcNormal := func(t *entity.LineTax) {
		if strings.TrimSpace(t.CST) != CSTPisCofinsNormal {
			return
		}
		t.Base = line.LineTotal
		t.Value = t.Base.Mul(t.Rate).Div(hundred).Round(2)
	}
	recalcNormal(&line.PIS)
	recalcNormal(&line.COFINS)
}

func zeroTax(t *entity.LineTax) {
	t.Base = decimal.Zero
	t.Value = decimal.Zero
}

// normalizeQuantities quantidades carregam 3 casas decimais.
func normalizeQuantities(line *entity.LineItem) {
	line.Qty = line.Qty.Round(3)
	line.TaxableQty = line.TaxableQty.Round(3)
}

func sameUnit(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
