package sefaz_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	domfiscal "github.com/eobicho/fiscal-api/internal/domain/fiscal"
	"github.com/eobicho/fiscal-api/internal/infrastructure/sefaz"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

func buildInput() appfiscal.BuildInput {
	line := &entity.LineItem{
		ProductRef:     "P-001",
		Description:    "RACAO PREMIUM 10KG",
		CFOP:           "5102",
		NCM:            "23091000",
		CommercialUnit: "UN",
		TaxableUnit:    "UN",
		Qty:            decimal.NewFromInt(3),
		TaxableQty:     decimal.NewFromInt(3),
		UnitPrice:      decimal.RequireFromString("10.00"),
		ICMS: entity.LineTax{
			CST:         "000",
			BasePercent: decimal.NewFromInt(100),
			Rate:        decimal.NewFromInt(18),
		},
		PIS:    entity.LineTax{CST: "01", Rate: decimal.RequireFromString("1.65")},
		COFINS: entity.LineTax{CST: "01", Rate: decimal.RequireFromString("7.6")},
	}
	domfiscal.Recalculate(line, domfiscal.EditedCommercial)

	doc := &entity.FiscalDocument{
		ID:     "doc-1",
		Status: entity.StatusReady,
		Header: entity.DocumentHeader{
			Number:    "1234",
			Serie:     "serie-1",
			Type:      "saida",
			Model:     "55",
			IssueDate: "2026-08-31",
			NatOp:     "VENDA DE MERCADORIA",
		},
		CompanyID: "emp-1",
		PartyID:   "cli-1",
		Lines:     []*entity.LineItem{line},
	}
	domfiscal.ComputeTotals(doc)

	return appfiscal.BuildInput{
		Doc: doc,
		Company: &entity.Company{
			ID: "emp-1", Name: "AGROPET LTDA", CNPJ: "12.345.678/0001-95",
			IE: "123456789", CRT: "1", UF: "SP", IBGECityCode: "3550308",
			City: "SAO PAULO", Street: "RUA DAS FLORES", AddressNumber: "100",
			District: "CENTRO", ZipCode: "01001-000",
		},
		Party: &entity.Party{
			ID: "cli-1", Name: "JOSE DA SILVA", Document: "123.456.789-09",
			UF: "SP", IBGECityCode: "3550308", City: "SAO PAULO",
			Street: "AV PAULISTA", AddressNumber: "1000", District: "BELA VISTA",
			ZipCode: "01310-100",
		},
		Serie: &entity.FiscalSerie{ID: "serie-1", Serie: "1", Ambiente: "homologacao", Model: "55"},
	}
}

func parseXML(t *testing.T, raw []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	return doc
}

func findText(doc *etree.Document, path string) string {
	if el := doc.FindElement(path); el != nil {
		return el.Text()
	}
	return ""
}

func TestBuild_ChaveDeAcessoEIdConsistentes(t *testing.T) {
	builder := sefaz.NewXMLBuilderService()

	raw, key, err := builder.Build(buildInput())

	require.NoError(t, err)
	require.Len(t, key, 44)
	assert.True(t, nfe.ValidAccessKey(key))

	x := parseXML(t, raw)
	inf := x.FindElement("//infNFe")
	require.NotNil(t, inf)
	assert.Equal(t, "NFe"+key, inf.SelectAttrValue("Id", ""))
	assert.Equal(t, key[43:], findText(x, "//ide/cDV"))
	assert.Equal(t, key[35:43], findText(x, "//ide/cNF"))
}

func TestBuild_IdentificacaoDoDocumento(t *testing.T) {
	builder := sefaz.NewXMLBuilderService()

	raw, _, err := builder.Build(buildInput())
	require.NoError(t, err)
	x := parseXML(t, raw)

	assert.Equal(t, "35", findText(x, "//ide/cUF"))
	assert.Equal(t, "55", findText(x, "//ide/mod"))
	assert.Equal(t, "1", findText(x, "//ide/serie"))
	assert.Equal(t, "1234", findText(x, "//ide/nNF"))
	assert.Equal(t, "1", findText(x, "//ide/tpNF"), "saída")
	assert.Equal(t, "2", findText(x, "//ide/tpAmb"), "série de homologação")
	assert.Equal(t, "12345678000195", findText(x, "//emit/CNPJ"), "CNPJ só com dígitos")
}

// TestBuild_HomologacaoForcaNomeDoDestinatario em tpAmb=2 a SEFAZ exige a
// razão social fixa no destinatário.
func TestBuild_HomologacaoForcaNomeDoDestinatario(t *testing.T) {
	builder := sefaz.NewXMLBuilderService()

	raw, _, err := builder.Build(buildInput())
	require.NoError(t, err)
	x := parseXML(t, raw)

	assert.Contains(t, findText(x, "//dest/xNome"), "SEM VALOR FISCAL")
	assert.Equal(t, "12345678909", findText(x, "//dest/CPF"))
}

func TestBuild_TributosDaLinha(t *testing.T) {
	builder := sefaz.NewXMLBuilderService()

	raw, _, err := builder.Build(buildInput())
	require.NoError(t, err)
	x := parseXML(t, raw)

	assert.Equal(t, "30.00", findText(x, "//ICMS00/vBC"))
	assert.Equal(t, "18.0000", findText(x, "//ICMS00/pICMS"))
	assert.Equal(t, "5.40", findText(x, "//ICMS00/vICMS"))
	assert.Equal(t, "0.50", findText(x, "//PISAliq/vPIS"))
	assert.Equal(t, "2.28", findText(x, "//COFINSAliq/vCOFINS"))
}

func TestBuild_CSOSNIsentoUsaGrupoSimples(t *testing.T) {
	in := buildInput()
	in.Doc.Lines[0].ICMS.CST = "102"
	domfiscal.Recalculate(in.Doc.Lines[0], domfiscal.EditedCommercial)
	domfiscal.ComputeTotals(in.Doc)
	builder := sefaz.NewXMLBuilderService()

	raw, _, err := builder.Build(in)
	require.NoError(t, err)
	x := parseXML(t, raw)

	assert.Equal(t, "102", findText(x, "//ICMSSN102/CSOSN"))
	assert.Nil(t, x.FindElement("//ICMS00"), "grupo de tributação integral não deve existir")
	assert.Equal(t, "0.00", findText(x, "//ICMSTot/vICMS"))
}

func TestBuild_TotaisDoDocumento(t *testing.T) {
	builder := sefaz.NewXMLBuilderService()

	raw, _, err := builder.Build(buildInput())
	require.NoError(t, err)
	x := parseXML(t, raw)

	assert.Equal(t, "30.00", findText(x, "//ICMSTot/vProd"))
	assert.Equal(t, "30.00", findText(x, "//ICMSTot/vNF"))
	assert.Equal(t, "5.40", findText(x, "//ICMSTot/vICMS"))
}

func TestBuild_DataDeEmissaoInvalida(t *testing.T) {
	in := buildInput()
	in.Doc.Header.IssueDate = "31/08/2026"
	builder := sefaz.NewXMLBuilderService()

	_, _, err := builder.Build(in)

	assert.Error(t, err)
}

// ── XML de eventos ────────────────────────────────────────────────────────────

func TestBuildEventXML_Cancelamento(t *testing.T) {
	key := "35260812345678000195550010000012341123456785"
	raw, err := sefaz.BuildEventXML(appfiscal.EventRequest{
		AccessKey:     key,
		CNPJ:          "12345678000195",
		UF:            "SP",
		Ambiente:      "2",
		EventType:     nfe.EventoCancelamento,
		Sequence:      1,
		Protocol:      "135260000000001",
		Justification: "Erro de digitação nos itens da nota",
	}, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	x := parseXML(t, raw)
	assert.Equal(t, "110111", findText(x, "//infEvento/tpEvento"))
	assert.Equal(t, key, findText(x, "//infEvento/chNFe"))
	assert.Equal(t, "135260000000001", findText(x, "//detEvento/nProt"))
	assert.Equal(t, "Cancelamento", findText(x, "//detEvento/descEvento"))

	inf := x.FindElement("//infEvento")
	require.NotNil(t, inf)
	assert.Equal(t, "ID110111"+key+"01", inf.SelectAttrValue("Id", ""))
}

func TestBuildEventXML_CartaCorrecaoIncluiCondUso(t *testing.T) {
	raw, err := sefaz.BuildEventXML(appfiscal.EventRequest{
		AccessKey:  "35260812345678000195550010000012341123456785",
		CNPJ:       "12345678000195",
		UF:         "SP",
		Ambiente:   "2",
		EventType:  nfe.EventoCartaCorrecao,
		Sequence:   2,
		Correction: "Corrigir a natureza da operação",
	}, time.Now())

	require.NoError(t, err)
	x := parseXML(t, raw)
	assert.Equal(t, "2", findText(x, "//infEvento/nSeqEvento"))
	assert.NotEmpty(t, findText(x, "//detEvento/xCondUso"))
	assert.Equal(t, "Corrigir a natureza da operação", findText(x, "//detEvento/xCorrecao"))
}

func TestBuildEventXML_UFDesconhecidaFalha(t *testing.T) {
	_, err := sefaz.BuildEventXML(appfiscal.EventRequest{
		AccessKey: "35260812345678000195550010000012341123456785",
		UF:        "XX",
		EventType: nfe.EventoCancelamento,
	}, time.Now())

	assert.Error(t, err)
}
