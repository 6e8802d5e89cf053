package sefaz

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	domfiscal "github.com/eobicho/fiscal-api/internal/domain/fiscal"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// Razão social forçada pela SEFAZ no destinatário em homologação.
const homologRecipientName = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"

// XMLBuilderService monta o XML da NF-e (layout 4.00, sem assinatura).
type XMLBuilderService struct{}

func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build gera o documento NFe e devolve também a chave de acesso calculada.
func (s *XMLBuilderService) Build(in appfiscal.BuildInput) ([]byte, string, error) {
	if in.Doc == nil || in.Company == nil || in.Party == nil || in.Serie == nil {
		return nil, "", fmt.Errorf("sefaz: faltam documento, emitente, destinatário ou série")
	}
	doc := in.Doc

	issue, err := time.Parse("2006-01-02", doc.Header.IssueDate)
	if err != nil {
		return nil, "", fmt.Errorf("sefaz: data de emissão inválida %q: %w", doc.Header.IssueDate, err)
	}

	ufCode, ok := nfe.UFCodes[in.Company.UF]
	if !ok {
		return nil, "", fmt.Errorf("sefaz: UF do emitente desconhecida %q", in.Company.UF)
	}

	ambiente := nfe.AmbienteHomologacao
	if in.Serie.Ambiente == "producao" {
		ambiente = nfe.AmbienteProducao
	}

	accessKey, err := nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode:   ufCode,
		CNPJ:     in.Company.CNPJ,
		Serie:    in.Serie.Serie,
		Number:   doc.Header.Number,
		Emission: issue,
	})
	if err != nil {
		return nil, "", err
	}
	// cNF fica embutido na chave (posições 35..43)
	cnf := accessKey[35:43]

	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := x.CreateElement("NFe")
	root.CreateAttr("xmlns", NsNFe)

	inf := root.CreateElement("infNFe")
	inf.CreateAttr("Id", "NFe"+accessKey)
	inf.CreateAttr("versao", VersaoLayout)

	s.writeIde(inf, doc, in, ufCode, ambiente, cnf, accessKey, issue)
	s.writeEmit(inf, in.Company)
	s.writeDest(inf, in.Party, ambiente)
	for i, line := range doc.Lines {
		s.writeDet(inf, i+1, line)
	}
	s.writeTotal(inf, doc)

	transp := inf.CreateElement("transp")
	addText(transp, "modFrete", "9") // sem ocorrência de transporte

	pag := inf.CreateElement("pag")
	detPag := pag.CreateElement("detPag")
	addText(detPag, "tPag", "90") // pagamento tratado fora do documento fiscal
	addText(detPag, "vPag", "0.00")

	x.Indent(0)
	out, err := x.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("sefaz: serializando NFe: %w", err)
	}
	return out, accessKey, nil
}

func (s *XMLBuilderService) writeIde(inf *etree.Element, doc *entity.FiscalDocument, in appfiscal.BuildInput, ufCode, ambiente, cnf, accessKey string, issue time.Time) {
	tpNF := "1" // saída
	if doc.Header.Type == "entrada" {
		tpNF = "0"
	}
	idDest := "1"
	if in.Party.UF != "" && in.Party.UF != in.Company.UF {
		idDest = "2"
	}

	ide := inf.CreateElement("ide")
	addText(ide, "cUF", ufCode)
	addText(ide, "cNF", cnf)
	addText(ide, "natOp", doc.Header.NatOp)
	addText(ide, "mod", nfe.ModeloNFe)
	addText(ide, "serie", strconv.Itoa(atoi(in.Serie.Serie)))
	addText(ide, "nNF", strconv.Itoa(atoi(doc.Header.Number)))
	addText(ide, "dhEmi", issue.Format("2006-01-02T15:04:05-07:00"))
	addText(ide, "tpNF", tpNF)
	addText(ide, "idDest", idDest)
	addText(ide, "cMunFG", in.Company.IBGECityCode)
	addText(ide, "tpImp", "1")
	addText(ide, "tpEmis", nfe.TipoEmissaoNormal)
	addText(ide, "cDV", accessKey[43:])
	addText(ide, "tpAmb", ambiente)
	addText(ide, "finNFe", "1")
	addText(ide, "indFinal", "1")
	addText(ide, "indPres", "1")
	addText(ide, "procEmi", "0")
	addText(ide, "verProc", "fiscal-api 1.0")
}

func (s *XMLBuilderService) writeEmit(inf *etree.Element, company *entity.Company) {
	emit := inf.CreateElement("emit")
	addText(emit, "CNPJ", nfe.DigitsOnly(company.CNPJ))
	addText(emit, "xNome", company.Name)
	if company.TradeName != "" {
		addText(emit, "xFant", company.TradeName)
	}
	ender := emit.CreateElement("enderEmit")
	addText(ender, "xLgr", company.Street)
	addText(ender, "nro", company.AddressNumber)
	addText(ender, "xBairro", company.District)
	addText(ender, "cMun", company.IBGECityCode)
	addText(ender, "xMun", company.City)
	addText(ender, "UF", company.UF)
	addText(ender, "CEP", nfe.DigitsOnly(company.ZipCode))
	addText(ender, "cPais", "1058")
	addText(ender, "xPais", "BRASIL")
	addText(emit, "IE", nfe.DigitsOnly(company.IE))
	addText(emit, "CRT", company.CRT)
}

func (s *XMLBuilderService) writeDest(inf *etree.Element, party *entity.Party, ambiente string) {
	dest := inf.CreateElement("dest")
	document := nfe.DigitsOnly(party.Document)
	if len(document) == 14 {
		addText(dest, "CNPJ", document)
	} else {
		addText(dest, "CPF", document)
	}
	name := party.Name
	if ambiente == nfe.AmbienteHomologacao {
		name = homologRecipientName
	}
	addText(dest, "xNome", name)
	ender := dest.CreateElement("enderDest")
	addText(ender, "xLgr", party.Street)
	addText(ender, "nro", party.AddressNumber)
	addText(ender, "xBairro", party.District)
	addText(ender, "cMun", party.IBGECityCode)
	addText(ender, "xMun", party.City)
	addText(ender, "UF", party.UF)
	addText(ender, "CEP", nfe.DigitsOnly(party.ZipCode))
	if party.StateRegistration == "" || party.StateRegistration == "ISENTO" {
		addText(dest, "indIEDest", "9")
	} else {
		addText(dest, "indIEDest", "1")
		addText(dest, "IE", nfe.DigitsOnly(party.StateRegistration))
	}
}

func (s *XMLBuilderService) writeDet(inf *etree.Element, n int, line *entity.LineItem) {
	det := inf.CreateElement("det")
	det.CreateAttr("nItem", strconv.Itoa(n))

	prod := det.CreateElement("prod")
	addText(prod, "cProd", line.ProductRef)
	addText(prod, "cEAN", "SEM GTIN")
	addText(prod, "xProd", line.Description)
	addText(prod, "NCM", nfe.DigitsOnly(line.NCM))
	addText(prod, "CFOP", nfe.DigitsOnly(line.CFOP))
	addText(prod, "uCom", line.CommercialUnit)
	addText(prod, "qCom", line.Qty.StringFixed(4))
	addText(prod, "vUnCom", line.UnitPrice.StringFixed(2))
	addText(prod, "vProd", line.Qty.Mul(line.UnitPrice).Round(2).StringFixed(2))
	addText(prod, "cEANTrib", "SEM GTIN")
	addText(prod, "uTrib", line.TaxableUnit)
	addText(prod, "qTrib", line.TaxableQty.StringFixed(4))
	addText(prod, "vUnTrib", line.TaxableUnitPrice.StringFixed(2))
	if line.Discount.IsPositive() {
		addText(prod, "vDesc", line.Discount.StringFixed(2))
	}
	if line.OtherExpenses.IsPositive() {
		addText(prod, "vOutro", line.OtherExpenses.StringFixed(2))
	}
	addText(prod, "indTot", "1")

	imposto := det.CreateElement("imposto")
	s.writeICMS(imposto, line)
	s.writeIPI(imposto, line)
	s.writePisCofins(imposto, line)
}

// writeICMS grupos do Simples Nacional para CSOSN isento; ICMS00 para
// tributação integral.
func (s *XMLBuilderService) writeICMS(imposto *etree.Element, line *entity.LineItem) {
	icms := imposto.CreateElement("ICMS")
	if domfiscal.ICMSExemptCodes[line.ICMS.CST] {
		sn := icms.CreateElement("ICMSSN102")
		addText(sn, "orig", "0")
		addText(sn, "CSOSN", line.ICMS.CST)
		return
	}
	g := icms.CreateElement("ICMS00")
	addText(g, "orig", "0")
	addText(g, "CST", nfe.PadNumber(line.ICMS.CST, 2))
	addText(g, "modBC", "3")
	addText(g, "vBC", line.ICMS.Base.StringFixed(2))
	addText(g, "pICMS", line.ICMS.Rate.StringFixed(4))
	addText(g, "vICMS", line.ICMS.Value.StringFixed(2))
	if line.FCP.Value.IsPositive() {
		addText(g, "vBCFCP", line.FCP.Base.StringFixed(2))
		addText(g, "pFCP", line.FCP.Rate.StringFixed(4))
		addText(g, "vFCP", line.FCP.Value.StringFixed(2))
	}
}

func (s *XMLBuilderService) writeIPI(imposto *etree.Element, line *entity.LineItem) {
	if line.IPI.CST == "" {
		return
	}
	ipi := imposto.CreateElement("IPI")
	addText(ipi, "cEnq", "999")
	if line.IPI.Value.IsPositive() {
		trib := ipi.CreateElement("IPITrib")
		addText(trib, "CST", line.IPI.CST)
		addText(trib, "vBC", line.IPI.Base.StringFixed(2))
		addText(trib, "pIPI", line.IPI.Rate.StringFixed(4))
		addText(trib, "vIPI", line.IPI.Value.StringFixed(2))
		return
	}
	nt := ipi.CreateElement("IPINT")
	addText(nt, "CST", line.IPI.CST)
}

func (s *XMLBuilderService) writePisCofins(imposto *etree.Element, line *entity.LineItem) {
	pis := imposto.CreateElement("PIS")
	if line.PIS.CST == domfiscal.CSTPisCofinsNormal {
		aliq := pis.CreateElement("PISAliq")
		addText(aliq, "CST", line.PIS.CST)
		addText(aliq, "vBC", line.PIS.Base.StringFixed(2))
		addText(aliq, "pPIS", line.PIS.Rate.StringFixed(4))
		addText(aliq, "vPIS", line.PIS.Value.StringFixed(2))
	} else {
		nt := pis.CreateElement("PISNT")
		addText(nt, "CST", orDefault(line.PIS.CST, "07"))
	}

	cofins := imposto.CreateElement("COFINS")
	if line.COFINS.CST == domfiscal.CSTPisCofinsNormal {
		aliq := cofins.CreateElement("COFINSAliq")
		addText(aliq, "CST", line.COFINS.CST)
		addText(aliq, "vBC", line.COFINS.Base.StringFixed(2))
		addText(aliq, "pCOFINS", line.COFINS.Rate.StringFixed(4))
		addText(aliq, "vCOFINS", line.COFINS.Value.StringFixed(2))
	} else {
		nt := cofins.CreateElement("COFINSNT")
		addText(nt, "CST", orDefault(line.COFINS.CST, "07"))
	}
}

func (s *XMLBuilderService) writeTotal(inf *etree.Element, doc *entity.FiscalDocument) {
	t := doc.Totals
	total := inf.CreateElement("total")
	tot := total.CreateElement("ICMSTot")
	addText(tot, "vBC", t.ICMSBase.StringFixed(2))
	addText(tot, "vICMS", t.ICMS.StringFixed(2))
	addText(tot, "vICMSDeson", "0.00")
	addText(tot, "vFCP", t.FCP.StringFixed(2))
	addText(tot, "vBCST", "0.00")
	addText(tot, "vST", t.ICMSST.StringFixed(2))
	addText(tot, "vFCPST", "0.00")
	addText(tot, "vFCPSTRet", "0.00")
	addText(tot, "vProd", t.Products.Add(t.Discounts).StringFixed(2))
	addText(tot, "vFrete", t.Freight.StringFixed(2))
	addText(tot, "vSeg", t.Insurance.StringFixed(2))
	addText(tot, "vDesc", t.Discounts.StringFixed(2))
	addText(tot, "vII", "0.00")
	addText(tot, "vIPI", t.IPI.StringFixed(2))
	addText(tot, "vIPIDevol", "0.00")
	addText(tot, "vPIS", t.PIS.StringFixed(2))
	addText(tot, "vCOFINS", t.COFINS.StringFixed(2))
	addText(tot, "vOutro", t.Other.StringFixed(2))
	addText(tot, "vNF", t.GrandTotal.StringFixed(2))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func addText(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func atoi(s string) int {
	n, _ := strconv.Atoi(nfe.DigitsOnly(s))
	return n
}

var _ appfiscal.XMLBuilder = (*XMLBuilderService)(nil)
