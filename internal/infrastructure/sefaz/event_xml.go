package sefaz

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// Condição de uso obrigatória no detalhe da carta de correção (NT 2011/003).
const condUsoCartaCorrecao = "A Carta de Correcao e disciplinada pelo paragrafo 1o-A do art. 7o do Convenio S/N, de 15 de dezembro de 1970 e pode ser utilizada para regularizacao de erro ocorrido na emissao de documento fiscal, desde que o erro nao esteja relacionado com: I - as variaveis que determinam o valor do imposto tais como: base de calculo, aliquota, diferenca de preco, quantidade, valor da operacao ou da prestacao; II - a correcao de dados cadastrais que implique mudanca do remetente ou do destinatario; III - a data de emissao ou de saida."

// BuildEventXML monta o envEvento de cancelamento ou carta de correção.
func BuildEventXML(req appfiscal.EventRequest, now time.Time) ([]byte, error) {
	ufCode, ok := nfe.UFCodes[req.UF]
	if !ok {
		return nil, fmt.Errorf("sefaz: UF desconhecida %q", req.UF)
	}
	if len(nfe.DigitsOnly(req.AccessKey)) != 44 {
		return nil, fmt.Errorf("sefaz: chave de acesso inválida para evento")
	}

	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := x.CreateElement("envEvento")
	env.CreateAttr("xmlns", NsNFe)
	env.CreateAttr("versao", VersaoEvento)
	addText(env, "idLote", strconv.FormatInt(now.UnixMilli(), 10))

	evento := env.CreateElement("evento")
	evento.CreateAttr("versao", VersaoEvento)

	inf := evento.CreateElement("infEvento")
	inf.CreateAttr("Id", fmt.Sprintf("ID%s%s%02d", req.EventType, req.AccessKey, req.Sequence))
	addText(inf, "cOrgao", ufCode)
	addText(inf, "tpAmb", req.Ambiente)
	addText(inf, "CNPJ", nfe.DigitsOnly(req.CNPJ))
	addText(inf, "chNFe", req.AccessKey)
	addText(inf, "dhEvento", now.Format("2006-01-02T15:04:05-07:00"))
	addText(inf, "tpEvento", req.EventType)
	addText(inf, "nSeqEvento", strconv.Itoa(req.Sequence))
	addText(inf, "verEvento", VersaoEvento)

	det := inf.CreateElement("detEvento")
	det.CreateAttr("versao", VersaoEvento)
	switch req.EventType {
	case nfe.EventoCancelamento:
		addText(det, "descEvento", "Cancelamento")
		addText(det, "nProt", req.Protocol)
		addText(det, "xJust", req.Justification)
	case nfe.EventoCartaCorrecao:
		addText(det, "descEvento", "Carta de Correcao")
		addText(det, "xCorrecao", req.Correction)
		addText(det, "xCondUso", condUsoCartaCorrecao)
	default:
		return nil, fmt.Errorf("sefaz: tpEvento não suportado %q", req.EventType)
	}

	x.Indent(0)
	return x.WriteToBytes()
}
