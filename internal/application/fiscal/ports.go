// Package fiscal (application) orquestra o ciclo de vida do rascunho de NF-e:
// persistência, validação e o fluxo de transmissão contra a SEFAZ.
package fiscal

import (
	"context"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// BuildInput insumos para a montagem do XML da NF-e.
type BuildInput struct {
	Doc     *entity.FiscalDocument
	Company *entity.Company
	Party   *entity.Party
	Serie   *entity.FiscalSerie
}

// XMLBuilder monta o XML da NF-e (layout 4.00) e devolve a chave de acesso
// calculada para o documento.
type XMLBuilder interface {
	Build(in BuildInput) (xml []byte, accessKey string, err error)
}

// Signer assina o XML (assinatura digital envelopada sobre infNFe).
type Signer interface {
	Sign(xml []byte) ([]byte, error)
}

// EventRequest registro de evento (cancelamento ou carta de correção).
type EventRequest struct {
	AccessKey     string
	CNPJ          string
	UF            string
	Ambiente      string
	EventType     string // tpEvento
	Sequence      int    // nSeqEvento
	Protocol      string // nProt da autorização (cancelamento)
	Justification string // xJust (cancelamento)
	Correction    string // xCorrecao (carta de correção)
}

// SefazClient cliente dos webservices da SEFAZ. Cada chamada é um passo do
// fluxo de transmissão; falha de transporte devolve erro e nenhum resultado.
type SefazClient interface {
	// Authorize envia o lote síncrono (indSinc=1) e, se o lote cair em
	// processamento (cStat 103), consulta o recibo com tentativas limitadas.
	Authorize(ctx context.Context, signedXML []byte) (entity.SefazResult, error)
	// QueryStatus consulta a situação atual da NF-e pela chave de acesso.
	QueryStatus(ctx context.Context, accessKey string) (entity.SefazResult, error)
	// RegisterEvent registra um evento vinculado à NF-e.
	RegisterEvent(ctx context.Context, req EventRequest) (entity.SefazResult, error)
}
