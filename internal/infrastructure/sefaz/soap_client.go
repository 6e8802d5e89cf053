package sefaz

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/pkg/logger"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// ClientConfig parâmetros do cliente SOAP.
type ClientConfig struct {
	UF       string
	Ambiente string // tpAmb: "1" produção, "2" homologação

	// Consulta de recibo quando o lote fica em processamento (cStat 103):
	// tentativas limitadas com intervalo fixo; para cedo em status terminal.
	ReceiptAttempts int
	ReceiptBackoff  time.Duration
}

// Client cliente dos webservices SOAP da SEFAZ com certificado digital (mTLS).
// Usa net/http da stdlib; o WS exige SOAP 1.2.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
	eps        Endpoints
	log        *logger.Logger
}

// NewClient monta o cliente com o certificado do emitente no canal TLS.
// Timeout generoso: os autorizadores podem levar vários segundos.
func NewClient(cfg ClientConfig, cert tls.Certificate, log *logger.Logger) *Client {
	if cfg.ReceiptAttempts <= 0 {
		cfg.ReceiptAttempts = 3
	}
	if cfg.ReceiptBackoff <= 0 {
		cfg.ReceiptBackoff = 2 * time.Second
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second, Transport: transport},
		cfg:        cfg,
		eps:        EndpointsFor(cfg.UF, cfg.Ambiente),
		log:        log,
	}
}

// Authorize envia o lote síncrono (indSinc=1). Se o autorizador devolver o
// lote em processamento, consulta o recibo com tentativas limitadas e devolve
// o último resultado conhecido; a promoção tardia fica para a consulta de
// situação.
func (c *Client) Authorize(ctx context.Context, signedXML []byte) (entity.SefazResult, error) {
	payload, err := c.wrapEnviNFe(signedXML)
	if err != nil {
		return entity.SefazResult{}, err
	}

	body, err := c.call(ctx, c.eps.Autorizacao, nsWsdlAutorizacao, payload)
	if err != nil {
		return entity.SefazResult{}, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return entity.SefazResult{}, fmt.Errorf("sefaz: resposta de autorização ilegível: %w", err)
	}

	if res, ok := protocolResult(doc.Root()); ok {
		return res, nil
	}

	res := entity.SefazResult{
		Status:  findText(doc.Root(), "cStat"),
		Message: findText(doc.Root(), "xMotivo"),
	}
	if res.Status != nfe.StatusLoteRecebido && res.Status != nfe.StatusLoteEmProcesso {
		return res, nil
	}
	receipt := findText(doc.Root(), "nRec")
	if receipt == "" {
		return res, nil
	}
	return c.pollReceipt(ctx, receipt, res)
}

// pollReceipt consulta o recibo do lote até obter o protocolo ou esgotar as
// tentativas.
func (c *Client) pollReceipt(ctx context.Context, receipt string, last entity.SefazResult) (entity.SefazResult, error) {
	payload := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<consReciNFe xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">` +
		`<tpAmb>` + c.cfg.Ambiente + `</tpAmb><nRec>` + receipt + `</nRec></consReciNFe>`

	for attempt := 1; attempt <= c.cfg.ReceiptAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(c.cfg.ReceiptBackoff):
		}

		body, err := c.call(ctx, c.eps.RetAutorizacao, nsWsdlRetAut, []byte(payload))
		if err != nil {
			return last, err
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil {
			return last, fmt.Errorf("sefaz: resposta do recibo ilegível: %w", err)
		}
		if res, ok := protocolResult(doc.Root()); ok {
			return res, nil
		}
		last = entity.SefazResult{
			Status:  findText(doc.Root(), "cStat"),
			Message: findText(doc.Root(), "xMotivo"),
		}
		if last.Status != nfe.StatusLoteEmProcesso && last.Status != nfe.StatusLoteRecebido {
			return last, nil
		}
		c.log.Debug().
			Str("receipt", receipt).
			Int("attempt", attempt).
			Msg("lote ainda em processamento")
	}
	return last, nil
}

// QueryStatus consulta a situação atual da NF-e (consSitNFe).
func (c *Client) QueryStatus(ctx context.Context, accessKey string) (entity.SefazResult, error) {
	key := nfe.DigitsOnly(accessKey)
	if len(key) != 44 {
		return entity.SefazResult{}, fmt.Errorf("sefaz: chave de acesso inválida %q", accessKey)
	}
	payload := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<consSitNFe xmlns="` + NsNFe + `" versao="` + VersaoLayout + `">` +
		`<tpAmb>` + c.cfg.Ambiente + `</tpAmb><xServ>CONSULTAR</xServ>` +
		`<chNFe>` + key + `</chNFe></consSitNFe>`

	body, err := c.call(ctx, c.eps.Consulta, nsWsdlConsulta, []byte(payload))
	if err != nil {
		return entity.SefazResult{}, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return entity.SefazResult{}, fmt.Errorf("sefaz: resposta da consulta ilegível: %w", err)
	}

	// cStat/xMotivo do retConsSitNFe vêm antes do protNFe na resposta
	res := entity.SefazResult{
		Status:  findText(doc.Root(), "cStat"),
		Message: findText(doc.Root(), "xMotivo"),
	}
	if prot, ok := protocolResult(doc.Root()); ok {
		res.Protocol = prot.Protocol
		res.ProcessedAt = prot.ProcessedAt
	}
	return res, nil
}

// RegisterEvent registra um evento vinculado (cancelamento / carta de correção).
func (c *Client) RegisterEvent(ctx context.Context, req appfiscal.EventRequest) (entity.SefazResult, error) {
	if req.Ambiente == "" {
		req.Ambiente = c.cfg.Ambiente
	}
	payload, err := BuildEventXML(req, time.Now())
	if err != nil {
		return entity.SefazResult{}, err
	}

	body, err := c.call(ctx, c.eps.Evento, nsWsdlEvento, payload)
	if err != nil {
		return entity.SefazResult{}, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return entity.SefazResult{}, fmt.Errorf("sefaz: resposta do evento ilegível: %w", err)
	}

	// o cStat que interessa é o do infEvento, não o do lote
	if inf := findElement(doc.Root(), "infEvento"); inf != nil && findText(inf, "cStat") != "" {
		return entity.SefazResult{
			Status:      findText(inf, "cStat"),
			Message:     findText(inf, "xMotivo"),
			Protocol:    findText(inf, "nProt"),
			ProcessedAt: findText(inf, "dhRegEvento"),
		}, nil
	}
	return entity.SefazResult{
		Status:  findText(doc.Root(), "cStat"),
		Message: findText(doc.Root(), "xMotivo"),
	}, nil
}

// wrapEnviNFe embrulha a NFe assinada no lote de envio síncrono.
func (c *Client) wrapEnviNFe(signedXML []byte) ([]byte, error) {
	nfeDoc := etree.NewDocument()
	if err := nfeDoc.ReadFromBytes(signedXML); err != nil {
		return nil, fmt.Errorf("sefaz: XML assinado ilegível: %w", err)
	}
	root := nfeDoc.Root()
	if root == nil {
		return nil, fmt.Errorf("sefaz: XML assinado sem raiz")
	}

	env := etree.NewDocument()
	env.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	envi := env.CreateElement("enviNFe")
	envi.CreateAttr("xmlns", NsNFe)
	envi.CreateAttr("versao", VersaoLayout)
	addText(envi, "idLote", strconv.FormatInt(time.Now().UnixMilli(), 10))
	addText(envi, "indSinc", "1")
	envi.AddChild(root.Copy())

	return env.WriteToBytes()
}

// call faz a chamada SOAP 1.2 e devolve o corpo bruto da resposta.
// Qualquer status HTTP fora de 200 vira erro com trecho do corpo; o chamador
// não muta estado nesse caso.
func (c *Client) call(ctx context.Context, url, wsdlNS string, payload []byte) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<soap12:Envelope xmlns:soap12="` + NsSoap + `"><soap12:Body>`)
	b.WriteString(`<nfeDadosMsg xmlns="` + wsdlNS + `">`)
	b.Write(stripProcInst(payload))
	b.WriteString(`</nfeDadosMsg></soap12:Body></soap12:Envelope>`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("sefaz: criando request: %w", err)
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sefaz: chamada cancelada: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sefaz: chamada HTTP falhou: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("sefaz: lendo resposta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sefaz: HTTP %d do webservice: %s", resp.StatusCode, excerpt(raw))
	}
	return raw, nil
}

// ── parsing ───────────────────────────────────────────────────────────────────

// protocolResult extrai o resultado do protNFe/infProt quando presente.
func protocolResult(root *etree.Element) (entity.SefazResult, bool) {
	if root == nil {
		return entity.SefazResult{}, false
	}
	prot := findElement(root, "infProt")
	if prot == nil {
		return entity.SefazResult{}, false
	}
	return entity.SefazResult{
		Status:      findText(prot, "cStat"),
		Message:     findText(prot, "xMotivo"),
		Protocol:    findText(prot, "nProt"),
		ProcessedAt: findText(prot, "dhRecbto"),
	}, true
}

// findElement busca em profundidade o primeiro elemento com a tag local dada
// (as respostas SEFAZ usam namespace padrão, sem prefixo nas tags).
func findElement(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func findText(el *etree.Element, tag string) string {
	if found := findElement(el, tag); found != nil {
		return found.Text()
	}
	return ""
}

// stripProcInst remove a declaração <?xml?> para aninhar o payload no envelope.
func stripProcInst(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if bytes.HasPrefix(trimmed, []byte("<?")) {
		if idx := bytes.Index(trimmed, []byte("?>")); idx >= 0 {
			return bytes.TrimSpace(trimmed[idx+2:])
		}
	}
	return trimmed
}

func excerpt(raw []byte) string {
	const max = 300
	s := string(bytes.TrimSpace(raw))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

var _ appfiscal.SefazClient = (*Client)(nil)
