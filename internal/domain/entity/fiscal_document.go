package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// Status do ciclo de vida do documento fiscal.
const (
	StatusDraft      = "draft"      // Em edição; reserva ID e código sequencial
	StatusReady      = "ready"      // Validado, pronto para emissão
	StatusAuthorized = "authorized" // Autorizado pela SEFAZ (cStat 100/150)
	StatusRejected   = "rejected"   // Rejeitado pela SEFAZ; permite correção e reenvio
	StatusCanceled   = "canceled"   // Cancelamento homologado
)

// DocumentHeader cabeçalho do documento (identificação fiscal).
type DocumentHeader struct {
	Code      string // código interno exibido (zero-padded)
	Number    string // nNF
	Serie     string // ID da série fiscal
	Type      string // entrada | saida
	Model     string // 55
	IssueDate string // AAAA-MM-DD
	EntryDate string
	NatOp     string // natureza da operação
}

// XMLSnapshot estado do XML gerado/assinado do documento.
type XMLSnapshot struct {
	AccessKey   string // chave de acesso de 44 dígitos
	Ambient     string // tpAmb usado na geração ("1" | "2")
	Content     string // XML corrente (assinado ou não)
	GeneratedAt time.Time
	SignedAt    time.Time
}

// Authorization protocolo de autorização devolvido pela SEFAZ.
type Authorization struct {
	Protocol    string
	ProcessedAt string // dhRecbto devolvido pela SEFAZ (string ISO preservada)
}

// FiscalEvent evento registrado contra o documento (lista append-only).
type FiscalEvent struct {
	Event         string // nome canônico (pkg/nfe)
	Protocol      string
	Justification string
	Sequence      int
	Status        string // cStat do registro do evento
	Message       string
	CreatedAt     string
}

// FiscalDocument raiz do agregado: rascunho de NF-e com linhas, totais,
// eventos e estado de transmissão. Nunca é apagado fisicamente pelo núcleo.
type FiscalDocument struct {
	ID        string
	Code      int64 // sequencial interno atribuído na criação
	Status    string
	Header    DocumentHeader
	CompanyID string
	PartyID   string // destinatário/fornecedor
	PartyName string

	Lines  []*LineItem
	Totals DocumentTotals

	// Encargos em nível de documento (entram no total geral)
	Freight       decimal.Decimal
	Insurance     decimal.Decimal
	OtherExpenses decimal.Decimal

	// Bloco do sub-razão de pagamentos, mantido pelo colaborador externo.
	// O núcleo persiste e devolve sem interpretar.
	Payments json.RawMessage

	XML           XMLSnapshot
	Authorization *Authorization
	Events        []FiscalEvent
	LastSefaz     SefazResult // última resposta da autoridade (transmissão ou consulta)
	Logs          []string    // trilha de auditoria por etapa

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SefazResult resumo da última interação com a SEFAZ persistido no documento.
type SefazResult struct {
	Status      string // cStat
	Message     string // xMotivo
	Protocol    string
	ProcessedAt string
	QueriedAt   string
}

// DocumentTotals totais derivados do documento; nunca mutados de forma independente.
type DocumentTotals struct {
	Products  decimal.Decimal // soma dos totais de linha (já líquidos de desconto)
	Discounts decimal.Decimal
	ICMSBase  decimal.Decimal
	ICMS      decimal.Decimal
	ICMSST    decimal.Decimal
	FCP       decimal.Decimal
	IPI       decimal.Decimal
	PIS       decimal.Decimal
	COFINS    decimal.Decimal
	Freight   decimal.Decimal
	Insurance decimal.Decimal
	Other     decimal.Decimal
	GrandTotal decimal.Decimal // Products + Freight + Other
}

// HasCancellationEvent indica se já existe evento de cancelamento registrado.
func (d *FiscalDocument) HasCancellationEvent() bool {
	for _, ev := range d.Events {
		if ev.Event == nfe.EventNameCancelamento {
			return true
		}
	}
	return false
}

// CorrectionLetterCount devolve quantas Cartas de Correção já foram registradas.
func (d *FiscalDocument) CorrectionLetterCount() int {
	n := 0
	for _, ev := range d.Events {
		if ev.Event == nfe.EventNameCartaCorrecao {
			n++
		}
	}
	return n
}

// AppendLog acrescenta uma linha na trilha de auditoria do documento.
func (d *FiscalDocument) AppendLog(message string) {
	if message == "" {
		return
	}
	d.Logs = append(d.Logs, time.Now().UTC().Format(time.RFC3339)+" "+message)
	if len(d.Logs) > 200 {
		d.Logs = d.Logs[len(d.Logs)-200:]
	}
}
