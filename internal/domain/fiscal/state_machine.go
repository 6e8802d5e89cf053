package fiscal

import (
	"fmt"

	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// Action ação do ciclo de vida sujeita à tabela de transições.
type Action string

const (
	ActionSave        Action = "save"
	ActionValidate    Action = "validate"
	ActionEmit        Action = "emit"
	ActionView        Action = "view"
	ActionQueryStatus Action = "queryStatus"
	ActionCancel      Action = "cancel"
)

// actionTable única fonte da legalidade de cada ação por status.
// Todo handler e caso de uso passa por Guard; nenhuma checagem de status
// fica espalhada fora daqui.
var actionTable = map[string]map[Action]bool{
	entity.StatusDraft: {
		ActionSave:     true,
		ActionValidate: true,
	},
	entity.StatusReady: {
		ActionSave:     true,
		ActionValidate: true,
		ActionEmit:     true,
	},
	entity.StatusAuthorized: {
		ActionView:        true,
		ActionQueryStatus: true,
		ActionCancel:      true,
	},
	entity.StatusRejected: {
		ActionSave:        true,
		ActionValidate:    true,
		ActionEmit:        true,
		ActionQueryStatus: true,
	},
	entity.StatusCanceled: {
		ActionView:        true,
		ActionQueryStatus: true,
	},
}

// Can consulta a tabela de transições.
func Can(status string, action Action) bool {
	return actionTable[status][action]
}

// Guard rejeita defensivamente a ação quando o status não a permite.
// O erro embrulha ErrStateGuard para permitir errors.Is no handler.
func Guard(doc *entity.FiscalDocument, action Action) error {
	if doc == nil {
		return domain.ErrNotFound
	}
	if !Can(doc.Status, action) {
		return fmt.Errorf("%w: %s em %q", domain.ErrStateGuard, action, doc.Status)
	}
	return nil
}

// MarkReady aplica draft/rejected → ready após validação bem-sucedida.
func MarkReady(doc *entity.FiscalDocument) error {
	if err := Guard(doc, ActionValidate); err != nil {
		return err
	}
	doc.Status = entity.StatusReady
	return nil
}

// ApplyTransmission aplica o desfecho de uma transmissão concluída:
// cStat 100/150 → authorized (com protocolo e evento de autorização);
// qualquer outro código → rejected. Rejeição não é erro: o documento
// permanece corrigível e reenviável.
func ApplyTransmission(doc *entity.FiscalDocument, res entity.SefazResult) error {
	if err := Guard(doc, ActionEmit); err != nil {
		return err
	}
	doc.LastSefaz = res

	if !nfe.AuthorizedStatuses[res.Status] {
		doc.Status = entity.StatusRejected
		return nil
	}

	doc.Status = entity.StatusAuthorized
	doc.Authorization = &entity.Authorization{
		Protocol:    res.Protocol,
		ProcessedAt: res.ProcessedAt,
	}
	EnsureAuthorizationEvent(doc)
	return nil
}

// ApplyConsultation aplica o resultado de uma consulta de situação:
// pode promover ready/rejected → authorized ou authorized → canceled,
// conforme o cStat devolvido. Consulta nunca rebaixa um autorizado para
// rejeitado; fora dos códigos terminais apenas registra a resposta.
func ApplyConsultation(doc *entity.FiscalDocument, res entity.SefazResult) error {
	if err := Guard(doc, ActionQueryStatus); err != nil {
		return err
	}
	doc.LastSefaz = res

	switch {
	case nfe.AuthorizedStatuses[res.Status]:
		if doc.Status != entity.StatusCanceled {
			doc.Status = entity.StatusAuthorized
			if doc.Authorization == nil && res.Protocol != "" {
				doc.Authorization = &entity.Authorization{
					Protocol:    res.Protocol,
					ProcessedAt: res.ProcessedAt,
				}
			}
			EnsureAuthorizationEvent(doc)
		}
	case nfe.CanceledStatuses[res.Status]:
		doc.Status = entity.StatusCanceled
		ensureConsultationCancellationEvent(doc, res)
	}
	return nil
}

// ApplyCancellation aplica authorized → canceled após homologação do evento
// de cancelamento. O evento em si é anexado pelo chamador junto com o
// protocolo devolvido pela SEFAZ.
func ApplyCancellation(doc *entity.FiscalDocument, ev entity.FiscalEvent) error {
	if err := Guard(doc, ActionCancel); err != nil {
		return err
	}
	doc.Events = append(doc.Events, ev)
	doc.Status = entity.StatusCanceled
	return nil
}

// EnsureAuthorizationEvent sintetiza localmente o evento de autorização uma
// única vez (inserção idempotente pelo nome do evento): a SEFAZ não devolve
// o próprio registro de autorização na lista de eventos.
func EnsureAuthorizationEvent(doc *entity.FiscalDocument) {
	for _, ev := range doc.Events {
		if ev.Event == nfe.EventNameAutorizacao {
			return
		}
	}
	var protocol, processedAt string
	if doc.Authorization != nil {
		protocol = doc.Authorization.Protocol
		processedAt = doc.Authorization.ProcessedAt
	}
	doc.Events = append([]entity.FiscalEvent{{
		Event:     nfe.EventNameAutorizacao,
		Protocol:  protocol,
		Status:    doc.LastSefaz.Status,
		Message:   doc.LastSefaz.Message,
		CreatedAt: processedAt,
	}}, doc.Events...)
}

// ensureConsultationCancellationEvent sintetiza o evento de cancelamento
// quando a consulta revela que a NF-e foi cancelada por fora (outro sistema
// ou diretamente no portal). Idempotente.
func ensureConsultationCancellationEvent(doc *entity.FiscalDocument, res entity.SefazResult) {
	if doc.HasCancellationEvent() {
		return
	}
	doc.Events = append(doc.Events, entity.FiscalEvent{
		Event:         nfe.EventNameCancelamento,
		Protocol:      res.Protocol,
		Justification: "Cancelamento identificado via consulta SEFAZ.",
		Status:        res.Status,
		Message:       res.Message,
		CreatedAt:     res.ProcessedAt,
	})
}
