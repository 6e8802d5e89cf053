package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	domfiscal "github.com/eobicho/fiscal-api/internal/domain/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
	"github.com/eobicho/fiscal-api/pkg/logger"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// Linhas da trilha de auditoria registradas a cada etapa concluída.
const (
	logXMLGenerated   = "XML Gerado"
	logXMLSigned      = "XML Assinado"
	logXMLTransmitted = "XML Transmitido"
)

// EmissionUseCase fluxo de transmissão da NF-e: gerar XML → assinar →
// transmitir → consultar situação → registrar eventos. Cada passo é disparado
// por ação explícita do operador e pode ser repetido; nenhuma falha de
// transporte muta o estado do documento.
type EmissionUseCase struct {
	drafts    repository.DraftRepository
	series    repository.SerieRepository
	companies repository.CompanyRepository
	parties   repository.PartyRepository
	builder   XMLBuilder
	signer    Signer
	sefaz     SefazClient
	log       *logger.Logger
}

func NewEmissionUseCase(
	drafts repository.DraftRepository,
	series repository.SerieRepository,
	companies repository.CompanyRepository,
	parties repository.PartyRepository,
	builder XMLBuilder,
	signer Signer,
	sefaz SefazClient,
	log *logger.Logger,
) *EmissionUseCase {
	return &EmissionUseCase{
		drafts:    drafts,
		series:    series,
		companies: companies,
		parties:   parties,
		builder:   builder,
		signer:    signer,
		sefaz:     sefaz,
		log:       log,
	}
}

// GenerateXML monta o XML da NF-e e grava o snapshot no documento.
// Idempotente: regenerar sobrescreve o XML anterior (e invalida a assinatura).
func (uc *EmissionUseCase) GenerateXML(ctx context.Context, id, companyID string) (*dto.XMLResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionEmit); err != nil {
		return nil, err
	}
	if err := uc.buildXML(ctx, doc); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now().UTC()
	if err := uc.drafts.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo XML: %w", err)
	}
	return xmlResponse(doc), nil
}

// SignXML assina o XML previamente gerado.
func (uc *EmissionUseCase) SignXML(ctx context.Context, id, companyID string) (*dto.XMLResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionEmit); err != nil {
		return nil, err
	}
	if doc.XML.Content == "" {
		return nil, fmt.Errorf("%w: gere o XML antes de assinar", domain.ErrInvalidInput)
	}

	signed, err := uc.signer.Sign([]byte(doc.XML.Content))
	if err != nil {
		return nil, fmt.Errorf("assinando XML: %w", err)
	}
	doc.XML.Content = string(signed)
	doc.XML.SignedAt = time.Now().UTC()
	doc.AppendLog(logXMLSigned)
	doc.UpdatedAt = doc.XML.SignedAt

	if err := uc.drafts.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo XML assinado: %w", err)
	}
	uc.log.Info().Str("draft_id", doc.ID).Str("access_key", doc.XML.AccessKey).Msg("XML assinado")
	return xmlResponse(doc), nil
}

// GetXML devolve o XML corrente; na primeira consulta sem XML gerado, gera.
func (uc *EmissionUseCase) GetXML(ctx context.Context, id, companyID string) (*dto.XMLResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if doc.XML.Content != "" {
		return xmlResponse(doc), nil
	}
	return uc.GenerateXML(ctx, id, companyID)
}

// Transmit envia o XML assinado à SEFAZ e aplica o desfecho no documento.
// Toda transmissão concluída avança o contador da série, autorizada ou não:
// a numeração é consumida pela autoridade independentemente do resultado.
func (uc *EmissionUseCase) Transmit(ctx context.Context, id, companyID string) (*dto.SefazResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionEmit); err != nil {
		return nil, err
	}
	if doc.XML.Content == "" || doc.XML.SignedAt.IsZero() {
		return nil, domain.ErrNotSigned
	}

	res, err := uc.sefaz.Authorize(ctx, []byte(doc.XML.Content))
	if err != nil {
		// falha de transporte: estado intacto, erro devolvido ao operador
		return nil, fmt.Errorf("transmitindo à SEFAZ: %w", err)
	}

	uc.advanceSerie(ctx, doc)

	if err := domfiscal.ApplyTransmission(doc, res); err != nil {
		return nil, err
	}
	doc.AppendLog(logXMLTransmitted)
	doc.UpdatedAt = time.Now().UTC()
	if err := uc.drafts.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo desfecho da transmissão: %w", err)
	}

	uc.log.Info().
		Str("draft_id", doc.ID).
		Str("cstat", res.Status).
		Str("protocol", res.Protocol).
		Str("draft_status", doc.Status).
		Msg("transmissão concluída")
	return toSefazResponse(doc, res), nil
}

// QueryStatus reconsulta a situação da NF-e sem reenviar; usada para
// recuperação após resposta perdida e para detectar cancelamento externo.
func (uc *EmissionUseCase) QueryStatus(ctx context.Context, id, companyID string) (*dto.SefazResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionQueryStatus); err != nil {
		return nil, err
	}
	if doc.XML.AccessKey == "" {
		return nil, domain.ErrNoAccessKey
	}

	res, err := uc.sefaz.QueryStatus(ctx, doc.XML.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("consultando situação: %w", err)
	}
	res.QueriedAt = time.Now().UTC().Format(time.RFC3339)

	if err := domfiscal.ApplyConsultation(doc, res); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now().UTC()
	if err := uc.drafts.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo desfecho da consulta: %w", err)
	}
	return toSefazResponse(doc, res), nil
}

// RegisterEvent registra cancelamento ou carta de correção contra uma NF-e
// autorizada (ou que já carregue protocolo de autorização válido).
func (uc *EmissionUseCase) RegisterEvent(ctx context.Context, id, companyID string, req dto.RegisterEventRequest) (*dto.SefazResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	eventName := nfe.NormalizeEventName(req.Kind)
	if eventName == "" || eventName == nfe.EventNameAutorizacao {
		return nil, fmt.Errorf("%w: tipo de evento desconhecido %q", domain.ErrInvalidInput, req.Kind)
	}
	if !uc.eventEligible(doc) {
		return nil, fmt.Errorf("%w: evento exige NF-e autorizada", domain.ErrStateGuard)
	}

	justification := strings.TrimSpace(req.Justification)
	sequence := 1
	switch eventName {
	case nfe.EventNameCancelamento:
		if doc.HasCancellationEvent() {
			return nil, fmt.Errorf("%w: cancelamento já registrado", domain.ErrConflict)
		}
		if len(justification) < nfe.MinJustificativaLen || len(justification) > nfe.MaxJustificativaCancelLen {
			return nil, fmt.Errorf("%w: justificativa deve ter entre %d e %d caracteres",
				domain.ErrInvalidInput, nfe.MinJustificativaLen, nfe.MaxJustificativaCancelLen)
		}
	case nfe.EventNameCartaCorrecao:
		if doc.CorrectionLetterCount() >= nfe.MaxCartasCorrecao {
			return nil, fmt.Errorf("%w: limite de %d cartas de correção atingido",
				domain.ErrConflict, nfe.MaxCartasCorrecao)
		}
		if len(justification) < nfe.MinJustificativaLen {
			return nil, fmt.Errorf("%w: correção deve ter ao menos %d caracteres",
				domain.ErrInvalidInput, nfe.MinJustificativaLen)
		}
		sequence = doc.CorrectionLetterCount() + 1
	}

	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("carregando emitente: %w", err)
	}

	evReq := EventRequest{
		AccessKey: doc.XML.AccessKey,
		CNPJ:      company.CNPJ,
		UF:        company.UF,
		Ambiente:  doc.XML.Ambient,
		EventType: nfe.EventTypeCode(eventName),
		Sequence:  sequence,
	}
	if eventName == nfe.EventNameCancelamento {
		evReq.Justification = justification
		if doc.Authorization != nil {
			evReq.Protocol = doc.Authorization.Protocol
		}
	} else {
		evReq.Correction = justification
	}

	res, err := uc.sefaz.RegisterEvent(ctx, evReq)
	if err != nil {
		return nil, fmt.Errorf("registrando evento: %w", err)
	}

	if eventRegistered(res.Status) {
		ev := entity.FiscalEvent{
			Event:         eventName,
			Protocol:      res.Protocol,
			Justification: justification,
			Sequence:      sequence,
			Status:        res.Status,
			Message:       res.Message,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if eventName == nfe.EventNameCancelamento {
			if doc.Status == entity.StatusAuthorized {
				if err := domfiscal.ApplyCancellation(doc, ev); err != nil {
					return nil, err
				}
			} else {
				// protocolo como prova de autorização: cancela direto
				doc.Events = append(doc.Events, ev)
				doc.Status = entity.StatusCanceled
			}
		} else {
			doc.Events = append(doc.Events, ev)
		}
		doc.UpdatedAt = time.Now().UTC()
		if err := uc.drafts.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("persistindo evento: %w", err)
		}
	}

	uc.log.Info().
		Str("draft_id", doc.ID).
		Str("event", eventName).
		Str("cstat", res.Status).
		Msg("evento processado")
	return toSefazResponse(doc, res), nil
}

// buildXML monta o XML e atualiza o snapshot do documento.
func (uc *EmissionUseCase) buildXML(ctx context.Context, doc *entity.FiscalDocument) error {
	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return fmt.Errorf("carregando emitente: %w", err)
	}
	party, err := uc.parties.GetByID(ctx, doc.PartyID)
	if err != nil {
		return fmt.Errorf("carregando destinatário: %w", err)
	}
	serie, err := uc.series.GetByID(ctx, doc.Header.Serie)
	if err != nil {
		return fmt.Errorf("carregando série: %w", err)
	}

	xmlBytes, accessKey, err := uc.builder.Build(BuildInput{
		Doc:     doc,
		Company: company,
		Party:   party,
		Serie:   serie,
	})
	if err != nil {
		return fmt.Errorf("montando XML: %w", err)
	}

	doc.XML = entity.XMLSnapshot{
		AccessKey:   accessKey,
		Ambient:     resolveAmbiente(serie),
		Content:     string(xmlBytes),
		GeneratedAt: time.Now().UTC(),
	}
	doc.AppendLog(logXMLGenerated)
	uc.log.Info().Str("draft_id", doc.ID).Str("access_key", accessKey).Msg("XML gerado")
	return nil
}

// advanceSerie consome o número na série (monotônico por empresa+série).
// Falha aqui não desfaz a transmissão já concluída; apenas registra o problema.
func (uc *EmissionUseCase) advanceSerie(ctx context.Context, doc *entity.FiscalDocument) {
	number := parseNumber(doc.Header.Number)
	if number <= 0 || doc.Header.Serie == "" {
		return
	}
	if err := uc.series.Advance(ctx, doc.Header.Serie, doc.CompanyID, number); err != nil {
		uc.log.Error().Err(err).
			Str("draft_id", doc.ID).
			Str("serie_id", doc.Header.Serie).
			Int64("number", number).
			Msg("falha ao avançar contador da série")
	}
}

// NextNumber devolve o próximo número disponível da série para a empresa.
func (uc *EmissionUseCase) NextNumber(ctx context.Context, serieID, companyID string) (int64, error) {
	current, err := uc.series.CurrentNumber(ctx, serieID, companyID)
	if err != nil {
		return 0, fmt.Errorf("consultando contador da série: %w", err)
	}
	return current + 1, nil
}

// eventEligible NF-e autorizada, ou portando protocolo de autorização com ao
// menos 10 dígitos (prova suficiente de autorização prévia).
func (uc *EmissionUseCase) eventEligible(doc *entity.FiscalDocument) bool {
	if doc.Status == entity.StatusAuthorized {
		return true
	}
	if doc.Authorization != nil &&
		len(nfe.DigitsOnly(doc.Authorization.Protocol)) >= nfe.MinProtocoloAutorizacaoLen {
		return true
	}
	return false
}

func eventRegistered(cstat string) bool {
	switch cstat {
	case nfe.StatusEventoRegistrado, nfe.StatusEventoRegistradoAlt, nfe.StatusCancelamentoEvt:
		return true
	}
	return false
}

func xmlResponse(doc *entity.FiscalDocument) *dto.XMLResponse {
	out := &dto.XMLResponse{
		AccessKey: doc.XML.AccessKey,
		Content:   doc.XML.Content,
		Signed:    !doc.XML.SignedAt.IsZero(),
	}
	if !doc.XML.GeneratedAt.IsZero() {
		out.GeneratedAt = doc.XML.GeneratedAt.Format(time.RFC3339)
	}
	return out
}

func parseNumber(s string) int64 {
	var n int64
	for _, r := range nfe.DigitsOnly(s) {
		n = n*10 + int64(r-'0')
	}
	return n
}

func (uc *EmissionUseCase) getOwned(ctx context.Context, id, companyID string) (*entity.FiscalDocument, error) {
	doc, err := uc.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || (companyID != "" && doc.CompanyID != companyID) {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
