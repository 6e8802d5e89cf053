package fiscal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	domfiscal "github.com/eobicho/fiscal-api/internal/domain/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
	"github.com/eobicho/fiscal-api/pkg/logger"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

// DraftUseCase CRUD e validação de rascunhos fiscais. Toda escrita passa pela
// tabela de transições e recalcula tributos e totais antes de persistir:
// nenhum valor calculado vindo do cliente é confiado.
type DraftUseCase struct {
	drafts  repository.DraftRepository
	series  repository.SerieRepository
	parties repository.PartyRepository
	log     *logger.Logger
}

func NewDraftUseCase(
	drafts repository.DraftRepository,
	series repository.SerieRepository,
	parties repository.PartyRepository,
	log *logger.Logger,
) *DraftUseCase {
	return &DraftUseCase{drafts: drafts, series: series, parties: parties, log: log}
}

// Create cria um rascunho em "draft" com código sequencial da empresa.
func (uc *DraftUseCase) Create(ctx context.Context, companyID string, req dto.SaveDraftRequest) (*dto.DraftResponse, error) {
	if strings.TrimSpace(companyID) == "" {
		return nil, fmt.Errorf("%w: empresa não informada", domain.ErrInvalidInput)
	}

	code, err := uc.drafts.NextCode(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtendo próximo código: %w", err)
	}

	now := time.Now().UTC()
	doc := &entity.FiscalDocument{
		ID:        uuid.NewString(),
		Code:      code,
		Status:    entity.StatusDraft,
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.applyRequest(ctx, doc, req)
	domfiscal.ComputeTotals(doc)

	if err := uc.drafts.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo rascunho: %w", err)
	}

	uc.log.Info().
		Str("draft_id", doc.ID).
		Int64("code", doc.Code).
		Str("company_id", companyID).
		Msg("rascunho fiscal criado")
	return ToDraftResponse(doc), nil
}

// Update sobrescreve o rascunho (last-write-wins). Só é permitido nos status
// em que "save" é legal; documentos autorizados/cancelados são imutáveis.
func (uc *DraftUseCase) Update(ctx context.Context, id, companyID string, req dto.SaveDraftRequest) (*dto.DraftResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionSave); err != nil {
		return nil, err
	}

	uc.applyRequest(ctx, doc, req)
	domfiscal.ComputeTotals(doc)
	doc.UpdatedAt = time.Now().UTC()

	if err := uc.drafts.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persistindo rascunho: %w", err)
	}
	return ToDraftResponse(doc), nil
}

// Validate roda a validação de emissão; quando aprovada, promove para "ready".
// Linhas inválidas viram contagem na resposta, nunca erro HTTP.
func (uc *DraftUseCase) Validate(ctx context.Context, id, companyID string) (*dto.ValidateDraftResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if err := domfiscal.Guard(doc, domfiscal.ActionValidate); err != nil {
		return nil, err
	}

	report := domfiscal.Validate(doc)
	if report.OK() {
		if err := domfiscal.MarkReady(doc); err != nil {
			return nil, err
		}
		doc.UpdatedAt = time.Now().UTC()
		if err := uc.drafts.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("persistindo status: %w", err)
		}
	}

	return &dto.ValidateDraftResponse{
		OK:            report.OK(),
		Status:        doc.Status,
		MissingFields: report.MissingFields,
		InvalidRows:   report.InvalidLines,
		LineCount:     report.LineCount,
	}, nil
}

// GetByID carrega o rascunho da empresa.
func (uc *DraftUseCase) GetByID(ctx context.Context, id, companyID string) (*dto.DraftResponse, error) {
	doc, err := uc.getOwned(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return ToDraftResponse(doc), nil
}

// GetByCode retoma um rascunho pelo código interno; "não encontrado" é um
// desfecho normal que o handler traduz em 404 sem log de erro.
func (uc *DraftUseCase) GetByCode(ctx context.Context, companyID string, code int64) (*dto.DraftResponse, error) {
	doc, err := uc.drafts.GetByCode(ctx, companyID, code)
	if err != nil {
		return nil, err
	}
	return ToDraftResponse(doc), nil
}

// GetByNumberAndSerie retoma pelo par número+série.
func (uc *DraftUseCase) GetByNumberAndSerie(ctx context.Context, companyID, number, serieID string) (*dto.DraftResponse, error) {
	doc, err := uc.drafts.GetByNumberAndSerie(ctx, companyID, nfe.DigitsOnly(number), serieID)
	if err != nil {
		return nil, err
	}
	return ToDraftResponse(doc), nil
}

// GetByAccessKey retoma pela chave de acesso de 44 dígitos.
func (uc *DraftUseCase) GetByAccessKey(ctx context.Context, companyID, accessKey string) (*dto.DraftResponse, error) {
	key := nfe.DigitsOnly(accessKey)
	if !nfe.ValidAccessKey(key) {
		return nil, fmt.Errorf("%w: chave de acesso malformada", domain.ErrInvalidInput)
	}
	doc, err := uc.drafts.GetByAccessKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return ToDraftResponse(doc), nil
}

// List lista rascunhos da empresa com filtros opcionais.
func (uc *DraftUseCase) List(ctx context.Context, filter repository.DraftFilter) ([]*dto.DraftResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	docs, err := uc.drafts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listando rascunhos: %w", err)
	}
	out := make([]*dto.DraftResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToDraftResponse(doc))
	}
	return out, nil
}

// applyRequest aplica o payload ao agregado e recalcula cada linha.
func (uc *DraftUseCase) applyRequest(ctx context.Context, doc *entity.FiscalDocument, req dto.SaveDraftRequest) {
	doc.Header = entity.DocumentHeader{
		Code:      fmt.Sprintf("%06d", doc.Code),
		Number:    nfe.DigitsOnly(req.Number),
		Serie:     strings.TrimSpace(req.SerieID),
		Type:      strings.TrimSpace(req.Type),
		Model:     nfe.ModeloNFe,
		IssueDate: strings.TrimSpace(req.IssueDate),
		EntryDate: strings.TrimSpace(req.EntryDate),
		NatOp:     strings.TrimSpace(req.NatOp),
	}
	doc.PartyID = strings.TrimSpace(req.PartyID)
	doc.Freight = req.Freight
	doc.Insurance = req.Insurance
	doc.OtherExpenses = req.OtherExpenses
	doc.Payments = req.Payments

	if doc.PartyID != "" && uc.parties != nil {
		if party, err := uc.parties.GetByID(ctx, doc.PartyID); err == nil && party != nil {
			doc.PartyName = party.Name
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Err(err).Str("party_id", doc.PartyID).Msg("falha ao resolver destinatário")
		}
	}

	lines := make([]*entity.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}
		line := toEntityLine(item, id)
		line.DocumentID = doc.ID
		domfiscal.Recalculate(line, lastEditedField(item.LastEdited))
		lines = append(lines, line)
	}
	doc.Lines = lines
}

// getOwned carrega o documento e confere a posse pela empresa do token.
func (uc *DraftUseCase) getOwned(ctx context.Context, id, companyID string) (*entity.FiscalDocument, error) {
	doc, err := uc.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || (companyID != "" && doc.CompanyID != companyID) {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
