package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
)

var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo persistência do documento fiscal como agregado: cabeçalho e estado
// de transmissão em colunas, linhas/totais/eventos/trilha em JSONB (o contrato
// do gateway é last-write-wins sobre o agregado inteiro, não há edição parcial
// de linha no banco).
type DraftRepo struct {
	q Querier
}

// NewDraftRepository constrói o adaptador. Aceita pool ou tx (Querier).
func NewDraftRepository(q Querier) *DraftRepo {
	return &DraftRepo{q: q}
}

const draftColumns = `
	id, company_id, code, status,
	doc_code, number, serie_id, doc_type, model, issue_date, entry_date, nat_op,
	party_id, party_name,
	freight, insurance, other_expenses,
	lines, totals,
	access_key, xml_ambient, xml_content, xml_generated_at, xml_signed_at,
	auth_protocol, auth_processed_at,
	sefaz_status, sefaz_message, sefaz_protocol, sefaz_processed_at, sefaz_queried_at,
	events, logs,
	created_at, updated_at, payments`

// Create insere o agregado completo.
func (r *DraftRepo) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	args, err := draftArgs(doc)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO fiscal_documents (` + draftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
		        $29, $30, $31, $32, $33, $34, $35, $36)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("documento já existe: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert documento fiscal: %w", err)
	}
	return nil
}

// Update sobrescreve o agregado inteiro (last-write-wins).
func (r *DraftRepo) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	doc.UpdatedAt = time.Now().UTC()

	args, err := draftArgs(doc)
	if err != nil {
		return err
	}
	query := `
		UPDATE fiscal_documents SET
			company_id = $2, code = $3, status = $4,
			doc_code = $5, number = $6, serie_id = $7, doc_type = $8, model = $9,
			issue_date = $10, entry_date = $11, nat_op = $12,
			party_id = $13, party_name = $14,
			freight = $15, insurance = $16, other_expenses = $17,
			lines = $18, totals = $19,
			access_key = $20, xml_ambient = $21, xml_content = $22,
			xml_generated_at = $23, xml_signed_at = $24,
			auth_protocol = $25, auth_processed_at = $26,
			sefaz_status = $27, sefaz_message = $28, sefaz_protocol = $29,
			sefaz_processed_at = $30, sefaz_queried_at = $31,
			events = $32, logs = $33,
			created_at = $34, updated_at = $35, payments = $36
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update documento fiscal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID busca o agregado pelo ID.
func (r *DraftRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + draftColumns + ` FROM fiscal_documents WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByCode busca pelo código sequencial interno da empresa.
func (r *DraftRepo) GetByCode(ctx context.Context, companyID string, code int64) (*entity.FiscalDocument, error) {
	query := `SELECT ` + draftColumns + ` FROM fiscal_documents WHERE company_id = $1 AND code = $2`
	return r.getOne(ctx, query, companyID, code)
}

// GetByNumberAndSerie busca pelo par número+série dentro da empresa.
func (r *DraftRepo) GetByNumberAndSerie(ctx context.Context, companyID, number, serieID string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + draftColumns + ` FROM fiscal_documents
		WHERE company_id = $1 AND number = $2 AND serie_id = $3`
	return r.getOne(ctx, query, companyID, number, serieID)
}

// GetByAccessKey busca pela chave de acesso de 44 dígitos.
func (r *DraftRepo) GetByAccessKey(ctx context.Context, accessKey string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + draftColumns + ` FROM fiscal_documents WHERE access_key = $1`
	return r.getOne(ctx, query, accessKey)
}

// List devolve os documentos da empresa, mais recentes primeiro.
func (r *DraftRepo) List(ctx context.Context, filter repository.DraftFilter) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + draftColumns + ` FROM fiscal_documents WHERE company_id = $1`
	args := []any{filter.CompanyID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.AccessKey != "" {
		args = append(args, filter.AccessKey)
		query += ` AND access_key = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY code DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar documentos fiscais: %w", err)
	}
	defer rows.Close()

	var list []*entity.FiscalDocument
	for rows.Next() {
		doc, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// NextCode devolve o próximo código sequencial interno da empresa.
func (r *DraftRepo) NextCode(ctx context.Context, companyID string) (int64, error) {
	var next int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(code), 0) + 1 FROM fiscal_documents WHERE company_id = $1`,
		companyID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("próximo código: %w", err)
	}
	return next, nil
}

func (r *DraftRepo) getOne(ctx context.Context, query string, args ...any) (*entity.FiscalDocument, error) {
	doc, err := scanDraft(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// draftArgs serializa o agregado na ordem de draftColumns.
func draftArgs(doc *entity.FiscalDocument) ([]any, error) {
	lines, err := json.Marshal(doc.Lines)
	if err != nil {
		return nil, fmt.Errorf("serializar linhas: %w", err)
	}
	totals, err := json.Marshal(doc.Totals)
	if err != nil {
		return nil, fmt.Errorf("serializar totais: %w", err)
	}
	events, err := json.Marshal(doc.Events)
	if err != nil {
		return nil, fmt.Errorf("serializar eventos: %w", err)
	}
	logs, err := json.Marshal(doc.Logs)
	if err != nil {
		return nil, fmt.Errorf("serializar trilha: %w", err)
	}

	var authProtocol, authProcessedAt *string
	if doc.Authorization != nil {
		authProtocol = nullIfEmpty(doc.Authorization.Protocol)
		authProcessedAt = nullIfEmpty(doc.Authorization.ProcessedAt)
	}

	var payments []byte
	if len(doc.Payments) > 0 {
		payments = doc.Payments
	}

	return []any{
		doc.ID, doc.CompanyID, doc.Code, doc.Status,
		doc.Header.Code, doc.Header.Number, doc.Header.Serie, doc.Header.Type,
		doc.Header.Model, doc.Header.IssueDate, nullIfEmpty(doc.Header.EntryDate), doc.Header.NatOp,
		doc.PartyID, doc.PartyName,
		doc.Freight, doc.Insurance, doc.OtherExpenses,
		lines, totals,
		nullIfEmpty(doc.XML.AccessKey), nullIfEmpty(doc.XML.Ambient), nullIfEmpty(doc.XML.Content),
		nullIfZeroTime(doc.XML.GeneratedAt), nullIfZeroTime(doc.XML.SignedAt),
		authProtocol, authProcessedAt,
		nullIfEmpty(doc.LastSefaz.Status), nullIfEmpty(doc.LastSefaz.Message), nullIfEmpty(doc.LastSefaz.Protocol),
		nullIfEmpty(doc.LastSefaz.ProcessedAt), nullIfEmpty(doc.LastSefaz.QueriedAt),
		events, logs,
		doc.CreatedAt, doc.UpdatedAt, payments,
	}, nil
}

// scanDraft reconstrói o agregado a partir de uma linha na ordem de draftColumns.
func scanDraft(row pgx.Row) (*entity.FiscalDocument, error) {
	var (
		doc                              entity.FiscalDocument
		entryDate                        *string
		lines, totals, events, logs      []byte
		accessKey, ambient, xmlContent   *string
		generatedAt, signedAt            *time.Time
		authProtocol, authProcessedAt    *string
		sefazStatus, sefazMsg, sefazProt *string
		sefazProcessedAt, sefazQueriedAt *string
		payments                         []byte
	)
	err := row.Scan(
		&doc.ID, &doc.CompanyID, &doc.Code, &doc.Status,
		&doc.Header.Code, &doc.Header.Number, &doc.Header.Serie, &doc.Header.Type,
		&doc.Header.Model, &doc.Header.IssueDate, &entryDate, &doc.Header.NatOp,
		&doc.PartyID, &doc.PartyName,
		&doc.Freight, &doc.Insurance, &doc.OtherExpenses,
		&lines, &totals,
		&accessKey, &ambient, &xmlContent,
		&generatedAt, &signedAt,
		&authProtocol, &authProcessedAt,
		&sefazStatus, &sefazMsg, &sefazProt,
		&sefazProcessedAt, &sefazQueriedAt,
		&events, &logs,
		&doc.CreatedAt, &doc.UpdatedAt, &payments,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan documento fiscal: %w", err)
	}

	doc.Header.EntryDate = derefStr(entryDate)
	doc.XML = entity.XMLSnapshot{
		AccessKey:   derefStr(accessKey),
		Ambient:     derefStr(ambient),
		Content:     derefStr(xmlContent),
		GeneratedAt: derefTime(generatedAt),
		SignedAt:    derefTime(signedAt),
	}
	if authProtocol != nil {
		doc.Authorization = &entity.Authorization{
			Protocol:    derefStr(authProtocol),
			ProcessedAt: derefStr(authProcessedAt),
		}
	}
	doc.LastSefaz = entity.SefazResult{
		Status:      derefStr(sefazStatus),
		Message:     derefStr(sefazMsg),
		Protocol:    derefStr(sefazProt),
		ProcessedAt: derefStr(sefazProcessedAt),
		QueriedAt:   derefStr(sefazQueriedAt),
	}

	if err := json.Unmarshal(lines, &doc.Lines); err != nil {
		return nil, fmt.Errorf("desserializar linhas: %w", err)
	}
	if err := json.Unmarshal(totals, &doc.Totals); err != nil {
		return nil, fmt.Errorf("desserializar totais: %w", err)
	}
	if err := json.Unmarshal(events, &doc.Events); err != nil {
		return nil, fmt.Errorf("desserializar eventos: %w", err)
	}
	if err := json.Unmarshal(logs, &doc.Logs); err != nil {
		return nil, fmt.Errorf("desserializar trilha: %w", err)
	}
	if len(payments) > 0 {
		doc.Payments = json.RawMessage(payments)
	}
	return &doc, nil
}
