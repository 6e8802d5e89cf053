package repository

import (
	"context"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// DraftFilter filtros de listagem de rascunhos fiscais.
type DraftFilter struct {
	CompanyID string
	Status    string
	AccessKey string
	Limit     int
	Offset    int
}

// DraftRepository porta de persistência do documento fiscal (agregado completo:
// cabeçalho, linhas, totais, XML, eventos e trilha de auditoria).
type DraftRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	// Update sobrescreve o agregado inteiro (last-write-wins).
	Update(ctx context.Context, doc *entity.FiscalDocument) error
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	GetByCode(ctx context.Context, companyID string, code int64) (*entity.FiscalDocument, error)
	GetByNumberAndSerie(ctx context.Context, companyID, number, serieID string) (*entity.FiscalDocument, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*entity.FiscalDocument, error)
	List(ctx context.Context, filter DraftFilter) ([]*entity.FiscalDocument, error)
	// NextCode devolve o próximo código sequencial interno da empresa.
	NextCode(ctx context.Context, companyID string) (int64, error)
}
