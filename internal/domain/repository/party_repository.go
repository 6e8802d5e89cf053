package repository

import (
	"context"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// PartyRepository porta de leitura do destinatário/fornecedor.
type PartyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Party, error)
	GetByDocument(ctx context.Context, companyID, document string) (*entity.Party, error)
}
