package repository

import (
	"context"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// CompanyRepository porta de leitura do emitente.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
