package repository

import (
	"context"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
)

// SerieRepository porta de persistência das séries fiscais e dos contadores
// de numeração por empresa+série.
type SerieRepository interface {
	GetByID(ctx context.Context, id string) (*entity.FiscalSerie, error)
	ListByAmbiente(ctx context.Context, ambiente string) ([]*entity.FiscalSerie, error)
	// CurrentNumber último número consumido da série para a empresa (0 se nunca emitiu).
	CurrentNumber(ctx context.Context, serieID, companyID string) (int64, error)
	// Advance grava number como último número consumido, apenas se maior que o
	// atual (contador monotônico; chamadas concorrentes nunca o rebaixam).
	Advance(ctx context.Context, serieID, companyID string, number int64) error
}
