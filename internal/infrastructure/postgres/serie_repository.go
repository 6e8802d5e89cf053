package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
)

var _ repository.SerieRepository = (*SerieRepo)(nil)

// SerieRepo persistência das séries fiscais e dos contadores de numeração
// por empresa+série.
type SerieRepo struct {
	q Querier
}

// NewSerieRepository constrói o adaptador. Aceita pool ou tx (Querier).
func NewSerieRepository(q Querier) *SerieRepo {
	return &SerieRepo{q: q}
}

// GetByID busca uma série fiscal pelo ID.
func (r *SerieRepo) GetByID(ctx context.Context, id string) (*entity.FiscalSerie, error) {
	query := `
		SELECT id, serie, ambiente, model, created_at, updated_at
		FROM fiscal_series WHERE id = $1`
	var s entity.FiscalSerie
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Serie, &s.Ambiente, &s.Model, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get série: %w", err)
	}
	return &s, nil
}

// ListByAmbiente lista as séries de um ambiente (producao | homologacao).
func (r *SerieRepo) ListByAmbiente(ctx context.Context, ambiente string) ([]*entity.FiscalSerie, error) {
	query := `
		SELECT id, serie, ambiente, model, created_at, updated_at
		FROM fiscal_series WHERE ambiente = $1 ORDER BY serie`
	rows, err := r.q.Query(ctx, query, ambiente)
	if err != nil {
		return nil, fmt.Errorf("listar séries: %w", err)
	}
	defer rows.Close()

	var list []*entity.FiscalSerie
	for rows.Next() {
		var s entity.FiscalSerie
		if err := rows.Scan(&s.ID, &s.Serie, &s.Ambiente, &s.Model, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan série: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// CurrentNumber último número consumido da série para a empresa (0 se nunca emitiu).
func (r *SerieRepo) CurrentNumber(ctx context.Context, serieID, companyID string) (int64, error) {
	var last int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(last_number), 0)
		FROM serie_counters WHERE serie_id = $1 AND company_id = $2`,
		serieID, companyID,
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("número atual da série: %w", err)
	}
	return last, nil
}

// Advance grava number como último número consumido. O GREATEST no upsert
// garante o contador monotônico: chamadas concorrentes nunca o rebaixam.
func (r *SerieRepo) Advance(ctx context.Context, serieID, companyID string, number int64) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO serie_counters (serie_id, company_id, last_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (serie_id, company_id)
		DO UPDATE SET last_number = GREATEST(serie_counters.last_number, EXCLUDED.last_number)`,
		serieID, companyID, number,
	)
	if err != nil {
		return fmt.Errorf("avançar contador da série: %w", err)
	}
	return nil
}
