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

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo leitura do emitente.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository constrói o adaptador. Aceita pool ou tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID busca o emitente pelo ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, COALESCE(trade_name, ''), cnpj, COALESCE(ie, ''), crt,
		       uf, ibge_city_code, city, district, street, address_number,
		       zip_code, COALESCE(phone, ''), created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TradeName, &c.CNPJ, &c.IE, &c.CRT,
		&c.UF, &c.IBGECityCode, &c.City, &c.District, &c.Street, &c.AddressNumber,
		&c.ZipCode, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get empresa: %w", err)
	}
	return &c, nil
}
