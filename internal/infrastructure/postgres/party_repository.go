package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

// PartyRepo leitura do destinatário/fornecedor.
type PartyRepo struct {
	q Querier
}

// NewPartyRepository constrói o adaptador. Aceita pool ou tx (Querier).
func NewPartyRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q}
}

const partyColumns = `
	id, company_id, name, document, COALESCE(state_registration, ''),
	COALESCE(email, ''), uf, ibge_city_code, city, district, street,
	address_number, zip_code, created_at, updated_at`

// GetByID busca o destinatário pelo ID.
func (r *PartyRepo) GetByID(ctx context.Context, id string) (*entity.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByDocument busca pelo CPF/CNPJ dentro da empresa (só dígitos).
func (r *PartyRepo) GetByDocument(ctx context.Context, companyID, document string) (*entity.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE company_id = $1 AND document = $2`
	return r.getOne(ctx, query, companyID, nfe.DigitsOnly(document))
}

func (r *PartyRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Party, error) {
	var p entity.Party
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Document, &p.StateRegistration,
		&p.Email, &p.UF, &p.IBGECityCode, &p.City, &p.District, &p.Street,
		&p.AddressNumber, &p.ZipCode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get destinatário: %w", err)
	}
	return &p, nil
}
