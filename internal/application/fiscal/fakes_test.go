package fiscal_test

import (
	"context"
	"sync"
	"time"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
	"github.com/eobicho/fiscal-api/pkg/logger"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// ── repositório de rascunhos em memória ───────────────────────────────────────

type fakeDraftRepo struct {
	mu    sync.Mutex
	docs  map[string]*entity.FiscalDocument
	codes int64
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{docs: map[string]*entity.FiscalDocument{}}
}

func (r *fakeDraftRepo) Create(_ context.Context, doc *entity.FiscalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) Update(_ context.Context, doc *entity.FiscalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDraftRepo) GetByCode(_ context.Context, companyID string, code int64) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.CompanyID == companyID && doc.Code == code {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDraftRepo) GetByNumberAndSerie(_ context.Context, companyID, number, serieID string) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.CompanyID == companyID && doc.Header.Number == number && doc.Header.Serie == serieID {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDraftRepo) GetByAccessKey(_ context.Context, accessKey string) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.XML.AccessKey == accessKey {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDraftRepo) List(_ context.Context, filter repository.DraftFilter) ([]*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FiscalDocument
	for _, doc := range r.docs {
		if filter.CompanyID != "" && doc.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDraftRepo) NextCode(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes++
	return r.codes, nil
}

// ── séries ────────────────────────────────────────────────────────────────────

type fakeSerieRepo struct {
	mu       sync.Mutex
	series   map[string]*entity.FiscalSerie
	counters map[string]int64 // serieID+companyID
}

func newFakeSerieRepo() *fakeSerieRepo {
	return &fakeSerieRepo{
		series: map[string]*entity.FiscalSerie{
			"serie-1": {ID: "serie-1", Serie: "1", Ambiente: "homologacao", Model: "55"},
		},
		counters: map[string]int64{},
	}
}

func (r *fakeSerieRepo) GetByID(_ context.Context, id string) (*entity.FiscalSerie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (r *fakeSerieRepo) ListByAmbiente(_ context.Context, ambiente string) ([]*entity.FiscalSerie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FiscalSerie
	for _, s := range r.series {
		if s.Ambiente == ambiente {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSerieRepo) CurrentNumber(_ context.Context, serieID, companyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[serieID+"/"+companyID], nil
}

func (r *fakeSerieRepo) Advance(_ context.Context, serieID, companyID string, number int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := serieID + "/" + companyID
	if number > r.counters[key] {
		r.counters[key] = number
	}
	return nil
}

// ── emitente e destinatário ───────────────────────────────────────────────────

type fakeCompanyRepo struct{ company *entity.Company }

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{company: &entity.Company{
		ID: "emp-1", Name: "AGROPET LTDA", CNPJ: "12345678000195",
		CRT: "1", UF: "SP", IBGECityCode: "3550308",
	}}
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	if r.company != nil && r.company.ID == id {
		return r.company, nil
	}
	return nil, domain.ErrNotFound
}

type fakePartyRepo struct{ party *entity.Party }

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{party: &entity.Party{
		ID: "cli-1", CompanyID: "emp-1", Name: "JOSE DA SILVA",
		Document: "12345678909", UF: "SP",
	}}
}

func (r *fakePartyRepo) GetByID(_ context.Context, id string) (*entity.Party, error) {
	if r.party != nil && r.party.ID == id {
		return r.party, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakePartyRepo) GetByDocument(_ context.Context, _, document string) (*entity.Party, error) {
	if r.party != nil && r.party.Document == document {
		return r.party, nil
	}
	return nil, domain.ErrNotFound
}

// ── portas do fluxo de emissão ────────────────────────────────────────────────

type fakeBuilder struct{ builds int }

func (b *fakeBuilder) Build(in appfiscal.BuildInput) ([]byte, string, error) {
	b.builds++
	key, err := nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode:   nfe.UFCodes[in.Company.UF],
		CNPJ:     in.Company.CNPJ,
		Serie:    in.Serie.Serie,
		Number:   in.Doc.Header.Number,
		Emission: time.Now(),
		CNF:      "12345678",
	})
	if err != nil {
		return nil, "", err
	}
	return []byte("<NFe><infNFe Id=\"NFe" + key + "\"/></NFe>"), key, nil
}

type fakeSigner struct{ signs int }

func (s *fakeSigner) Sign(xml []byte) ([]byte, error) {
	s.signs++
	return append(xml, []byte("<Signature/>")...), nil
}

type fakeSefaz struct {
	authorizeResult entity.SefazResult
	authorizeErr    error
	queryResult     entity.SefazResult
	queryErr        error
	eventResult     entity.SefazResult
	eventErr        error

	authorizeCalls int
	eventRequests  []appfiscal.EventRequest
}

func (c *fakeSefaz) Authorize(_ context.Context, _ []byte) (entity.SefazResult, error) {
	c.authorizeCalls++
	return c.authorizeResult, c.authorizeErr
}

func (c *fakeSefaz) QueryStatus(_ context.Context, _ string) (entity.SefazResult, error) {
	return c.queryResult, c.queryErr
}

func (c *fakeSefaz) RegisterEvent(_ context.Context, req appfiscal.EventRequest) (entity.SefazResult, error) {
	c.eventRequests = append(c.eventRequests, req)
	return c.eventResult, c.eventErr
}
