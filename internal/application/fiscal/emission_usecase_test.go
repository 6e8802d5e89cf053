package fiscal_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain"
	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/pkg/nfe"
)

type emissionFixture struct {
	drafts   *fakeDraftRepo
	series   *fakeSerieRepo
	sefaz    *fakeSefaz
	draftUC  *appfiscal.DraftUseCase
	emission *appfiscal.EmissionUseCase
}

func newEmissionFixture(t *testing.T) *emissionFixture {
	t.Helper()
	drafts := newFakeDraftRepo()
	series := newFakeSerieRepo()
	companies := newFakeCompanyRepo()
	parties := newFakePartyRepo()
	sefaz := &fakeSefaz{}
	log := testLogger()

	return &emissionFixture{
		drafts:  drafts,
		series:  series,
		sefaz:   sefaz,
		draftUC: appfiscal.NewDraftUseCase(drafts, series, parties, log),
		emission: appfiscal.NewEmissionUseCase(
			drafts, series, companies, parties,
			&fakeBuilder{}, &fakeSigner{}, sefaz, log,
		),
	}
}

// readyDraft cria um rascunho válido e o promove para "ready".
func (f *emissionFixture) readyDraft(t *testing.T) string {
	t.Helper()
	created, err := f.draftUC.Create(context.Background(), "emp-1", buildSaveRequest())
	require.NoError(t, err)
	res, err := f.draftUC.Validate(context.Background(), created.ID, "emp-1")
	require.NoError(t, err)
	require.True(t, res.OK)
	return created.ID
}

// signedDraft rascunho ready com XML gerado e assinado.
func (f *emissionFixture) signedDraft(t *testing.T) string {
	t.Helper()
	id := f.readyDraft(t)
	_, err := f.emission.GenerateXML(context.Background(), id, "emp-1")
	require.NoError(t, err)
	_, err = f.emission.SignXML(context.Background(), id, "emp-1")
	require.NoError(t, err)
	return id
}

func TestGenerateXML_GravaSnapshotELog(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)

	res, err := f.emission.GenerateXML(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.Len(t, res.AccessKey, 44)
	assert.True(t, nfe.ValidAccessKey(res.AccessKey), "chave de acesso com DV válido")
	assert.False(t, res.Signed)

	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Equal(t, nfe.AmbienteHomologacao, doc.XML.Ambient)
	require.NotEmpty(t, doc.Logs)
	assert.Contains(t, doc.Logs[len(doc.Logs)-1], "XML Gerado")
}

func TestGenerateXML_BloqueadoEmDraft(t *testing.T) {
	f := newEmissionFixture(t)
	created, err := f.draftUC.Create(context.Background(), "emp-1", buildSaveRequest())
	require.NoError(t, err)

	_, err = f.emission.GenerateXML(context.Background(), created.ID, "emp-1")

	assert.True(t, errors.Is(err, domain.ErrStateGuard))
}

func TestSignXML_ExigeXMLGerado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)

	_, err := f.emission.SignXML(context.Background(), id, "emp-1")

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSignXML_MarcaAssinado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)
	_, err := f.emission.GenerateXML(context.Background(), id, "emp-1")
	require.NoError(t, err)

	res, err := f.emission.SignXML(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.True(t, res.Signed)
	assert.Contains(t, res.Content, "<Signature/>")

	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Contains(t, doc.Logs[len(doc.Logs)-1], "XML Assinado")
}

func TestGetXML_GeraNaPrimeiraConsulta(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)

	res, err := f.emission.GetXML(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Content)

	// segunda consulta devolve o mesmo XML sem regenerar
	again, err := f.emission.GetXML(context.Background(), id, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, res.AccessKey, again.AccessKey)
}

func TestTransmit_ExigeAssinatura(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)
	_, err := f.emission.GenerateXML(context.Background(), id, "emp-1")
	require.NoError(t, err)

	_, err = f.emission.Transmit(context.Background(), id, "emp-1")

	assert.True(t, errors.Is(err, domain.ErrNotSigned))
}

func TestTransmit_AutorizadoAvancaSerie(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{
		Status:      nfe.StatusAutorizado,
		Message:     "Autorizado o uso da NF-e",
		Protocol:    "135260000000001",
		ProcessedAt: "2026-08-31T10:00:00-03:00",
	}

	res, err := f.emission.Transmit(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, res.DraftStatus)
	assert.Equal(t, "135260000000001", res.Protocol)

	current, _ := f.series.CurrentNumber(context.Background(), "serie-1", "emp-1")
	assert.Equal(t, int64(1234), current, "número consumido na série")

	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Contains(t, doc.Logs[len(doc.Logs)-1], "XML Transmitido")
	require.NotEmpty(t, doc.Events)
	assert.Equal(t, nfe.EventNameAutorizacao, doc.Events[0].Event)
}

// TestTransmit_RejeicaoTambemAvancaSerie a numeração é consumida pela SEFAZ
// mesmo em rejeição; o documento fica corrigível em "rejected".
func TestTransmit_RejeicaoTambemAvancaSerie(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{Status: "539", Message: "Duplicidade de NF-e"}

	res, err := f.emission.Transmit(context.Background(), id, "emp-1")

	require.NoError(t, err, "rejeição de negócio não é erro de transporte")
	assert.Equal(t, entity.StatusRejected, res.DraftStatus)

	current, _ := f.series.CurrentNumber(context.Background(), "serie-1", "emp-1")
	assert.Equal(t, int64(1234), current)
}

func TestTransmit_FalhaDeTransporteNaoMutaEstado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeErr = errors.New("dial tcp: connection refused")

	_, err := f.emission.Transmit(context.Background(), id, "emp-1")

	require.Error(t, err)
	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusReady, doc.Status, "falha de rede deixa o estado intacto")

	current, _ := f.series.CurrentNumber(context.Background(), "serie-1", "emp-1")
	assert.Zero(t, current, "série não avança sem transmissão concluída")
}

func TestQueryStatus_ExigeChaveDeAcesso(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{Status: "539"}
	_, err := f.emission.Transmit(context.Background(), id, "emp-1")
	require.NoError(t, err)

	// some com a chave para simular documento antigo
	doc, _ := f.drafts.GetByID(context.Background(), id)
	doc.XML.AccessKey = ""
	require.NoError(t, f.drafts.Update(context.Background(), doc))

	_, err = f.emission.QueryStatus(context.Background(), id, "emp-1")
	assert.True(t, errors.Is(err, domain.ErrNoAccessKey))
}

func TestQueryStatus_PromoveRejeitadoAutorizado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{Status: "539"}
	_, err := f.emission.Transmit(context.Background(), id, "emp-1")
	require.NoError(t, err)

	f.sefaz.queryResult = entity.SefazResult{
		Status:   nfe.StatusAutorizado,
		Protocol: "135260000000009",
	}
	res, err := f.emission.QueryStatus(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, res.DraftStatus)
}

func TestQueryStatus_DetectaCancelamentoExterno(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{Status: nfe.StatusAutorizado, Protocol: "135260000000001"}
	_, err := f.emission.Transmit(context.Background(), id, "emp-1")
	require.NoError(t, err)

	f.sefaz.queryResult = entity.SefazResult{Status: nfe.StatusCancelado, Protocol: "135260000000002"}
	res, err := f.emission.QueryStatus(context.Background(), id, "emp-1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusCanceled, res.DraftStatus)

	doc, _ := f.drafts.GetByID(context.Background(), id)
	require.True(t, doc.HasCancellationEvent())
	for _, ev := range doc.Events {
		if ev.Event == nfe.EventNameCancelamento {
			assert.Equal(t, "Cancelamento identificado via consulta SEFAZ.", ev.Justification)
		}
	}
}

// ── registro de eventos ───────────────────────────────────────────────────────

func (f *emissionFixture) authorizedDraft(t *testing.T) string {
	t.Helper()
	id := f.signedDraft(t)
	f.sefaz.authorizeResult = entity.SefazResult{
		Status:   nfe.StatusAutorizado,
		Protocol: "135260000000001",
	}
	_, err := f.emission.Transmit(context.Background(), id, "emp-1")
	require.NoError(t, err)
	return id
}

func TestRegisterEvent_CancelamentoHomologado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.authorizedDraft(t)
	f.sefaz.eventResult = entity.SefazResult{
		Status:   nfe.StatusEventoRegistrado,
		Protocol: "135260000000077",
	}

	res, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind:          "cancelamento",
		Justification: "Erro de digitação nos itens da nota",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusCanceled, res.DraftStatus)

	require.Len(t, f.sefaz.eventRequests, 1)
	sent := f.sefaz.eventRequests[0]
	assert.Equal(t, nfe.EventoCancelamento, sent.EventType)
	assert.Equal(t, "135260000000001", sent.Protocol, "nProt da autorização acompanha o evento")
	assert.Equal(t, 1, sent.Sequence)
}

func TestRegisterEvent_JustificativaCurtaFalha(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.authorizedDraft(t)

	_, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind:          "cancelamento",
		Justification: "curta demais",
	})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Equal(t, entity.StatusAuthorized, doc.Status)
}

func TestRegisterEvent_JustificativaLongaDemaisFalha(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.authorizedDraft(t)

	_, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind:          "cancelamento",
		Justification: strings.Repeat("a", 256),
	})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRegisterEvent_SemAutorizacaoFalha(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.readyDraft(t)

	_, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind:          "cancelamento",
		Justification: "Erro de digitação nos itens da nota",
	})

	assert.True(t, errors.Is(err, domain.ErrStateGuard))
}

func TestRegisterEvent_CartaCorrecaoIncrementaSequencia(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.authorizedDraft(t)
	f.sefaz.eventResult = entity.SefazResult{Status: nfe.StatusEventoRegistrado, Protocol: "135260000000088"}

	correcao := "Corrigir a natureza da operação para venda"
	_, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind: "carta_correcao", Justification: correcao,
	})
	require.NoError(t, err)
	_, err = f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind: "Carta de Correção", Justification: correcao,
	})
	require.NoError(t, err)

	require.Len(t, f.sefaz.eventRequests, 2)
	assert.Equal(t, 1, f.sefaz.eventRequests[0].Sequence)
	assert.Equal(t, 2, f.sefaz.eventRequests[1].Sequence)

	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.Equal(t, 2, doc.CorrectionLetterCount())
	assert.Equal(t, entity.StatusAuthorized, doc.Status, "carta de correção não muda o status")
}

func TestRegisterEvent_RejeitadoPelaSefazNaoMutaEstado(t *testing.T) {
	f := newEmissionFixture(t)
	id := f.authorizedDraft(t)
	f.sefaz.eventResult = entity.SefazResult{Status: "573", Message: "Duplicidade de evento"}

	res, err := f.emission.RegisterEvent(context.Background(), id, "emp-1", dto.RegisterEventRequest{
		Kind:          "cancelamento",
		Justification: "Erro de digitação nos itens da nota",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, res.DraftStatus, "evento não homologado não cancela")
	doc, _ := f.drafts.GetByID(context.Background(), id)
	assert.False(t, doc.HasCancellationEvent())
}
