package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eobicho/fiscal-api/internal/domain/entity"
	"github.com/eobicho/fiscal-api/internal/domain/fiscal"
)

func TestValidate_DocumentoCompletoOK(t *testing.T) {
	doc := buildDocument()

	r := fiscal.Validate(doc)

	assert.True(t, r.OK())
	assert.Empty(t, r.MissingFields)
	assert.Zero(t, r.InvalidLines)
	assert.Equal(t, 2, r.LineCount)
}

func TestValidate_CamposObrigatoriosDoCabecalho(t *testing.T) {
	doc := buildDocument()
	doc.Header.Number = ""
	doc.Header.NatOp = "  "
	doc.PartyID = ""

	r := fiscal.Validate(doc)

	assert.False(t, r.OK())
	assert.Contains(t, r.MissingFields, "numero")
	assert.Contains(t, r.MissingFields, "naturezaOperacao")
	assert.Contains(t, r.MissingFields, "destinatario")
}

func TestValidate_SemLinhasBloqueia(t *testing.T) {
	doc := buildDocument()
	doc.Lines = nil

	r := fiscal.Validate(doc)

	assert.False(t, r.OK())
	assert.Contains(t, r.MissingFields, "itens")
}

// TestValidate_LinhasInvalidasSaoContadas linhas com problema viram contagem
// devolvida ao chamador, não uma lista dura de falhas.
func TestValidate_LinhasInvalidasSaoContadas(t *testing.T) {
	doc := buildDocument()
	doc.Lines[0].Description = ""
	doc.Lines[1].Qty = decimal.Zero

	r := fiscal.Validate(doc)

	assert.False(t, r.OK())
	assert.Equal(t, 2, r.InvalidLines)
	assert.Empty(t, r.MissingFields, "linha inválida não é campo de cabeçalho faltante")
}

func TestValidate_PrecoUnitarioNegativoInvalida(t *testing.T) {
	doc := buildDocument()
	doc.Lines[0].UnitPrice = decimal.RequireFromString("-1.00")

	r := fiscal.Validate(doc)

	assert.Equal(t, 1, r.InvalidLines)
}

func TestMarkReady_AposValidacao(t *testing.T) {
	doc := buildDocument()
	require.True(t, fiscal.Validate(doc).OK())

	require.NoError(t, fiscal.MarkReady(doc))
	assert.Equal(t, entity.StatusReady, doc.Status)

	// revalidar em ready continua permitido (correção antes da emissão)
	require.NoError(t, fiscal.MarkReady(doc))
	assert.Equal(t, entity.StatusReady, doc.Status)
}

func TestMarkReady_BloqueadoEmAutorizado(t *testing.T) {
	doc := buildDocument()
	doc.Status = entity.StatusAuthorized

	err := fiscal.MarkReady(doc)

	require.Error(t, err)
	assert.Equal(t, entity.StatusAuthorized, doc.Status)
}
