package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eobicho/fiscal-api/pkg/nfe"
)

func TestNormalizeEventName_VariacoesDeEntrada(t *testing.T) {
	cases := map[string]string{
		"cancelamento":             nfe.EventNameCancelamento,
		"CANCELAMENTO":             nfe.EventNameCancelamento,
		"  Cancelamento  ":         nfe.EventNameCancelamento,
		"carta_correcao":           nfe.EventNameCartaCorrecao,
		"Carta de Correção":        nfe.EventNameCartaCorrecao,
		"carta correcao":           nfe.EventNameCartaCorrecao,
		"autorizacao":              nfe.EventNameAutorizacao,
		"Autorizado o Uso da NF-e": nfe.EventNameAutorizacao,
		"devolucao":                "",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, nfe.NormalizeEventName(in), "entrada %q", in)
	}
}

func TestEventTypeCode(t *testing.T) {
	assert.Equal(t, nfe.EventoCancelamento, nfe.EventTypeCode(nfe.EventNameCancelamento))
	assert.Equal(t, nfe.EventoCartaCorrecao, nfe.EventTypeCode(nfe.EventNameCartaCorrecao))
	assert.Equal(t, "", nfe.EventTypeCode(nfe.EventNameAutorizacao), "autorização não é evento registrável")
	assert.Equal(t, "", nfe.EventTypeCode("qualquer coisa"))
}
