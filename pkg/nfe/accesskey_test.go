package nfe_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eobicho/fiscal-api/pkg/nfe"
)

func TestCheckDigit_VetorConhecido(t *testing.T) {
	// cUF 35 + AAMM 2608 + CNPJ 12345678000195 + mod 55 + série 001 +
	// nNF 000001234 + tpEmis 1 + cNF 12345678
	base := "3526081234567800019555001000001234112345678"
	require.Len(t, base, 43)

	assert.Equal(t, "4", nfe.CheckDigit(base))
}

func TestCheckDigit_RestoZeroOuUmViraZero(t *testing.T) {
	assert.Equal(t, "0", nfe.CheckDigit(strings.Repeat("0", 43)))
}

func TestBuildAccessKey_MontaChaveCompleta(t *testing.T) {
	key, err := nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode:   "35",
		CNPJ:     "12.345.678/0001-95",
		Serie:    "1",
		Number:   "1234",
		Emission: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		CNF:      "12345678",
	})

	require.NoError(t, err)
	assert.Equal(t, "35260812345678000195550010000012341123456784", key)
	assert.True(t, nfe.ValidAccessKey(key))
	assert.Equal(t, "12345678", key[35:43], "cNF nas posições 35..43")
	assert.Equal(t, "4", key[43:], "dígito verificador na última posição")
}

func TestBuildAccessKey_GeraCNFQuandoAusente(t *testing.T) {
	key, err := nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode:   "43",
		CNPJ:     "12345678000195",
		Serie:    "1",
		Number:   "42",
		Emission: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	require.Len(t, key, 44)
	assert.True(t, nfe.ValidAccessKey(key))
	assert.Equal(t, "43", key[:2])
	assert.Equal(t, "2601", key[2:6])
}

func TestBuildAccessKey_EntradasInvalidas(t *testing.T) {
	_, err := nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode: "XX", CNPJ: "12345678000195", Number: "1", Emission: time.Now(),
	})
	assert.Error(t, err, "UF sem código IBGE deve falhar")

	_, err = nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode: "35", Number: "1", Emission: time.Now(),
	})
	assert.Error(t, err, "CNPJ vazio deve falhar")

	_, err = nfe.BuildAccessKey(nfe.AccessKeyParams{
		UFCode: "35", CNPJ: "12345678000195", Emission: time.Now(),
	})
	assert.Error(t, err, "número vazio deve falhar")
}

func TestValidAccessKey_RejeitaChaveAdulterada(t *testing.T) {
	valid := "35260812345678000195550010000012341123456784"
	require.True(t, nfe.ValidAccessKey(valid))

	assert.False(t, nfe.ValidAccessKey(valid[:43]+"5"), "DV trocado")
	assert.False(t, nfe.ValidAccessKey(valid[:43]), "43 dígitos")
	assert.False(t, nfe.ValidAccessKey(""), "vazia")
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "12345678000195", nfe.DigitsOnly("12.345.678/0001-95"))
	assert.Equal(t, "", nfe.DigitsOnly("abc"))
}

func TestPadNumber(t *testing.T) {
	assert.Equal(t, "000001234", nfe.PadNumber("1234", 9))
	assert.Equal(t, "001", nfe.PadNumber("1", 3))
	// estouro: mantém os dígitos menos significativos
	assert.Equal(t, "234", nfe.PadNumber("1234", 3))
}

func TestRandomNumeric(t *testing.T) {
	out := nfe.RandomNumeric(8)
	require.Len(t, out, 8)
	assert.Equal(t, out, nfe.DigitsOnly(out), "só dígitos")
}
