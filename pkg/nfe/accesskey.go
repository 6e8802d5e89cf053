// Cálculo da chave de acesso de 44 dígitos da NF-e:
// cUF + AAMM + CNPJ + mod + série + número + tpEmis + cNF + cDV (módulo 11).
package nfe

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// AccessKeyParams parâmetros para montar a chave de acesso.
type AccessKeyParams struct {
	UFCode   string    // código IBGE da UF (2 dígitos)
	CNPJ     string    // CNPJ do emitente (14 dígitos)
	Serie    string    // série fiscal (até 3 dígitos)
	Number   string    // número do documento (até 9 dígitos)
	Emission time.Time // data de emissão (AAMM)
	CNF      string    // código numérico aleatório de 8 dígitos; vazio = gerado
}

// BuildAccessKey monta a chave de acesso de 44 dígitos com dígito verificador.
func BuildAccessKey(p AccessKeyParams) (string, error) {
	ufCode := DigitsOnly(p.UFCode)
	if len(ufCode) != 2 {
		return "", fmt.Errorf("nfe: código de UF inválido %q", p.UFCode)
	}
	cnpj := PadNumber(p.CNPJ, 14)
	if len(DigitsOnly(p.CNPJ)) == 0 {
		return "", fmt.Errorf("nfe: CNPJ do emitente é obrigatório")
	}
	if len(DigitsOnly(p.Number)) == 0 {
		return "", fmt.Errorf("nfe: número do documento é obrigatório")
	}
	cnf := DigitsOnly(p.CNF)
	if len(cnf) != 8 {
		cnf = RandomNumeric(8)
	}
	yearMonth := p.Emission.Format("0601")
	base := ufCode + yearMonth + cnpj + ModeloNFe +
		PadNumber(p.Serie, 3) + PadNumber(p.Number, 9) + TipoEmissaoNormal + cnf
	return base + CheckDigit(base), nil
}

// CheckDigit calcula o dígito verificador da chave de acesso (módulo 11,
// pesos 2..9 da direita para a esquerda; resto 0 ou 1 resulta em DV 0).
func CheckDigit(accessKey string) string {
	digits := DigitsOnly(accessKey)
	weights := []int{2, 3, 4, 5, 6, 7, 8, 9}
	sum := 0
	w := 0
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weights[w]
		w = (w + 1) % len(weights)
	}
	mod := sum % 11
	if mod == 0 || mod == 1 {
		return "0"
	}
	return fmt.Sprintf("%d", 11-mod)
}

// ValidAccessKey verifica comprimento e dígito verificador de uma chave de acesso.
func ValidAccessKey(key string) bool {
	digits := DigitsOnly(key)
	if len(digits) != 44 {
		return false
	}
	return CheckDigit(digits[:43]) == digits[43:]
}

// DigitsOnly deixa apenas dígitos 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PadNumber normaliza para apenas dígitos e preenche com zeros à esquerda.
func PadNumber(value string, size int) string {
	digits := DigitsOnly(value)
	if len(digits) > size {
		return digits[len(digits)-size:]
	}
	return strings.Repeat("0", size-len(digits)) + digits
}

// RandomNumeric gera uma sequência numérica aleatória de tamanho size (cNF).
func RandomNumeric(size int) string {
	var b strings.Builder
	for i := 0; i < size; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
