package nfe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Nomes canônicos de evento usados na lista de eventos do documento.
const (
	EventNameAutorizacao   = "Autorizado o Uso da NF-e"
	EventNameCancelamento  = "Cancelamento"
	EventNameCartaCorrecao = "Carta de Correcao"
)

// NormalizeEventName devolve o nome canônico do evento a partir de entradas
// variadas ("carta_correcao", "Carta de Correção", "CANCELAMENTO", ...).
// Devolve vazio quando o nome não é reconhecido.
func NormalizeEventName(value string) string {
	s := stripAccents(strings.ToLower(strings.TrimSpace(value)))
	s = strings.ReplaceAll(s, "_", " ")
	switch s {
	case "cancelamento":
		return EventNameCancelamento
	case "carta correcao", "carta de correcao":
		return EventNameCartaCorrecao
	case "autorizado o uso da nf-e", "autorizado o uso da nfe", "autorizacao":
		return EventNameAutorizacao
	}
	return ""
}

// EventTypeCode devolve o tpEvento SEFAZ para um nome canônico de evento.
func EventTypeCode(canonicalName string) string {
	switch canonicalName {
	case EventNameCancelamento:
		return EventoCancelamento
	case EventNameCartaCorrecao:
		return EventoCartaCorrecao
	}
	return ""
}

// stripAccents remove marcas diacríticas (NFD + remoção de Mn).
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
