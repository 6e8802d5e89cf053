// Package nfe contém catálogos e regras auxiliares do layout NF-e 4.00
// (Manual de Orientação do Contribuinte) usados na emissão e nos eventos.
package nfe

// =============================================================================
// Código da UF do emitente (tabela do IBGE usada em cUF e na chave de acesso).
// =============================================================================

// UFCodes mapeia a sigla da UF para o código IBGE de dois dígitos.
var UFCodes = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27",
	"SE": "28", "BA": "29",
	"MG": "31", "ES": "32", "RJ": "33", "SP": "35",
	"PR": "41", "SC": "42", "RS": "43",
	"MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// =============================================================================
// Ambiente de emissão (tpAmb).
// =============================================================================

const (
	AmbienteProducao    = "1"
	AmbienteHomologacao = "2"
)

// =============================================================================
// Códigos de status SEFAZ (cStat) relevantes para o ciclo de vida do documento.
// =============================================================================

const (
	StatusAutorizado        = "100" // Autorizado o uso da NF-e
	StatusCancelado         = "101" // Cancelamento de NF-e homologado
	StatusLoteRecebido      = "103" // Lote recebido com sucesso (processamento assíncrono)
	StatusLoteEmProcesso    = "105" // Lote em processamento
	StatusAutorizadoObs     = "150" // Autorizado fora de prazo
	StatusCanceladoForaPrzo = "151" // Cancelamento fora de prazo homologado
	StatusCancelamentoEvt   = "155" // Cancelamento homologado fora de prazo (evento)

	// Eventos (registro de evento vinculado)
	StatusEventoRegistrado    = "135" // Evento registrado e vinculado à NF-e
	StatusEventoRegistradoAlt = "136" // Evento registrado, mas não vinculado à NF-e
)

// AuthorizedStatuses códigos que colocam o documento em "authorized".
var AuthorizedStatuses = map[string]bool{
	StatusAutorizado:    true,
	StatusAutorizadoObs: true,
}

// CanceledStatuses códigos de consulta que indicam NF-e cancelada.
var CanceledStatuses = map[string]bool{
	StatusCancelado:         true,
	StatusCanceladoForaPrzo: true,
	StatusCancelamentoEvt:   true,
}

// =============================================================================
// Modelo e tipo de emissão.
// =============================================================================

const (
	ModeloNFe         = "55"
	TipoEmissaoNormal = "1"
)

// =============================================================================
// Tipos de evento (tpEvento) da NF-e.
// =============================================================================

const (
	EventoCancelamento  = "110111"
	EventoCartaCorrecao = "110110"
)

// Limites do registro de eventos (Nota Técnica de eventos).
const (
	MaxCartasCorrecao          = 20
	MinJustificativaLen        = 15
	MaxJustificativaCancelLen  = 255
	MinProtocoloAutorizacaoLen = 10
)
