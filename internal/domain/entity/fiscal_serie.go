package entity

import "time"

// FiscalSerie série fiscal autorizada: define o ambiente de emissão e guarda,
// por empresa, o último número emitido (sequência monotônica por empresa+série).
type FiscalSerie struct {
	ID        string
	Serie     string // número da série (ex: "1")
	Ambiente  string // producao | homologacao
	Model     string // 55
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SerieCounter último número emitido de uma série para uma empresa.
type SerieCounter struct {
	SerieID    string
	CompanyID  string
	LastNumber int64
}
