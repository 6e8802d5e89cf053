package entity

import "time"

// Party destinatário ou fornecedor do documento (adquirente na NF-e).
type Party struct {
	ID                string
	CompanyID         string
	Name              string
	Document          string // CPF (11 dígitos) ou CNPJ (14 dígitos)
	StateRegistration string // inscrição estadual; vazio ou "ISENTO"
	Email             string
	UF                string
	IBGECityCode      string
	City              string
	District          string
	Street            string
	AddressNumber     string
	ZipCode           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
