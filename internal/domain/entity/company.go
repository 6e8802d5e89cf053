package entity

import "time"

// Company emitente do documento fiscal.
type Company struct {
	ID            string
	Name          string // razão social
	TradeName     string // nome fantasia
	CNPJ          string
	IE            string // inscrição estadual
	CRT           string // código de regime tributário (1=Simples, 3=Normal)
	UF            string
	IBGECityCode  string
	City          string
	District      string
	Street        string
	AddressNumber string
	ZipCode       string
	Phone         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
