// Package sefaz implementa a integração com os webservices da SEFAZ:
// montagem do XML da NF-e (layout 4.00), XML de eventos e o cliente SOAP
// com certificado digital (mTLS).
package sefaz

import "github.com/eobicho/fiscal-api/pkg/nfe"

// Versões de layout.
const (
	VersaoLayout = "4.00"
	VersaoEvento = "1.00"
)

// Namespaces do portal NF-e.
const (
	NsNFe  = "http://www.portalfiscal.inf.br/nfe"
	NsSoap = "http://www.w3.org/2003/05/soap-envelope"

	nsWsdlAutorizacao = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"
	nsWsdlRetAut      = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeRetAutorizacao4"
	nsWsdlConsulta    = "http://www.portalfiscal.inf.br/nfe/wsdl/NfeConsultaProtocolo4"
	nsWsdlEvento      = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeRecepcaoEvento4"
)

// Endpoints conjunto de URLs dos serviços de um ambiente.
type Endpoints struct {
	Autorizacao    string
	RetAutorizacao string
	Consulta       string
	Evento         string
}

// SVRS atende a maioria das UFs; SP tem autorizador próprio. UFs sem entrada
// própria caem no SVRS do ambiente.
var (
	endpointsSVRSProducao = Endpoints{
		Autorizacao:    "https://nfe.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://nfe.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		Consulta:       "https://nfe.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
		Evento:         "https://nfe.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
	}
	endpointsSVRSHomologacao = Endpoints{
		Autorizacao:    "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		Consulta:       "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
		Evento:         "https://nfe-homologacao.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
	}
	endpointsSPProducao = Endpoints{
		Autorizacao:    "https://nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
		RetAutorizacao: "https://nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
		Consulta:       "https://nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
		Evento:         "https://nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
	}
	endpointsSPHomologacao = Endpoints{
		Autorizacao:    "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
		RetAutorizacao: "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
		Consulta:       "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
		Evento:         "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
	}
)

// EndpointsFor resolve as URLs do autorizador da UF no ambiente dado.
func EndpointsFor(uf, ambiente string) Endpoints {
	producao := ambiente == nfe.AmbienteProducao
	if uf == "SP" {
		if producao {
			return endpointsSPProducao
		}
		return endpointsSPHomologacao
	}
	if producao {
		return endpointsSVRSProducao
	}
	return endpointsSVRSHomologacao
}
