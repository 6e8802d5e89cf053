package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
)

// EmissionHandler rotas do fluxo de emissão: XML, assinatura, transmissão,
// consulta de situação e eventos (protegido).
type EmissionHandler struct {
	uc *appfiscal.EmissionUseCase
}

// NewEmissionHandler constrói o handler.
func NewEmissionHandler(uc *appfiscal.EmissionUseCase) *EmissionHandler {
	return &EmissionHandler{uc: uc}
}

// GetXML devolve o XML corrente; sem XML gerado, gera na primeira consulta.
// GET /api/fiscal/drafts/:id/xml
func (h *EmissionHandler) GetXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xml, err := h.uc.GetXML(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(xml)
}

// GenerateXML (re)gera o XML da NF-e; a assinatura anterior é invalidada.
// POST /api/fiscal/drafts/:id/xml
func (h *EmissionHandler) GenerateXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xml, err := h.uc.GenerateXML(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(xml)
}

// SignXML assina o XML previamente gerado com o certificado A1.
// POST /api/fiscal/drafts/:id/xml/sign
func (h *EmissionHandler) SignXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xml, err := h.uc.SignXML(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(xml)
}

// Transmit envia o XML assinado à SEFAZ e aplica o desfecho no documento.
// POST /api/fiscal/drafts/:id/xml/transmit
func (h *EmissionHandler) Transmit(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	res, err := h.uc.Transmit(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondSefazError(c, err)
	}
	return c.JSON(res)
}

// QueryStatus reconsulta a situação da NF-e na SEFAZ sem reenviar.
// POST /api/fiscal/drafts/:id/sefaz-status
func (h *EmissionHandler) QueryStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	res, err := h.uc.QueryStatus(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondSefazError(c, err)
	}
	return c.JSON(res)
}

// RegisterEvent registra cancelamento ou carta de correção.
// POST /api/fiscal/drafts/:id/events
func (h *EmissionHandler) RegisterEvent(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterEventRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	res, err := h.uc.RegisterEvent(c.Context(), c.Params("id"), companyID, in)
	if err != nil {
		return respondSefazError(c, err)
	}
	return c.JSON(res)
}

// NextNumber devolve o próximo número disponível da série para a empresa.
// GET /api/fiscal/series/:id/next-number
func (h *EmissionHandler) NextNumber(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	next, err := h.uc.NextNumber(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"serie_id": c.Params("id"), "next_number": next})
}
