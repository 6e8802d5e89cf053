package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/domain/repository"
)

// DraftHandler rotas de CRUD e validação de rascunhos fiscais (protegido).
type DraftHandler struct {
	uc *appfiscal.DraftUseCase
}

// NewDraftHandler constrói o handler.
func NewDraftHandler(uc *appfiscal.DraftUseCase) *DraftHandler {
	return &DraftHandler{uc: uc}
}

// Create cria um rascunho em "draft" com código sequencial da empresa.
// POST /api/fiscal/drafts
func (h *DraftHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SaveDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	draft, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(draft)
}

// Update sobrescreve o rascunho (last-write-wins).
// PUT /api/fiscal/drafts/:id
func (h *DraftHandler) Update(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SaveDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	draft, err := h.uc.Update(c.Context(), c.Params("id"), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// Validate roda a validação de emissão; aprovada, promove para "ready".
// POST /api/fiscal/drafts/:id/validate
func (h *DraftHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	report, err := h.uc.Validate(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// GetByID devolve o rascunho completo.
// GET /api/fiscal/drafts/:id
func (h *DraftHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	draft, err := h.uc.GetByID(c.Context(), c.Params("id"), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// GetByCode retoma um rascunho pelo código interno.
// GET /api/fiscal/drafts/code/:code
func (h *DraftHandler) GetByCode(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	code, err := strconv.ParseInt(c.Params("code"), 10, 64)
	if err != nil || code <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "código inválido"})
	}
	draft, err := h.uc.GetByCode(c.Context(), companyID, code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// GetByAccessKey retoma pela chave de acesso de 44 dígitos.
// GET /api/fiscal/drafts/key/:accessKey
func (h *DraftHandler) GetByAccessKey(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	draft, err := h.uc.GetByAccessKey(c.Context(), companyID, c.Params("accessKey"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// GetByNumberAndSerie retoma pelo par número+série.
// GET /api/fiscal/drafts/serie/:serieID/number/:number
func (h *DraftHandler) GetByNumberAndSerie(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	draft, err := h.uc.GetByNumberAndSerie(c.Context(), companyID, c.Params("number"), c.Params("serieID"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// List lista rascunhos da empresa com filtros opcionais.
// GET /api/fiscal/drafts?status=&access_key=&limit=&offset=
func (h *DraftHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	drafts, err := h.uc.List(c.Context(), repository.DraftFilter{
		CompanyID: companyID,
		Status:    c.Query("status"),
		AccessKey: c.Query("access_key"),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(drafts)
}
