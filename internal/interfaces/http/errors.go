package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/eobicho/fiscal-api/internal/application/dto"
	"github.com/eobicho/fiscal-api/internal/domain"
)

// respondError traduz os erros sentinela do domínio para o par status HTTP +
// código estável da API.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento não encontrado"})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciais inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acesso negado ao recurso"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrStateGuard):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "STATE_GUARD", Message: err.Error()})
	case errors.Is(err, domain.ErrNotSigned):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NOT_SIGNED", Message: "assine o XML antes de transmitir"})
	case errors.Is(err, domain.ErrNoAccessKey):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_ACCESS_KEY", Message: "documento sem chave de acesso; gere o XML primeiro"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// respondSefazError como respondError, mas erro não mapeado vira 502: nas rotas
// que falam com a SEFAZ a causa provável é falha de transporte, o estado do
// documento ficou intacto e o operador pode repetir a ação.
func respondSefazError(c *fiber.Ctx, err error) error {
	if isDomainError(err) {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "UPSTREAM", Message: err.Error()})
}

func isDomainError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrValidation,
		domain.ErrUnauthorized, domain.ErrForbidden, domain.ErrDuplicate,
		domain.ErrConflict, domain.ErrStateGuard, domain.ErrNotSigned,
		domain.ErrNoAccessKey,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
