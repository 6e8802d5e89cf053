package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound     = errors.New("recurso não encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("não autorizado")
	ErrForbidden    = errors.New("acesso negado")
	ErrConflict     = errors.New("conflito com o estado atual")

	// Ciclo de vida fiscal
	ErrStateGuard  = errors.New("ação não permitida no status atual do documento")
	ErrValidation  = errors.New("documento inválido para emissão")
	ErrNotSigned   = errors.New("XML não está assinado")
	ErrNoAccessKey = errors.New("chave de acesso da NF-e não encontrada")
)
