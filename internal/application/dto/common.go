package dto

// ErrorResponse corpo padrão de erro da API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageRequest paginação de listagens.
type PageRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
