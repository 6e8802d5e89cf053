package http

import (
	"github.com/gofiber/fiber/v2"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	DraftUC    *appfiscal.DraftUseCase
	EmissionUC *appfiscal.EmissionUseCase
	JWTSecret  string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rotas protegidas (exigem Bearer Token)
	protected := api.Group("/fiscal", AuthMiddleware(deps.JWTSecret))

	drafts := protected.Group("/drafts")
	draftHandler := NewDraftHandler(deps.DraftUC)
	drafts.Post("/", draftHandler.Create)
	drafts.Get("/", draftHandler.List)
	drafts.Get("/code/:code", draftHandler.GetByCode)
	drafts.Get("/key/:accessKey", draftHandler.GetByAccessKey)
	drafts.Get("/serie/:serieID/number/:number", draftHandler.GetByNumberAndSerie)
	drafts.Get("/:id", draftHandler.GetByID)
	drafts.Put("/:id", draftHandler.Update)
	drafts.Post("/:id/validate", draftHandler.Validate)

	emissionHandler := NewEmissionHandler(deps.EmissionUC)
	drafts.Get("/:id/xml", emissionHandler.GetXML)
	drafts.Post("/:id/xml", emissionHandler.GenerateXML)
	drafts.Post("/:id/xml/sign", emissionHandler.SignXML)
	drafts.Post("/:id/xml/transmit", emissionHandler.Transmit)
	drafts.Post("/:id/sefaz-status", emissionHandler.QueryStatus)
	drafts.Post("/:id/events", emissionHandler.RegisterEvent)

	series := protected.Group("/series")
	series.Get("/:id/next-number", emissionHandler.NextNumber)
}
