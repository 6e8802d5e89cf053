package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
	"github.com/eobicho/fiscal-api/internal/infrastructure/postgres"
	"github.com/eobicho/fiscal-api/internal/infrastructure/sefaz"
	"github.com/eobicho/fiscal-api/internal/infrastructure/sefaz/signer"
	httpRouter "github.com/eobicho/fiscal-api/internal/interfaces/http"
	"github.com/eobicho/fiscal-api/pkg/config"
	"github.com/eobicho/fiscal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sefaz_uf", cfg.Sefaz.UF).
		Str("sefaz_ambiente", cfg.Sefaz.Ambiente).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	draftRepo := postgres.NewDraftRepository(pool)
	serieRepo := postgres.NewSerieRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	partyRepo := postgres.NewPartyRepository(pool)

	// Certificado A1 do emitente: assinatura do XML e canal mTLS com a SEFAZ.
	// Sem certificado configurado a API sobe, mas assinar/transmitir falha.
	var cert tls.Certificate
	if cfg.Sefaz.CertPath != "" {
		cert, err = signer.LoadCertificate(cfg.Sefaz.CertPath, cfg.Sefaz.CertKeyPath, cfg.Sefaz.CertPassword)
		if err != nil {
			log.Fatal().Err(err).Str("cert_path", cfg.Sefaz.CertPath).Msg("carregar certificado A1")
		}
	} else {
		log.Warn().Msg("SEFAZ_CERT_PATH não configurado; assinatura e transmissão indisponíveis")
	}

	xmlBuilder := sefaz.NewXMLBuilderService()
	signerSvc := signer.NewDigitalSignatureService(cert)
	sefazClient := sefaz.NewClient(sefaz.ClientConfig{
		UF:       cfg.Sefaz.UF,
		Ambiente: cfg.Sefaz.Ambiente,
	}, cert, log)

	draftUC := appfiscal.NewDraftUseCase(draftRepo, serieRepo, partyRepo, log)
	emissionUC := appfiscal.NewEmissionUseCase(
		draftRepo, serieRepo, companyRepo, partyRepo,
		xmlBuilder, signerSvc, sefazClient, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// transmissão síncrona pode esperar o autorizador + consulta de recibo
		WriteTimeout: time.Second * 90,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fiscal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DraftUC:    draftUC,
		EmissionUC: emissionUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
