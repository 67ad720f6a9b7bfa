package main

import (
	"fmt"
	"os"

	"github.com/anushreddydasari/cpqagri/internal/auth"
	"github.com/anushreddydasari/cpqagri/internal/config"
	"github.com/anushreddydasari/cpqagri/internal/db"
	"github.com/anushreddydasari/cpqagri/internal/excel"
	httphandler "github.com/anushreddydasari/cpqagri/internal/http"
	"github.com/anushreddydasari/cpqagri/internal/http/middleware"
	"github.com/anushreddydasari/cpqagri/internal/logger"
	"github.com/anushreddydasari/cpqagri/internal/mail"
	"github.com/anushreddydasari/cpqagri/internal/pdf"
	"github.com/anushreddydasari/cpqagri/internal/repository"
	"github.com/anushreddydasari/cpqagri/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	farmerRepo := repository.NewFarmerRepository(database)
	cropRepo := repository.NewCropRepository(database)
	quoteRepo := repository.NewQuoteRepository(database)
	fileRepo := repository.NewFileRepository(database)

	pdfGenerator := pdf.NewGenerator()
	excelGenerator := excel.NewGenerator()
	tokenIssuer := service.NewTokenIssuer(cfg.Signing.TokenSecret)

	var mailer service.LinkMailer
	if m := mail.New(cfg.SMTP); m != nil {
		mailer = m
	}

	catalogService := service.NewCatalogService(farmerRepo, cropRepo, quoteRepo, log)
	quoteService := service.NewQuoteService(
		farmerRepo, cropRepo, quoteRepo, fileRepo,
		pdfGenerator, excelGenerator, mailer, tokenIssuer,
		cfg.Signing.PublicBaseURL, log,
	)
	signingService := service.NewSigningService(quoteRepo, fileRepo, tokenIssuer, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(catalogService, quoteService, signingService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting cpq service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
