package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/config"
	"github.com/roofline/roofline-backend/internal/payment"
	"github.com/roofline/roofline-backend/internal/router"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadPayments()

	svc := payment.NewService(
		payment.NewCoreClient(cfg.CoreBaseURL),
		payment.NewRESTProcessor(cfg.ProcessorBaseURL, cfg.ProcessorAPIKey),
	)

	e := echo.New()
	e.HideBanner = true
	router.RegisterPayments(e, payment.NewHandler(svc))

	addr := ":" + cfg.Port
	log.Printf("payments listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
