package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"scriptstore/internal/client"
	"scriptstore/internal/config"
	"scriptstore/internal/repository"
	"scriptstore/internal/server"
	"scriptstore/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	// Privileged pool for the pipeline routes, restricted pool for
	// public catalog reads.
	serviceDB, err := client.InitPostgresClient(cfg.Database.ServiceURL)
	if err != nil {
		log.Fatal(err)
	}
	anonDB := serviceDB
	if cfg.Database.AnonURL() != cfg.Database.ServiceURL {
		anonDB, err = client.InitPostgresClient(cfg.Database.AnonURL())
		if err != nil {
			log.Fatal(err)
		}
	}

	if err := client.Migrate(serviceDB); err != nil {
		log.Fatal(err)
	}

	stripeClient := client.NewStripeClient(&cfg.Stripe)

	productRepo := repository.NewProductRepository(serviceDB)
	anonProductRepo := repository.NewProductRepository(anonDB)
	userRepo := repository.NewUserRepository(serviceDB)
	purchaseRepo := repository.NewPurchaseRepository(serviceDB)
	webhookEventRepo := repository.NewWebhookEventRepository(serviceDB)

	if cfg.Environment.Name == "development" {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

	checkoutService := service.NewCheckoutService(
		stripeClient, cfg.BaseURL,
		productRepo,
		purchaseRepo,
		userRepo,
	)
	webhookService := service.NewWebhookService(
		serviceDB,
		stripeClient,
		purchaseRepo,
		webhookEventRepo,
	)
	catalogService := service.NewCatalogService(anonProductRepo)
	entitlementService := service.NewEntitlementService(purchaseRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, checkoutService, webhookService, catalogService, entitlementService)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
