package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conecta-ongs/internal/config"
	"conecta-ongs/internal/database"
	"conecta-ongs/internal/events"
	"conecta-ongs/internal/flow"
	"conecta-ongs/internal/handlers"
	"conecta-ongs/internal/infrastructure/address"
	"conecta-ongs/internal/infrastructure/geo"
	"conecta-ongs/internal/infrastructure/payment"
	"conecta-ongs/internal/logging"
	"conecta-ongs/internal/messages"
	"conecta-ongs/internal/metrics"
	"conecta-ongs/internal/repo"
	"conecta-ongs/internal/service"
	"conecta-ongs/internal/websocket"
	"conecta-ongs/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func main() {
	configDir := flag.String("config", ".", "directory holding config.yaml")
	messagesFile := flag.String("messages", "", "optional .properties file overriding UI strings")
	flag.Parse()

	cfg := config.MustLoadConfig(*configDir)
	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	msgs := messages.Default()
	if *messagesFile != "" {
		if msgs, err = messages.New(*messagesFile); err != nil {
			logger.Error("cannot load messages", "error", err)
			os.Exit(1)
		}
	}

	clock := clockwork.NewRealClock()
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	donations := service.NewDonationService(service.DonationConfig{
		Overlay: flow.Delays{
			Processing: cfg.Donation.ProcessingDelay(),
			Reset:      cfg.Donation.ResetDelay(),
			Copied:     cfg.Donation.CopiedDelay(),
		},
		Sandbox: flow.Delays{
			Processing: cfg.Donation.SandboxProcessingDelay(),
			Copied:     cfg.Donation.CopiedDelay(),
		},
		PixKey: cfg.Donation.PixKey,
	}, service.DonationDeps{
		Clock:       clock,
		Gateway:     payment.NewSandboxGateway(clock),
		Receipts:    repo.NewReceiptRepo(db.DB()),
		Publisher:   publisher,
		Broadcaster: hub,
		Messages:    msgs,
		Logger:      logger,
	})

	volunteers := service.NewVolunteerService(
		repo.NewVolunteerRepo(db.DB()),
		address.NewViaCEPClient(cfg.Lookup.ViaCEPURL, cfg.Lookup.Timeout()),
		clock,
		logger,
	)
	directory := service.NewDirectoryService(nil,
		geo.NewNominatimClient(cfg.Lookup.NominatimURL, cfg.Lookup.UserAgent, cfg.Lookup.Timeout()),
	)

	reaper := worker.NewSessionReaper(donations, cfg.Donation.SessionTTL(), cfg.Donation.ReaperInterval(), clock, logger)
	go reaper.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.RouterDeps{
		Donations:      donations,
		Volunteers:     volunteers,
		Directory:      directory,
		Hub:            hub,
		DB:             db,
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	// stops pending timers, so nothing is approved after Wait returns
	closed := donations.CloseAll()
	donations.Wait()
	logger.Info("Donation sessions closed", "count", closed)
}
