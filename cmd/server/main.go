package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moswords/config"
	"moswords/internal/database"
	"moswords/internal/device"
	devicerepo "moswords/internal/device/repository"
	deviceuc "moswords/internal/device/usecase"
	"moswords/internal/envelope"
	enveloperepo "moswords/internal/envelope/repository"
	envelopeuc "moswords/internal/envelope/usecase"
	"moswords/internal/message"
	messagerepo "moswords/internal/message/repository"
	messageuc "moswords/internal/message/usecase"
	"moswords/internal/metrics"
	"moswords/internal/server"
	"moswords/pkg/logger"
	"moswords/pkg/utils"

	"github.com/google/uuid"
)

func main() {
	configName := flag.String("config", "config", "config file name without extension")
	issueToken := flag.String("issue-token", "", "print a bearer token for this user id and exit")
	flag.Parse()

	v, err := config.LoadConfig(*configName)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	if *issueToken != "" {
		userID, err := uuid.Parse(*issueToken)
		if err != nil {
			log.Fatalf("Invalid user id: %v", err)
		}
		token, err := utils.GenerateJWTToken(userID, *cfg)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	var (
		deviceRepo   device.DeviceRepository
		envelopeRepo envelope.EnvelopeRepository
		messageRepo  message.MessageRepository
		db           *database.DB
	)
	if cfg.Bun.DSN == config.MemoryDSN {
		appLogger.Warn("running on the in-memory store, nothing survives a restart")
		deviceRepo = devicerepo.NewMemoryDeviceRepository()
		envelopeRepo = enveloperepo.NewMemoryEnvelopeRepository()
		messageRepo = messagerepo.NewMemoryMessageRepository()
	} else {
		db, err = database.Connect(ctx, cfg.Bun, appLogger)
		if err != nil {
			appLogger.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.Migrate(ctx, db.DB); err != nil {
			appLogger.Fatalf("Failed to migrate schema: %v", err)
		}
		deviceRepo = devicerepo.NewDeviceRepository(db.DB, *appLogger)
		envelopeRepo = enveloperepo.NewEnvelopeRepository(db.DB, *appLogger)
		messageRepo = messagerepo.NewMessageRepository(db.DB, *appLogger)
	}

	handler := server.NewHandler(server.Deps{
		Devices:   deviceuc.NewDeviceUsecase(deviceRepo, *appLogger),
		Envelopes: envelopeuc.NewEnvelopeUsecase(envelopeRepo, deviceRepo, *appLogger, cfg.Envelope.ExclusiveMint),
		Messages:  messageuc.NewMessageUsecase(messageRepo, *appLogger),
		Metrics:   metrics.New(),
		Logger:    appLogger,
		JWTSecret: cfg.JWT.Secret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		appLogger.Info("server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	appLogger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http server shutdown failed", "err", err)
	}

	if db != nil {
		if err := db.Close(); err != nil {
			appLogger.Error("database close failed", "err", err)
		}
	}
}
