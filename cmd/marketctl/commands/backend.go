package commands

import (
	"context"

	"secondlife/internal/adapter/repository"
	"secondlife/internal/infrastructure/email"
	"secondlife/internal/infrastructure/events"
	"secondlife/internal/infrastructure/firebase"
	"secondlife/internal/printer"
	"secondlife/internal/usecase"
	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

// backend is the subset of the API server wiring the batch jobs need.
type backend struct {
	cfg       *config.Config
	stores    *repository.Stores
	publisher events.Publisher
	notifier  *email.Service
	reviews   *usecase.ReviewUseCase
	users     *usecase.UserUseCase
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, printer.Error("invalid configuration", err.Error(),
			"check "+configPath+" and the STORE_DRIVER/MONGODB_URI variables")
	}
	logger.Init(cfg.Environment)

	opts := firebase.ClientOptions(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)
	stores, err := repository.Open(ctx, cfg, opts...)
	if err != nil {
		return nil, printer.Error("cannot open the "+cfg.StoreDriver+" store", err.Error())
	}

	b := &backend{
		cfg:       cfg,
		stores:    stores,
		publisher: events.New(cfg.KafkaBrokers, cfg.KafkaTopic),
		notifier:  email.NewServiceFromConfig(cfg.Email, cfg.AppURL),
	}
	presence := usecase.NewPresenceUseCase(stores.Activity, cfg.PresenceThreshold)
	b.reviews = usecase.NewReviewUseCase(stores.Reviews, stores.Messages, stores.Products, stores.Users, b.publisher)
	b.users = usecase.NewUserUseCase(stores.Users, presence, b.notifier, b.publisher)
	return b, nil
}

func (b *backend) Close() {
	if err := b.publisher.Close(); err != nil {
		logger.Warn("closing publisher: %v", err)
	}
	b.stores.Close()
	logger.Sync()
}
