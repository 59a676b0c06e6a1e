package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"secondlife/internal/domain/repository"
	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

// Stores bundles the repositories of one document store backend.
type Stores struct {
	Messages      repository.MessageRepository
	Conversations repository.ConversationRepository
	Products      repository.ProductRepository
	Reviews       repository.ReviewRepository
	Users         repository.UserRepository
	Activity      repository.ActivityStore

	closers []func() error
}

func (s *Stores) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}
}

// Open connects the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Stores, error) {
	switch cfg.StoreDriver {
	case "mongo":
		return openMongo(ctx, cfg)
	case "", "firestore":
		return openFirestore(ctx, cfg, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openFirestore(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Stores, error) {
	client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	logger.Info("Using Firestore project %s", cfg.FirebaseProject)

	return &Stores{
		Messages:      NewFirestoreMessageRepository(client),
		Conversations: NewFirestoreConversationRepository(client),
		Products:      NewFirestoreProductRepository(client),
		Reviews:       NewFirestoreReviewRepository(client),
		Users:         NewFirestoreUserRepository(client),
		Activity:      NewFirestoreActivityStore(client),
		closers:       []func() error{client.Close},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Stores, error) {
	db, err := NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	logger.Info("Using MongoDB database %s", cfg.MongoDatabase)

	return &Stores{
		Messages:      NewMongoMessageRepository(db),
		Conversations: NewMongoConversationRepository(db),
		Products:      NewMongoProductRepository(db),
		Reviews:       NewMongoReviewRepository(db),
		Users:         NewMongoUserRepository(db),
		Activity:      NewMongoActivityStore(db),
		closers: []func() error{func() error {
			return db.Client().Disconnect(context.Background())
		}},
	}, nil
}
