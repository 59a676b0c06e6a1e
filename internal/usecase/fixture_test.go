package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"secondlife/internal/domain/entity"
)

const (
	seller = "seller-1"
	buyer  = "buyer-1"
	other  = "buyer-2"
	bike   = "product-bike"
)

type fixture struct {
	messages      *memMessages
	conversations *memConversations
	products      *memProducts
	reviews       *memReviews
	users         *memUsers
	notifier      *recordingNotifier
	pusher        *recordingPusher
	publisher     *recordingPublisher

	presence *PresenceUseCase
	message  *MessageUseCase
	sale     *SaleUseCase
	review   *ReviewUseCase
	product  *ProductUseCase
	user     *UserUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		messages:      newMemMessages(),
		conversations: newMemConversations(),
		products: newMemProducts(&entity.Product{
			ID: bike, Title: "Vélo de ville", SellerID: seller, SellerName: "Claire", Status: entity.ProductStatusActive,
		}),
		reviews: newMemReviews(),
		users: newMemUsers(
			&entity.User{ID: seller, Email: "claire@example.test", DisplayName: "Claire"},
			&entity.User{ID: buyer, Email: "marc@example.test", DisplayName: "Marc"},
			&entity.User{ID: other, Email: "lea@example.test", DisplayName: "Léa"},
		),
		notifier:  &recordingNotifier{},
		pusher:    &recordingPusher{},
		publisher: &recordingPublisher{},
	}

	f.presence = NewPresenceUseCase(f.users, time.Minute)
	f.message = NewMessageUseCase(f.messages, f.conversations, f.products, f.users, f.reviews, f.presence, f.notifier, f.pusher, f.publisher, nil)
	f.message.async = inline
	f.sale = NewSaleUseCase(f.messages, f.products, f.users, f.notifier, f.pusher, f.publisher)
	f.sale.async = inline
	f.sale.retryFor = 200 * time.Millisecond
	f.review = NewReviewUseCase(f.reviews, f.messages, f.products, f.users, f.publisher)
	f.product = NewProductUseCase(f.products, f.users)
	f.user = NewUserUseCase(f.users, f.presence, f.notifier, f.publisher)
	f.user.async = inline
	return f
}

// say sends a text message from sender in the bike conversation with buyerID.
func (f *fixture) say(t *testing.T, sender, buyerID, content string) *entity.Message {
	t.Helper()
	m, err := f.message.SendMessage(context.Background(), sender, SendMessageInput{
		ProductID: bike,
		BuyerID:   buyerID,
		SellerID:  seller,
		Content:   content,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) setLastActive(userID string, at time.Time) {
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	f.users.byID[userID].LastActive = at
}
