package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondlife/internal/domain/entity"
	"secondlife/internal/infrastructure/events"
	"secondlife/internal/infrastructure/ratelimit"
	"secondlife/pkg/errors"
)

func TestSendMessage_StoresNamesAndReader(t *testing.T) {
	f := newFixture(t)

	m := f.say(t, buyer, buyer, "  Toujours disponible ?  ")

	assert.Equal(t, "Toujours disponible ?", m.Content)
	assert.Equal(t, entity.MessageTypeText, m.Type)
	assert.Equal(t, "Vélo de ville", m.ProductTitle)
	assert.Equal(t, "Marc", m.BuyerName)
	assert.Equal(t, entity.SellerPlaceholder, m.SellerName)
	assert.Equal(t, []string{buyer}, m.ReadBy)

	names, err := f.conversations.Get(context.Background(), entity.NewConversationKey(bike, buyer, seller))
	require.NoError(t, err)
	assert.Equal(t, "Marc", names.BuyerName)
	assert.Empty(t, names.SellerName)
}

func TestSendMessage_ReplyCarriesBothNames(t *testing.T) {
	f := newFixture(t)
	f.say(t, buyer, buyer, "Bonjour")

	reply := f.say(t, seller, buyer, "Oui, il est dispo")

	assert.Equal(t, "Marc", reply.BuyerName)
	assert.Equal(t, "Claire", reply.SellerName)
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		sender string
		input  SendMessageInput
		code   string
	}{
		{"missing ids", buyer, SendMessageInput{ProductID: bike, Content: "x"}, errors.CodeBadRequest},
		{"same buyer and seller", seller, SendMessageInput{ProductID: bike, BuyerID: seller, SellerID: seller, Content: "x"}, errors.CodeBadRequest},
		{"stranger", "intruder", SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Content: "x"}, errors.CodeForbidden},
		{"empty text", buyer, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Content: "   "}, errors.CodeBadRequest},
		{"image without url", buyer, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Type: entity.MessageTypeImage}, errors.CodeBadRequest},
		{"wrong seller", buyer, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: other, Content: "x"}, errors.CodeBadRequest},
		{"unknown type", buyer, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Content: "x", Type: "offer"}, errors.CodeBadRequest},
		{"unknown product", buyer, SendMessageInput{ProductID: "nope", BuyerID: buyer, SellerID: seller, Content: "x"}, errors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.message.SendMessage(ctx, tt.sender, tt.input)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSendMessage_PaymentWorkflowGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.say(t, buyer, buyer, "Je le prends")

	send := func(sender string, typ entity.MessageType) (*entity.Message, error) {
		return f.message.SendMessage(ctx, sender, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Type: typ})
	}

	_, err := send(buyer, entity.MessageTypePaymentRequest)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = send(buyer, entity.MessageTypePaymentConfirmed)
	assert.True(t, errors.Is(err, errors.CodeForbidden), "cannot pay before a request")

	req, err := send(seller, entity.MessageTypePaymentRequest)
	require.NoError(t, err)
	assert.Equal(t, paymentRequestContent, req.Content)

	_, err = send(seller, entity.MessageTypePaymentRequest)
	assert.True(t, errors.Is(err, errors.CodeForbidden), "request already pending")

	paid, err := send(buyer, entity.MessageTypePaymentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, paymentConfirmedContent, paid.Content)

	_, err = send(seller, entity.MessageTypeSaleConfirmed)
	assert.True(t, errors.Is(err, errors.CodeForbidden), "sale tags only come from ConfirmSale")
	assert.Zero(t, f.messages.countType(entity.MessageTypeSaleConfirmed))
}

func TestSendMessage_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.message.rateLimiter = ratelimit.NewRateLimiter(1, 1)

	f.say(t, buyer, buyer, "un")
	_, err := f.message.SendMessage(context.Background(), buyer, SendMessageInput{ProductID: bike, BuyerID: buyer, SellerID: seller, Content: "deux"})

	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestDispatch_EmailDependsOnPresence(t *testing.T) {
	tests := []struct {
		name       string
		lastActive time.Duration
		wantEmail  bool
	}{
		{"online recipient", -10 * time.Second, false},
		{"offline recipient", -5 * time.Minute, true},
		{"never seen", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.lastActive != 0 {
				f.setLastActive(seller, time.Now().Add(tt.lastActive))
			}

			f.say(t, buyer, buyer, "Bonjour")

			assert.Equal(t, []string{"new_message"}, f.pusher.pushed[seller])
			assert.Equal(t, []string{events.TypeMessageSent}, f.publisher.types)
			if tt.wantEmail {
				require.Len(t, f.notifier.sent, 1)
				assert.Equal(t, notification{"new_message", "claire@example.test", "Marc", "Bonjour"}, f.notifier.sent[0])
			} else {
				assert.Empty(t, f.notifier.sent)
			}
		})
	}
}

func TestDispatch_PresenceStoreDownStillEmails(t *testing.T) {
	f := newFixture(t)
	f.message.presence = NewPresenceUseCase(failingActivity{}, time.Minute)

	f.say(t, buyer, buyer, "Bonjour")

	assert.Equal(t, []string{"new_message"}, f.notifier.kinds())
}

func TestInbox_OneRowPerConversation(t *testing.T) {
	f := newFixture(t)
	f.say(t, buyer, buyer, "Bonjour")
	f.say(t, other, other, "Encore dispo ?")
	f.say(t, seller, buyer, "Oui")

	rows, err := f.message.Inbox(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, buyer, rows[0].CounterpartyID)
	assert.Equal(t, "Marc", rows[0].CounterpartyName)
	assert.Equal(t, "Oui", rows[0].LastMessage.Content)
	assert.Equal(t, 1, rows[0].UnreadCount, "the buyer's opening message is still unread")

	assert.Equal(t, other, rows[1].CounterpartyID)
	assert.Equal(t, "Léa", rows[1].CounterpartyName)
	assert.Equal(t, 1, rows[1].UnreadCount)
	assert.True(t, rows[1].HasUnread)
	assert.Equal(t, entity.RoleSeller, rows[1].Role)
}

func TestListMessages_FlatAndOldestFirst(t *testing.T) {
	f := newFixture(t)
	f.say(t, buyer, buyer, "Bonjour")
	f.say(t, other, other, "Encore dispo ?")
	f.say(t, seller, buyer, "Oui")

	all, err := f.message.ListMessages(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Bonjour", "Encore dispo ?", "Oui"}, []string{all[0].Content, all[1].Content, all[2].Content})

	mine, err := f.message.ListMessages(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Encore dispo ?", mine[0].Content)
}

func TestGetConversation_MarksUnreadAsRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.say(t, buyer, buyer, "Bonjour")
	f.say(t, buyer, buyer, "Toujours là ?")

	count, err := f.message.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	view, err := f.message.GetConversation(ctx, seller, bike, buyer, seller)
	require.NoError(t, err)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "Bonjour", view.Messages[0].Content)
	assert.True(t, view.Messages[1].IsReadBy(seller))
	assert.Equal(t, entity.SaleStateOpen, view.Workflow.State)
	assert.True(t, view.Workflow.CanRequestPayment)
	assert.Equal(t, "Marc", view.BuyerName)

	count, err = f.message.UnreadCount(ctx, seller)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetConversation_MarkFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	f.say(t, buyer, buyer, "Bonjour")
	f.messages.markErr = errors.Unavailable("store down", nil)

	view, err := f.message.GetConversation(context.Background(), seller, bike, buyer, seller)

	require.NoError(t, err)
	assert.False(t, view.Messages[0].IsReadBy(seller))
}

func TestGetConversation_RejectsStranger(t *testing.T) {
	f := newFixture(t)

	_, err := f.message.GetConversation(context.Background(), "intruder", bike, buyer, seller)

	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestGetConversation_RejectsSwappedRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.say(t, buyer, buyer, "Bonjour")

	_, err := f.message.GetConversation(ctx, buyer, bike, seller, buyer)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	view, err := f.message.GetConversation(ctx, buyer, bike, buyer, seller)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBuyer, view.Workflow.Role)
	assert.False(t, view.Workflow.CanConfirmSale)
	assert.False(t, view.Workflow.CanRequestPayment)
}

func TestGetConversation_RejectsSwappedRolesBeforeFirstMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.message.GetConversation(context.Background(), buyer, bike, seller, buyer)

	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestGetConversation_ReviewCheckFailureHidesReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.say(t, buyer, buyer, "Je le prends")
	_, err := f.sale.ConfirmSale(ctx, seller, ConfirmSaleInput{ProductID: bike, BuyerID: buyer})
	require.NoError(t, err)
	f.reviews.existsErr = errors.Unavailable("store down", nil)

	view, err := f.message.GetConversation(ctx, buyer, bike, buyer, seller)

	require.NoError(t, err)
	assert.Equal(t, entity.SaleStateSold, view.Workflow.State)
	assert.False(t, view.Workflow.CanReview)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.say(t, buyer, buyer, "Bonjour")

	assert.True(t, errors.Is(f.message.MarkRead(ctx, "intruder", m.ID), errors.CodeForbidden))

	require.NoError(t, f.message.MarkRead(ctx, seller, m.ID))
	require.NoError(t, f.message.MarkRead(ctx, seller, m.ID))

	stored, err := f.messages.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{buyer, seller}, stored.ReadBy)
}

type failingActivity struct{}

func (failingActivity) Touch(context.Context, string, time.Time) error {
	return errors.Unavailable("presence down", nil)
}

func (failingActivity) LastActive(context.Context, string) (time.Time, error) {
	return time.Time{}, errors.Unavailable("presence down", nil)
}
