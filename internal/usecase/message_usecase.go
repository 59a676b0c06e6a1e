package usecase

import (
	"context"
	"strings"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/internal/infrastructure/events"
	"secondlife/internal/infrastructure/ratelimit"
	ws "secondlife/internal/infrastructure/websocket"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

const (
	paymentRequestContent   = "Demande de paiement envoyée"
	paymentConfirmedContent = "Paiement effectué !"
)

type MessageUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	productRepo      repository.ProductRepository
	userRepo         repository.UserRepository
	reviewRepo       repository.ReviewRepository
	presence         *PresenceUseCase
	notifier         Notifier
	pusher           LivePusher
	publisher        events.Publisher
	rateLimiter      *ratelimit.RateLimiter
	async            runner
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
	presence *PresenceUseCase,
	notifier Notifier,
	pusher LivePusher,
	publisher events.Publisher,
	rateLimiter *ratelimit.RateLimiter,
) *MessageUseCase {
	if pusher == nil {
		pusher = nopPusher{}
	}
	return &MessageUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		reviewRepo:       reviewRepo,
		presence:         presence,
		notifier:         notifier,
		pusher:           pusher,
		publisher:        orNopPublisher(publisher),
		rateLimiter:      rateLimiter,
		async:            goAsync,
	}
}

type SendMessageInput struct {
	ProductID  string
	BuyerID    string
	SellerID   string
	Content    string
	Type       entity.MessageType
	ImageURL   string
	ClientID   string
	SenderName string
}

type ConversationView struct {
	Key        string              `json:"key"`
	ProductID  string              `json:"product_id"`
	BuyerID    string              `json:"buyer_id"`
	SellerID   string              `json:"seller_id"`
	BuyerName  string              `json:"buyer_name"`
	SellerName string              `json:"seller_name"`
	Messages   []*entity.Message   `json:"messages"`
	Workflow   entity.WorkflowView `json:"workflow"`
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
			logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, wait)
			return nil, errors.TooManyRequests("Too many messages", wait)
		}
	}

	if input.Type == "" {
		input.Type = entity.MessageTypeText
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := validateSend(senderID, input); err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != input.SellerID {
		return nil, errors.BadRequest("Seller does not own this product", nil)
	}

	key := entity.NewConversationKey(input.ProductID, input.BuyerID, input.SellerID)
	thread, err := uc.messageRepo.ListByConversation(ctx, key)
	if err != nil {
		return nil, err
	}

	view := service.EvaluateWorkflow(thread, senderID, input.BuyerID, input.SellerID, false)
	if err := service.CheckSend(input.Type, view); err != nil {
		return nil, err
	}

	names := uc.participantNames(ctx, key)
	senderName := strings.TrimSpace(input.SenderName)
	if senderName == "" {
		senderName = uc.displayName(ctx, senderID)
	}

	message := &entity.Message{
		ClientID:     input.ClientID,
		ProductID:    input.ProductID,
		ProductTitle: product.Title,
		SenderID:     senderID,
		BuyerID:      input.BuyerID,
		SellerID:     input.SellerID,
		Content:      input.Content,
		Type:         input.Type,
		ImageURL:     input.ImageURL,
	}
	switch input.Type {
	case entity.MessageTypePaymentRequest:
		if message.Content == "" {
			message.Content = paymentRequestContent
		}
	case entity.MessageTypePaymentConfirmed:
		if message.Content == "" {
			message.Content = paymentConfirmedContent
		}
	}

	buyerStored, sellerStored := "", ""
	if names != nil {
		buyerStored, sellerStored = names.BuyerName, names.SellerName
	}
	message.BuyerName = service.ResolveName(thread, entity.RoleBuyer, buyerStored)
	message.SellerName = service.ResolveName(thread, entity.RoleSeller, sellerStored)
	if senderName == "" {
		senderName = service.Placeholder(view.Role)
	}
	if view.Role == entity.RoleBuyer {
		message.BuyerName = senderName
	} else {
		message.SellerName = senderName
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage Error: failed to store message in %s: %v", key, err)
		return nil, err
	}

	if senderName != service.Placeholder(view.Role) {
		if err := uc.conversationRepo.SetParticipantName(ctx, key, input.BuyerID, input.SellerID, view.Role, senderName); err != nil {
			logger.Warn("SendMessage: failed to record %s name for %s: %v", view.Role, key, err)
		}
	}

	sent := *message
	detached(uc.async, func(ctx context.Context) {
		uc.dispatch(ctx, &sent)
	})
	return message, nil
}

func validateSend(senderID string, input SendMessageInput) error {
	if input.ProductID == "" || input.BuyerID == "" || input.SellerID == "" {
		return errors.BadRequest("productId, buyerId and sellerId are required", nil)
	}
	if input.BuyerID == input.SellerID {
		return errors.BadRequest("Buyer and seller must be different users", nil)
	}
	if senderID != input.BuyerID && senderID != input.SellerID {
		return errors.Forbidden("Not a participant of this conversation", nil)
	}
	switch input.Type {
	case entity.MessageTypeText:
		if input.Content == "" {
			return errors.BadRequest("Message content is required", nil)
		}
	case entity.MessageTypeImage:
		if input.ImageURL == "" {
			return errors.BadRequest("imageUrl is required for image messages", nil)
		}
	}
	if input.Type != entity.MessageTypeImage && input.ImageURL != "" {
		return errors.BadRequest("imageUrl is only allowed on image messages", nil)
	}
	return nil
}

// dispatch notifies the recipient: a live push when a socket is open, and
// an email unless the recipient is positively online. Failures are logged.
func (uc *MessageUseCase) dispatch(ctx context.Context, m *entity.Message) {
	recipientID := m.RecipientID()

	if uc.pusher.SendToUser(recipientID, ws.Event{Type: "new_message", Data: m}) {
		logger.Debug("dispatch: pushed %s to %s", m.ID, recipientID)
	}

	if err := uc.publisher.Publish(ctx, events.Event{
		Type:    events.TypeMessageSent,
		Key:     entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID).String(),
		Payload: m,
	}); err != nil {
		logger.Warn("dispatch: publish %s failed: %v", m.ID, err)
	}

	presence := uc.presence.PresenceOf(ctx, recipientID)
	if !service.ShouldEmail(presence.Verdict) {
		logger.Debug("dispatch: %s is online, email skipped", recipientID)
		return
	}

	recipient, err := uc.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		logger.Warn("dispatch: no profile for %s, email skipped: %v", recipientID, err)
		return
	}
	fromName := m.SenderName()
	if fromName == "" {
		fromName = service.Placeholder(roleOfSender(m))
	}
	if err := uc.notifier.NotifyNewMessage(ctx, recipient.Email, fromName, m.Preview(), m.ProductTitle); err != nil {
		logger.Error("dispatch: email to %s failed: %v", recipientID, err)
	}
}

func roleOfSender(m *entity.Message) entity.Role {
	if m.SenderID == m.BuyerID {
		return entity.RoleBuyer
	}
	return entity.RoleSeller
}

func (uc *MessageUseCase) participantNames(ctx context.Context, key entity.ConversationKey) *entity.ConversationParticipants {
	p, err := uc.conversationRepo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("participant names for %s: %v", key, err)
		}
		return nil
	}
	return p
}

func (uc *MessageUseCase) displayName(ctx context.Context, userID string) string {
	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.DisplayName)
}

// ListMessages returns every message the user takes part in, oldest first.
func (uc *MessageUseCase) ListMessages(ctx context.Context, userID string) ([]*entity.Message, error) {
	messages, err := uc.messageRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.SortThread(messages), nil
}

// Inbox groups every message of the user into conversation rows, newest first.
func (uc *MessageUseCase) Inbox(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	messages, err := uc.messageRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []entity.ConversationKey
	for _, m := range messages {
		k := entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID)
		if !seen[k.String()] {
			seen[k.String()] = true
			keys = append(keys, k)
		}
	}

	dir, err := uc.conversationRepo.GetMany(ctx, keys)
	if err != nil {
		logger.Warn("Inbox: participant names unavailable for %s: %v", userID, err)
		dir = nil
	}
	return service.AggregateConversations(messages, userID, dir), nil
}

func (uc *MessageUseCase) UnreadCount(ctx context.Context, userID string) (int, error) {
	messages, err := uc.messageRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return 0, err
	}
	return service.UnreadCount(messages, userID), nil
}

// GetConversation returns the thread and the viewer's workflow flags, and
// marks everything the viewer had not read. Mark failures are swallowed.
func (uc *MessageUseCase) GetConversation(ctx context.Context, viewerID, productID, buyerID, sellerID string) (*ConversationView, error) {
	if productID == "" || buyerID == "" || sellerID == "" {
		return nil, errors.BadRequest("productId, buyerId and sellerId are required", nil)
	}
	if _, ok := service.RoleOf(viewerID, buyerID, sellerID); !ok {
		return nil, errors.Forbidden("Not a participant of this conversation", nil)
	}

	key := entity.NewConversationKey(productID, buyerID, sellerID)
	thread, err := uc.messageRepo.ListByConversation(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := uc.checkRoles(ctx, thread, productID, buyerID, sellerID); err != nil {
		return nil, err
	}

	reviewExists, reviewErr := uc.reviewRepo.Exists(ctx, productID, buyerID)
	if reviewErr != nil {
		logger.Warn("GetConversation: review check for %s failed: %v", key, reviewErr)
	}

	for _, m := range thread {
		if !service.IsUnreadFor(m, viewerID) {
			continue
		}
		if err := uc.messageRepo.MarkRead(ctx, m.ID, viewerID); err != nil {
			logger.Warn("GetConversation: mark %s read failed: %v", m.ID, err)
			continue
		}
		service.AddReader(m, viewerID)
	}

	names := uc.participantNames(ctx, key)
	buyerStored, sellerStored := "", ""
	if names != nil {
		buyerStored, sellerStored = names.BuyerName, names.SellerName
	}

	workflow := service.EvaluateWorkflow(thread, viewerID, buyerID, sellerID, reviewExists)
	if reviewErr != nil {
		workflow.CanReview = false
	}

	return &ConversationView{
		Key:        key.String(),
		ProductID:  productID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		BuyerName:  service.ResolveName(thread, entity.RoleBuyer, buyerStored),
		SellerName: service.ResolveName(thread, entity.RoleSeller, sellerStored),
		Messages:   thread,
		Workflow:   workflow,
	}, nil
}

// checkRoles rejects a buyerId/sellerId pair that does not match the stored
// roles. The key is order independent, so a swapped pair would otherwise load
// the same thread with the roles reversed.
func (uc *MessageUseCase) checkRoles(ctx context.Context, thread []*entity.Message, productID, buyerID, sellerID string) error {
	if len(thread) > 0 {
		if thread[0].BuyerID != buyerID || thread[0].SellerID != sellerID {
			return errors.BadRequest("buyerId and sellerId do not match this conversation", nil)
		}
		return nil
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return errors.BadRequest("Seller does not own this product", nil)
	}
	return nil
}

func (uc *MessageUseCase) MarkRead(ctx context.Context, userID, messageID string) error {
	m, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if _, ok := service.RoleOf(userID, m.BuyerID, m.SellerID); !ok {
		return errors.Forbidden("Not a participant of this conversation", nil)
	}
	if !service.IsUnreadFor(m, userID) {
		return nil
	}
	return uc.messageRepo.MarkRead(ctx, messageID, userID)
}
