package usecase

import (
	"context"
	"time"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/internal/infrastructure/events"
	ws "secondlife/internal/infrastructure/websocket"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

const saleConfirmedContent = "Vente confirmée"

type SaleUseCase struct {
	messageRepo repository.MessageRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	pusher      LivePusher
	publisher   events.Publisher
	retryFor    time.Duration
	async       runner
	now         func() time.Time
}

func NewSaleUseCase(
	messageRepo repository.MessageRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	pusher LivePusher,
	publisher events.Publisher,
) *SaleUseCase {
	if pusher == nil {
		pusher = nopPusher{}
	}
	return &SaleUseCase{
		messageRepo: messageRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		pusher:      pusher,
		publisher:   orNopPublisher(publisher),
		retryFor:    5 * time.Second,
		async:       goAsync,
		now:         time.Now,
	}
}

type ConfirmSaleInput struct {
	ProductID string
	BuyerID   string
}

type ConfirmSaleResult struct {
	Product          *entity.Product `json:"product"`
	Message          *entity.Message `json:"message"`
	AlreadyConfirmed bool            `json:"already_confirmed"`
}

// saleMessageID is deterministic per conversation so a retried write can
// never leave two sale confirmations in a thread.
func saleMessageID(key entity.ConversationKey) string {
	return "sale_" + key.DocID()
}

// ConfirmSale marks the product sold to the buyer and appends the
// sale_confirmed tag. A repeated call is a no-op. If the tag cannot be
// written, the product status is restored.
func (uc *SaleUseCase) ConfirmSale(ctx context.Context, sellerID string, input ConfirmSaleInput) (*ConfirmSaleResult, error) {
	if input.ProductID == "" || input.BuyerID == "" {
		return nil, errors.BadRequest("productId and buyerId are required", nil)
	}
	if input.BuyerID == sellerID {
		return nil, errors.BadRequest("You cannot sell an item to yourself", nil)
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, errors.Forbidden("Only the seller can confirm this sale", nil)
	}

	key := entity.NewConversationKey(product.ID, input.BuyerID, sellerID)
	thread, err := uc.messageRepo.ListByConversation(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(thread) == 0 {
		return nil, errors.BadRequest("No conversation with this buyer", nil)
	}

	tagged := service.HasSaleConfirmation(thread)
	soldToBuyer := product.Status == entity.ProductStatusSold && product.BuyerID == input.BuyerID
	if tagged && soldToBuyer {
		return &ConfirmSaleResult{Product: product, Message: lastSaleMessage(thread), AlreadyConfirmed: true}, nil
	}
	if product.Status == entity.ProductStatusSold && product.BuyerID != "" && !soldToBuyer {
		return nil, errors.Conflict("Product already sold to another buyer")
	}

	previous := entity.StatusUpdate{Status: product.Status, BuyerID: product.BuyerID, SoldAt: product.SoldAt}
	soldAt := uc.now().UTC()
	sold := entity.StatusUpdate{Status: entity.ProductStatusSold, BuyerID: input.BuyerID, SoldAt: &soldAt}

	if !soldToBuyer {
		err := retry(ctx, uc.retryFor, func() error {
			return uc.productRepo.UpdateStatus(ctx, product.ID, sold)
		})
		if err != nil {
			logger.Error("ConfirmSale Error: marking %s sold failed: %v", product.ID, err)
			return nil, err
		}
		product.Status, product.BuyerID, product.SoldAt = sold.Status, sold.BuyerID, sold.SoldAt
	}

	message := lastSaleMessage(thread)
	if !tagged {
		message = uc.newSaleMessage(key, product, thread, sellerID, input.BuyerID)
		err := retry(ctx, uc.retryFor, func() error {
			return uc.messageRepo.Create(ctx, message)
		})
		if err != nil {
			stored := uc.storedSaleMessage(ctx, key)
			if stored == nil {
				logger.Error("ConfirmSale Error: sale message for %s failed, reverting product: %v", key, err)
				uc.compensate(ctx, product.ID, previous)
				return nil, errors.Internal("Failed to confirm sale", err)
			}
			logger.Warn("ConfirmSale: sale message for %s was stored despite %v", key, err)
			message = stored
		}
	}

	confirmed := *message
	detached(uc.async, func(ctx context.Context) {
		uc.afterSale(ctx, product.Title, &confirmed)
	})
	return &ConfirmSaleResult{Product: product, Message: message}, nil
}

func (uc *SaleUseCase) newSaleMessage(key entity.ConversationKey, product *entity.Product, thread []*entity.Message, sellerID, buyerID string) *entity.Message {
	sellerName := product.SellerName
	if sellerName == "" {
		sellerName = service.ResolveName(thread, entity.RoleSeller, "")
	}
	return &entity.Message{
		ID:           saleMessageID(key),
		ProductID:    product.ID,
		ProductTitle: product.Title,
		SenderID:     sellerID,
		BuyerID:      buyerID,
		SellerID:     sellerID,
		BuyerName:    service.ResolveName(thread, entity.RoleBuyer, ""),
		SellerName:   sellerName,
		Content:      saleConfirmedContent,
		Type:         entity.MessageTypeSaleConfirmed,
	}
}

// storedSaleMessage returns the sale tag if a write reported as failed
// actually landed: a lost ack, or a retry hitting its own earlier insert.
func (uc *SaleUseCase) storedSaleMessage(ctx context.Context, key entity.ConversationKey) *entity.Message {
	var stored *entity.Message
	err := retry(ctx, uc.retryFor, func() error {
		m, err := uc.messageRepo.GetByID(ctx, saleMessageID(key))
		if err != nil {
			return err
		}
		stored = m
		return nil
	})
	if err != nil || stored.Type != entity.MessageTypeSaleConfirmed {
		return nil
	}
	return stored
}

func (uc *SaleUseCase) compensate(ctx context.Context, productID string, previous entity.StatusUpdate) {
	err := retry(ctx, uc.retryFor, func() error {
		return uc.productRepo.UpdateStatus(ctx, productID, previous)
	})
	if err != nil {
		logger.Error("ConfirmSale Error: could not restore product %s to %s: %v", productID, previous.Status, err)
	}
}

func (uc *SaleUseCase) afterSale(ctx context.Context, productTitle string, m *entity.Message) {
	uc.pusher.SendToUser(m.BuyerID, ws.Event{Type: "sale_confirmed", Data: m})

	if err := uc.publisher.Publish(ctx, events.Event{
		Type:    events.TypeSaleConfirmed,
		Key:     entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID).String(),
		Payload: m,
	}); err != nil {
		logger.Warn("ConfirmSale: publish failed for %s: %v", m.ProductID, err)
	}

	buyer, err := uc.userRepo.GetByID(ctx, m.BuyerID)
	if err != nil {
		logger.Warn("ConfirmSale: no profile for buyer %s, review invite skipped: %v", m.BuyerID, err)
		return
	}
	if err := uc.notifier.NotifySaleConfirmed(ctx, buyer.Email, buyer.DisplayName, m.SellerName, productTitle); err != nil {
		logger.Error("ConfirmSale: review invite to %s failed: %v", m.BuyerID, err)
	}
}

func lastSaleMessage(thread []*entity.Message) *entity.Message {
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].Type == entity.MessageTypeSaleConfirmed {
			return thread[i]
		}
	}
	return nil
}
