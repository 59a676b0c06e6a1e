package service

import (
	"fmt"
	"time"

	"secondlife/internal/domain/entity"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type msgOpt func(*entity.Message)

func withType(t entity.MessageType) msgOpt { return func(m *entity.Message) { m.Type = t } }
func withNames(buyer, seller string) msgOpt {
	return func(m *entity.Message) { m.BuyerName, m.SellerName = buyer, seller }
}
func readBy(ids ...string) msgOpt { return func(m *entity.Message) { m.ReadBy = append(m.ReadBy, ids...) } }

var seq int

// msg builds a message sent by sender in the (product, buyer, seller) thread,
// minute minutes after base. The sender is always in readBy.
func msg(product, buyer, seller, sender string, minute int, opts ...msgOpt) *entity.Message {
	seq++
	m := &entity.Message{
		ID:        fmt.Sprintf("m%03d", seq),
		ProductID: product,
		BuyerID:   buyer,
		SellerID:  seller,
		SenderID:  sender,
		Content:   "hello",
		Type:      entity.MessageTypeText,
		ReadBy:    []string{sender},
		Timestamp: base.Add(time.Duration(minute) * time.Minute),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}
