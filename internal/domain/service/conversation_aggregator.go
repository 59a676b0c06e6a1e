package service

import (
	"sort"
	"strings"

	"secondlife/internal/domain/entity"
)

// ParticipantDirectory maps ConversationKey.String() to the stored
// participant names. A nil directory is valid.
type ParticipantDirectory map[string]*entity.ConversationParticipants

type bucket struct {
	key      entity.ConversationKey
	messages []*entity.Message
}

// AggregateConversations groups the user's messages into inbox rows, newest
// activity first. The whole history is scanned on every call.
func AggregateConversations(messages []*entity.Message, userID string, dir ParticipantDirectory) []*entity.Conversation {
	buckets := make(map[string]*bucket)
	for _, m := range messages {
		if m == nil {
			continue
		}
		key := entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID)
		b, ok := buckets[key.String()]
		if !ok {
			b = &bucket{key: key}
			buckets[key.String()] = b
		}
		b.messages = append(b.messages, m)
	}

	conversations := make([]*entity.Conversation, 0, len(buckets))
	for k, b := range buckets {
		conversations = append(conversations, buildConversation(k, b.messages, userID, dir[k]))
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if a.LastActivity.Equal(b.LastActivity) {
			return a.Key < b.Key
		}
		return a.LastActivity.After(b.LastActivity)
	})
	return conversations
}

func buildConversation(key string, msgs []*entity.Message, userID string, names *entity.ConversationParticipants) *entity.Conversation {
	sortByTimestamp(msgs)
	last := msgs[len(msgs)-1]

	buyerID, sellerID := last.BuyerID, last.SellerID
	conv := &entity.Conversation{
		Key:          key,
		ProductID:    last.ProductID,
		ProductTitle: productTitle(msgs),
		BuyerID:      buyerID,
		SellerID:     sellerID,
		LastMessage:  *last,
		LastActivity: last.Timestamp,
		UnreadCount:  UnreadCount(msgs, userID),
		State:        DeriveSaleState(msgs),
	}
	conv.HasUnread = conv.UnreadCount > 0

	var storedBuyer, storedSeller string
	if names != nil {
		storedBuyer, storedSeller = names.BuyerName, names.SellerName
	}
	conv.BuyerName = ResolveName(msgs, entity.RoleBuyer, storedBuyer)
	conv.SellerName = ResolveName(msgs, entity.RoleSeller, storedSeller)

	if role, ok := RoleOf(userID, buyerID, sellerID); ok {
		conv.Role = role
		if role == entity.RoleBuyer {
			conv.CounterpartyID, conv.CounterpartyName = sellerID, conv.SellerName
		} else {
			conv.CounterpartyID, conv.CounterpartyName = buyerID, conv.BuyerName
		}
	}
	return conv
}

// ResolveName picks a display name for a role. Order of preference: the
// stored participant record, the latest message the role owner sent
// themselves, any message naming them, then the role placeholder. msgs must
// be sorted ascending.
func ResolveName(msgs []*entity.Message, role entity.Role, stored string) string {
	if isRealName(stored) {
		return strings.TrimSpace(stored)
	}

	nameOf := func(m *entity.Message) (string, string) {
		if role == entity.RoleBuyer {
			return m.BuyerID, m.BuyerName
		}
		return m.SellerID, m.SellerName
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		ownerID, name := nameOf(msgs[i])
		if msgs[i].SenderID == ownerID && isRealName(name) {
			return strings.TrimSpace(name)
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if _, name := nameOf(msgs[i]); isRealName(name) {
			return strings.TrimSpace(name)
		}
	}
	return Placeholder(role)
}

func Placeholder(role entity.Role) string {
	if role == entity.RoleBuyer {
		return entity.BuyerPlaceholder
	}
	return entity.SellerPlaceholder
}

func isRealName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != entity.BuyerPlaceholder && name != entity.SellerPlaceholder
}

func productTitle(msgs []*entity.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ProductTitle != "" {
			return msgs[i].ProductTitle
		}
	}
	return ""
}

// sortByTimestamp sorts ascending; equal timestamps fall back to id.
func sortByTimestamp(msgs []*entity.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return later(msgs[j], msgs[i])
	})
}

// SortThread returns a copy of msgs in display order (oldest first).
func SortThread(msgs []*entity.Message) []*entity.Message {
	out := make([]*entity.Message, len(msgs))
	copy(out, msgs)
	sortByTimestamp(out)
	return out
}
