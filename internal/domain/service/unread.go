package service

import "secondlife/internal/domain/entity"

// IsUnreadFor reports whether userID still has to read m. A user's own
// messages never count, whatever readBy says.
func IsUnreadFor(m *entity.Message, userID string) bool {
	return m.SenderID != userID && !m.IsReadBy(userID)
}

func UnreadCount(messages []*entity.Message, userID string) int {
	n := 0
	for _, m := range messages {
		if IsUnreadFor(m, userID) {
			n++
		}
	}
	return n
}

// UnreadMessageIDs lists the messages a reader should mark read on viewing.
func UnreadMessageIDs(messages []*entity.Message, userID string) []string {
	var ids []string
	for _, m := range messages {
		if IsUnreadFor(m, userID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// AddReader is the in-memory form of the store's set-union on readBy.
func AddReader(m *entity.Message, userID string) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}
