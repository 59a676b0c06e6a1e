package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"secondlife/internal/domain/entity"
)

func TestUnreadCount_NeverCountsOwnMessages(t *testing.T) {
	own := msg("p1", "buyer", "seller", "buyer", 1)
	own.ReadBy = nil

	assert.Equal(t, 0, UnreadCount([]*entity.Message{own}, "buyer"))
	assert.Equal(t, 1, UnreadCount([]*entity.Message{own}, "seller"))
}

func TestAddReader_Idempotent(t *testing.T) {
	m := msg("p1", "buyer", "seller", "seller", 1)

	assert.True(t, AddReader(m, "buyer"))
	assert.False(t, AddReader(m, "buyer"))
	assert.Equal(t, []string{"seller", "buyer"}, m.ReadBy)
	assert.Equal(t, 0, UnreadCount([]*entity.Message{m}, "buyer"))
}

func TestUnreadMessageIDs(t *testing.T) {
	m1 := msg("p1", "buyer", "seller", "seller", 1)
	m2 := msg("p1", "buyer", "seller", "buyer", 2)
	m3 := msg("p1", "buyer", "seller", "seller", 3, readBy("buyer"))

	assert.Equal(t, []string{m1.ID}, UnreadMessageIDs([]*entity.Message{m1, m2, m3}, "buyer"))
}
