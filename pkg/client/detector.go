package client

import (
	"sync"

	"secondlife/internal/domain/entity"
)

// Detector finds messages that arrived between two polls and deserve a
// toast. A poll following an empty one only seeds the baseline.
type Detector struct {
	mu      sync.Mutex
	userID  string
	seen    map[string]struct{}
	viewing string
}

func NewDetector(userID string) *Detector {
	return &Detector{userID: userID, seen: make(map[string]struct{})}
}

// SetViewing marks the conversation currently on screen; its messages
// never toast. An empty key clears it.
func (d *Detector) SetViewing(conversationKey string) {
	d.mu.Lock()
	d.viewing = conversationKey
	d.mu.Unlock()
}

// Observe records the latest poll and returns the messages to notify about.
func (d *Detector) Observe(messages []*entity.Message) []*entity.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	var fresh []*entity.Message
	next := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		if m == nil || m.ID == "" {
			continue
		}
		next[m.ID] = struct{}{}
		if len(d.seen) == 0 {
			continue
		}
		if _, ok := d.seen[m.ID]; ok {
			continue
		}
		if m.SenderID == d.userID {
			continue
		}
		key := entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID).String()
		if key == d.viewing {
			continue
		}
		fresh = append(fresh, m)
	}
	d.seen = next
	return fresh
}

// Reset forgets the baseline, e.g. after the user signs out.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.seen = make(map[string]struct{})
	d.viewing = ""
	d.mu.Unlock()
}
