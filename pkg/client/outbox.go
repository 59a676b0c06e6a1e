package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"secondlife/internal/domain/entity"
)

type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryConfirmed DeliveryState = "confirmed"
	DeliveryFailed    DeliveryState = "failed"
)

// Pending is an optimistic message shown before the server confirms it.
type Pending struct {
	ClientID  string
	Request   SendMessageRequest
	State     DeliveryState
	Message   *entity.Message
	Err       error
	CreatedAt time.Time
}

// Outbox tracks optimistic sends keyed by client id so a confirmed
// message replaces its placeholder instead of showing twice.
type Outbox struct {
	mu    sync.Mutex
	items map[string]*Pending
	order []string
	now   func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{items: make(map[string]*Pending), now: time.Now}
}

// Add assigns a client id when missing and stores the entry as pending.
func (o *Outbox) Add(req SendMessageRequest) *Pending {
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}
	p := &Pending{ClientID: req.ClientID, Request: req, State: DeliveryPending, CreatedAt: o.now()}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.items[p.ClientID]; !ok {
		o.order = append(o.order, p.ClientID)
	}
	o.items[p.ClientID] = p
	return p
}

func (o *Outbox) Confirm(clientID string, m *entity.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.items[clientID]; ok {
		p.State, p.Message, p.Err = DeliveryConfirmed, m, nil
	}
}

func (o *Outbox) Fail(clientID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.items[clientID]; ok && p.State == DeliveryPending {
		p.State, p.Err = DeliveryFailed, err
	}
}

// Reconcile confirms every entry whose client id appears in a polled
// thread. Failed entries are confirmed too: the send reached the server
// even though the answer got lost.
func (o *Outbox) Reconcile(thread []*entity.Message) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	confirmed := 0
	for _, m := range thread {
		if m == nil || m.ClientID == "" {
			continue
		}
		p, ok := o.items[m.ClientID]
		if !ok || p.State == DeliveryConfirmed {
			continue
		}
		p.State, p.Message, p.Err = DeliveryConfirmed, m, nil
		confirmed++
	}
	return confirmed
}

// Pending lists unconfirmed entries in insertion order.
func (o *Outbox) Pending() []*Pending {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []*Pending
	for _, id := range o.order {
		if p := o.items[id]; p.State != DeliveryConfirmed {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// Prune drops confirmed entries.
func (o *Outbox) Prune() {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.order[:0]
	for _, id := range o.order {
		if o.items[id].State == DeliveryConfirmed {
			delete(o.items, id)
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
}

// Send queues req and posts it, recording the outcome.
func (o *Outbox) Send(ctx context.Context, c *Client, req SendMessageRequest) (*entity.Message, error) {
	p := o.Add(req)
	m, err := c.SendMessage(ctx, p.Request)
	if err != nil {
		o.Fail(p.ClientID, err)
		return nil, err
	}
	o.Confirm(p.ClientID, m)
	return m, nil
}
