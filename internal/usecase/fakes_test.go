package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/service"
	"secondlife/internal/infrastructure/events"
	ws "secondlife/internal/infrastructure/websocket"
	"secondlife/pkg/errors"
)

// inline runs detached work on the calling goroutine.
func inline(f func()) { f() }

type memMessages struct {
	mu        sync.Mutex
	byID      map[string]*entity.Message
	clock     time.Time
	createErr error
	markErr   error
	// ackErr is returned after the write has been stored, like a lost ack.
	ackErr   error
	lostAcks int
}

func newMemMessages() *memMessages {
	return &memMessages{byID: map[string]*entity.Message{}, clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *memMessages) Create(_ context.Context, m *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, ok := r.byID[m.ID]; ok {
		if r.ackErr != nil {
			return r.ackErr
		}
		return errors.Conflict("Message already exists")
	}
	r.clock = r.clock.Add(time.Second)
	m.Timestamp = r.clock
	service.AddReader(m, m.SenderID)
	cp := *m
	cp.ReadBy = append([]string(nil), m.ReadBy...)
	r.byID[m.ID] = &cp
	if r.ackErr != nil {
		return r.ackErr
	}
	if r.lostAcks > 0 {
		r.lostAcks--
		return errors.Unavailable("connection reset", nil)
	}
	return nil
}

func (r *memMessages) GetByID(_ context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	cp := *m
	return &cp, nil
}

func (r *memMessages) all() []*entity.Message {
	out := make([]*entity.Message, 0, len(r.byID))
	for _, m := range r.byID {
		cp := *m
		cp.ReadBy = append([]string(nil), m.ReadBy...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (r *memMessages) ListByParticipant(_ context.Context, userID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.all() {
		if m.BuyerID == userID || m.SellerID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessages) ListByConversation(_ context.Context, key entity.ConversationKey) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.all() {
		if entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID) == key {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessages) MarkRead(_ context.Context, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	m, ok := r.byID[messageID]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	service.AddReader(m, userID)
	return nil
}

func (r *memMessages) countType(t entity.MessageType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.byID {
		if m.Type == t {
			n++
		}
	}
	return n
}

type memConversations struct {
	mu      sync.Mutex
	records map[string]*entity.ConversationParticipants
}

func newMemConversations() *memConversations {
	return &memConversations{records: map[string]*entity.ConversationParticipants{}}
}

func (r *memConversations) Get(_ context.Context, key entity.ConversationKey) (*entity.ConversationParticipants, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[key.String()]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *memConversations) GetMany(_ context.Context, keys []entity.ConversationKey) (map[string]*entity.ConversationParticipants, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*entity.ConversationParticipants{}
	for _, k := range keys {
		if p, ok := r.records[k.String()]; ok {
			cp := *p
			out[k.String()] = &cp
		}
	}
	return out, nil
}

func (r *memConversations) SetParticipantName(_ context.Context, key entity.ConversationKey, buyerID, sellerID string, role entity.Role, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[key.String()]
	if !ok {
		p = &entity.ConversationParticipants{ID: key.DocID(), ProductID: key.ProductID, BuyerID: buyerID, SellerID: sellerID}
		r.records[key.String()] = p
	}
	if role == entity.RoleBuyer {
		p.BuyerName = name
	} else {
		p.SellerName = name
	}
	return nil
}

type memProducts struct {
	mu        sync.Mutex
	byID      map[string]*entity.Product
	statusErr error
	// failStatusOnce fails the next UpdateStatus call with a retryable error.
	failStatusOnce bool
	statusCalls    int
}

func newMemProducts(products ...*entity.Product) *memProducts {
	r := &memProducts{byID: map[string]*entity.Product{}}
	for _, p := range products {
		r.byID[p.ID] = p
	}
	return r
}

func (r *memProducts) Create(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *memProducts) List(_ context.Context, f entity.ProductFilter) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.byID {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.SellerID != "" && p.SellerID != f.SellerID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Latest > 0 && len(out) > f.Latest {
		out = out[:f.Latest]
	}
	return out, nil
}

func (r *memProducts) Update(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memProducts) UpdateStatus(_ context.Context, id string, u entity.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls++
	if r.failStatusOnce {
		r.failStatusOnce = false
		return errors.Internal("transient", nil)
	}
	if r.statusErr != nil {
		return r.statusErr
	}
	p, ok := r.byID[id]
	if !ok {
		return errors.NotFound("Product", nil)
	}
	if u.Status == entity.ProductStatusSold && p.Status == entity.ProductStatusSold && p.BuyerID != "" && p.BuyerID != u.BuyerID {
		return errors.Conflict("Product already sold to another buyer")
	}
	p.Status, p.BuyerID, p.SoldAt = u.Status, u.BuyerID, u.SoldAt
	return nil
}

func (r *memProducts) get(id string) entity.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byID[id]
}

type memReviews struct {
	mu        sync.Mutex
	byID      map[string]*entity.Review
	existsErr error
}

func newMemReviews() *memReviews { return &memReviews{byID: map[string]*entity.Review{}} }

func (r *memReviews) Create(_ context.Context, rev *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev.ID = entity.ReviewID(rev.ProductID, rev.ReviewerID)
	if _, ok := r.byID[rev.ID]; ok {
		return errors.Conflict("You have already reviewed this product")
	}
	cp := *rev
	r.byID[rev.ID] = &cp
	return nil
}

func (r *memReviews) Exists(_ context.Context, productID, reviewerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.byID[entity.ReviewID(productID, reviewerID)]
	return ok, nil
}

func (r *memReviews) ListBySeller(_ context.Context, sellerID string) ([]*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Review
	for _, rev := range r.byID {
		if rev.SellerID == sellerID {
			cp := *rev
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memUsers implements both UserRepository and ActivityStore.
type memUsers struct {
	mu       sync.Mutex
	byID     map[string]*entity.User
	touchErr error
}

func newMemUsers(users ...*entity.User) *memUsers {
	r := &memUsers{byID: map[string]*entity.User{}}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *memUsers) Upsert(_ context.Context, u *entity.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[u.ID]
	if !ok {
		cp := *u
		cp.CreatedAt = time.Now()
		r.byID[u.ID] = &cp
		return true, nil
	}
	existing.Email = u.Email
	if u.DisplayName != "" {
		existing.DisplayName = u.DisplayName
	}
	return false, nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memUsers) UpdateRating(_ context.Context, id string, rating entity.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		u = &entity.User{ID: id}
		r.byID[id] = u
	}
	u.Rating = rating
	return nil
}

func (r *memUsers) ListInactiveSince(_ context.Context, cutoff time.Time) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.byID {
		if !u.LastActive.IsZero() && u.LastActive.Before(cutoff) && !u.FollowUpAt.After(u.LastActive) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUsers) MarkFollowUpSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id].FollowUpAt = at
	return nil
}

func (r *memUsers) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touchErr != nil {
		return r.touchErr
	}
	u, ok := r.byID[id]
	if !ok {
		u = &entity.User{ID: id}
		r.byID[id] = u
	}
	u.LastActive = at
	return nil
}

func (r *memUsers) LastActive(_ context.Context, id string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u.LastActive, nil
	}
	return time.Time{}, nil
}

type notification struct {
	kind, to, name, detail string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) record(kind, to, name, detail string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind, to, name, detail})
	return nil
}

func (n *recordingNotifier) NotifyWelcome(_ context.Context, to, name string) error {
	return n.record("welcome", to, name, "")
}

func (n *recordingNotifier) NotifyNewMessage(_ context.Context, to, fromName, content, productTitle string) error {
	return n.record("new_message", to, fromName, content)
}

func (n *recordingNotifier) NotifySaleConfirmed(_ context.Context, to, name, sellerName, productTitle string) error {
	return n.record("sale_confirmed", to, name, productTitle)
}

func (n *recordingNotifier) NotifyFollowUp(_ context.Context, to, name string) error {
	return n.record("follow_up", to, name, "")
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[string][]string
}

func (p *recordingPusher) SendToUser(userID string, event ws.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = map[string][]string{}
	}
	p.pushed[userID] = append(p.pushed[userID], event.Type)
	return true
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
