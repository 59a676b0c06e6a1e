package client

import (
	"context"
	"time"

	"secondlife/internal/domain/entity"
	"secondlife/pkg/logger"
)

// Snapshot is what one inbox poll produced.
type Snapshot struct {
	Conversations []*entity.Conversation
	Unread        int
	Fresh         []*entity.Message
}

type PollerConfig struct {
	InboxEvery     time.Duration
	HeartbeatEvery time.Duration
}

// Poller drives the inbox refresh and the presence heartbeat.
type Poller struct {
	client   *Client
	detector *Detector
	conf     PollerConfig
	onPoll   func(Snapshot)
}

func NewPoller(c *Client, d *Detector, conf PollerConfig, onPoll func(Snapshot)) *Poller {
	if conf.InboxEvery <= 0 {
		conf.InboxEvery = 10 * time.Second
	}
	if conf.HeartbeatEvery <= 0 {
		conf.HeartbeatEvery = 30 * time.Second
	}
	return &Poller{client: c, detector: d, conf: conf, onPoll: onPoll}
}

// Run blocks until ctx is done. Both loops fire once immediately.
func (p *Poller) Run(ctx context.Context) {
	inbox := time.NewTicker(p.conf.InboxEvery)
	defer inbox.Stop()
	heartbeat := time.NewTicker(p.conf.HeartbeatEvery)
	defer heartbeat.Stop()

	p.heartbeat(ctx)
	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-inbox.C:
			p.poll(ctx)
		case <-heartbeat.C:
			p.heartbeat(ctx)
		}
	}
}

func (p *Poller) heartbeat(ctx context.Context) {
	if err := p.client.TouchActivity(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("presence heartbeat failed: %v", err)
	}
}

func (p *Poller) poll(ctx context.Context) {
	snap, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("inbox poll failed: %v", err)
		}
		return
	}
	if p.onPoll != nil {
		p.onPoll(snap)
	}
}

// Poll fetches the inbox once. With a detector it also fetches the flat
// message list, so every message sent since the last poll is seen and not
// only the latest of each conversation.
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	rows, err := p.client.Inbox(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Conversations: rows}
	for _, row := range rows {
		snap.Unread += row.UnreadCount
	}
	if p.detector != nil {
		messages, err := p.client.Messages(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Fresh = p.detector.Observe(messages)
	}
	return snap, nil
}
