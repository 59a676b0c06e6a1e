package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"secondlife/internal/infrastructure/events"
	ws "secondlife/internal/infrastructure/websocket"
	"secondlife/pkg/errors"
)

// Notifier is the best-effort email side of the marketplace.
type Notifier interface {
	NotifyWelcome(ctx context.Context, to, name string) error
	NotifyNewMessage(ctx context.Context, to, fromName, content, productTitle string) error
	NotifySaleConfirmed(ctx context.Context, to, name, sellerName, productTitle string) error
	NotifyFollowUp(ctx context.Context, to, name string) error
}

// LivePusher delivers in-app events to open sockets.
type LivePusher interface {
	SendToUser(userID string, event ws.Event) bool
}

type runner func(func())

func goAsync(f func()) { go f() }

const backgroundTimeout = 15 * time.Second

// detached runs f on a context that outlives the request.
func detached(run runner, f func(ctx context.Context)) {
	run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		f(ctx)
	})
}

// retry runs op with exponential backoff. Client-side failures stop at once.
func retry(ctx context.Context, maxElapsed time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = maxElapsed

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

type nopPusher struct{}

func (nopPusher) SendToUser(string, ws.Event) bool { return false }

func orNopPublisher(p events.Publisher) events.Publisher {
	if p == nil {
		return events.NopPublisher{}
	}
	return p
}
