package email

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"

	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPSender dials the relay per message. A circuit breaker stops hammering
// a relay that keeps failing.
type SMTPSender struct {
	cfg config.EmailConfig
	cb  *gobreaker.CircuitBreaker
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
			},
		}),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.send(ctx, to, subject, html)
	})
	return err
}

func (s *SMTPSender) send(ctx context.Context, to, subject, html string) error {
	m := mail.NewMsg()
	if err := m.FromFormat("SecondLife", s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)

	c, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}
