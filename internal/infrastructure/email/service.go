package email

import (
	"context"
	"fmt"

	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

// Service renders the marketplace emails and hands them to a Sender.
// With a nil Sender every call is a logged no-op.
type Service struct {
	sender Sender
	appURL string
}

func NewService(sender Sender, appURL string) *Service {
	return &Service{sender: sender, appURL: appURL}
}

// NewServiceFromConfig uses SMTP when credentials are configured and logs
// every email otherwise.
func NewServiceFromConfig(cfg config.EmailConfig, appURL string) *Service {
	var sender Sender
	if cfg.Enabled() {
		sender = NewSMTPSender(cfg)
	}
	return NewService(sender, appURL)
}

func (s *Service) Enabled() bool { return s.sender != nil }

func (s *Service) send(ctx context.Context, to, subject, tmpl string, data templateData) error {
	if s.sender == nil {
		logger.Info("Email skipped (no SMTP credentials): %q to %s", subject, to)
		return nil
	}
	if to == "" {
		return fmt.Errorf("no recipient address for %q", subject)
	}

	data.AppURL = s.appURL
	html, err := render(tmpl, data)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, to, subject, html); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	logger.Info("Email sent: %q to %s", subject, to)
	return nil
}

func (s *Service) NotifyWelcome(ctx context.Context, to, name string) error {
	return s.send(ctx, to, "Bienvenue sur SecondLife !", "welcome", templateData{Name: name})
}

func (s *Service) NotifyNewMessage(ctx context.Context, to, fromName, content, productTitle string) error {
	subject := fmt.Sprintf("Nouveau message de %s concernant %q", fromName, productTitle)
	return s.send(ctx, to, subject, "new_message", templateData{
		FromName:     fromName,
		Content:      content,
		ProductTitle: productTitle,
	})
}

func (s *Service) NotifySaleConfirmed(ctx context.Context, to, name, sellerName, productTitle string) error {
	subject := fmt.Sprintf("Vente confirmée : %s", productTitle)
	return s.send(ctx, to, subject, "sale_confirmed", templateData{
		Name:         name,
		SellerName:   sellerName,
		ProductTitle: productTitle,
	})
}

func (s *Service) NotifyFollowUp(ctx context.Context, to, name string) error {
	return s.send(ctx, to, "Vous nous manquez sur SecondLife", "follow_up", templateData{Name: name})
}
