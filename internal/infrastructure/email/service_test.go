package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to, subject, html string
}

type recorder struct {
	sent []sent
	err  error
}

func (r *recorder) Send(_ context.Context, to, subject, html string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sent{to, subject, html})
	return nil
}

func TestService_NotifyNewMessage(t *testing.T) {
	rec := &recorder{}
	svc := NewService(rec, "https://secondlife.test")

	err := svc.NotifyNewMessage(context.Background(), "bob@test", "Alice", "<b>dispo ?</b>", "Vélo")
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	got := rec.sent[0]
	assert.Equal(t, "bob@test", got.to)
	assert.Equal(t, `Nouveau message de Alice concernant "Vélo"`, got.subject)
	assert.Contains(t, got.html, "https://secondlife.test/messages")
	assert.Contains(t, got.html, "&lt;b&gt;dispo ?&lt;/b&gt;")
}

func TestService_AllTemplatesRender(t *testing.T) {
	rec := &recorder{}
	svc := NewService(rec, "https://secondlife.test")
	ctx := context.Background()

	require.NoError(t, svc.NotifyWelcome(ctx, "a@test", "Ana"))
	require.NoError(t, svc.NotifySaleConfirmed(ctx, "a@test", "Ana", "Sam", "Lampe"))
	require.NoError(t, svc.NotifyFollowUp(ctx, "a@test", "Ana"))

	require.Len(t, rec.sent, 3)
	assert.Contains(t, rec.sent[1].html, "Sam a confirmé la vente")
}

func TestService_DisabledIsNoop(t *testing.T) {
	svc := NewService(nil, "")
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.NotifyWelcome(context.Background(), "a@test", "Ana"))
}

func TestService_SenderErrorSurfaces(t *testing.T) {
	svc := NewService(&recorder{err: errors.New("relay down")}, "")
	assert.Error(t, svc.NotifyFollowUp(context.Background(), "a@test", "Ana"))
}

func TestService_MissingRecipient(t *testing.T) {
	svc := NewService(&recorder{}, "")
	assert.Error(t, svc.NotifyWelcome(context.Background(), "", "Ana"))
}
