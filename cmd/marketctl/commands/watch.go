package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"secondlife/internal/domain/entity"
	"secondlife/internal/printer"
	"secondlife/pkg/client"
)

var (
	watchURL      string
	watchToken    string
	watchUserID   string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow an inbox from the terminal",
	Long: `Poll the inbox of the signed-in user, print a line for every new message
from someone else and keep the user's presence fresh.

The token is a Firebase ID token; it can also be passed as SECONDLIFE_TOKEN.

Examples:
  marketctl watch --user uid-123 --token "$TOKEN"
  marketctl watch --url https://api.secondlife.example --interval 5s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://localhost:8080", "API base URL")
	watchCmd.Flags().StringVar(&watchToken, "token", "", "Firebase ID token (default $SECONDLIFE_TOKEN)")
	watchCmd.Flags().StringVar(&watchUserID, "user", "", "Your user id, used to skip your own messages")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Second, "Inbox poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	token := watchToken
	if token == "" {
		token = os.Getenv("SECONDLIFE_TOKEN")
	}
	if token == "" {
		return printer.Error("missing token", "watch needs a Firebase ID token", "pass --token or set SECONDLIFE_TOKEN")
	}
	if watchUserID == "" {
		return printer.Error("missing --user", "the user id is needed to tell your messages from others'")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(client.Config{BaseURL: watchURL, Token: client.StaticToken(token)})
	poller := client.NewPoller(api, client.NewDetector(watchUserID), client.PollerConfig{InboxEvery: watchInterval}, newToastPrinter())

	printer.Info("Watching %s every %s (Ctrl-C to stop)", watchURL, watchInterval)
	poller.Run(ctx)
	return nil
}

// newToastPrinter prints fresh messages and the unread total when it changes.
func newToastPrinter() func(client.Snapshot) {
	lastUnread := -1
	return func(s client.Snapshot) {
		for _, m := range s.Fresh {
			printer.Toast(senderName(m), m.ProductTitle, preview(m))
		}
		if s.Unread != lastUnread {
			printer.Info("%d unread message(s)", s.Unread)
			lastUnread = s.Unread
		}
	}
}

func senderName(m *entity.Message) string {
	if m.SenderID == m.BuyerID {
		return orPlaceholder(m.BuyerName, entity.BuyerPlaceholder)
	}
	return orPlaceholder(m.SellerName, entity.SellerPlaceholder)
}

func orPlaceholder(name, placeholder string) string {
	if name == "" {
		return placeholder
	}
	return name
}

func preview(m *entity.Message) string {
	switch m.Type {
	case entity.MessageTypeImage:
		return "[photo]"
	case entity.MessageTypePaymentRequest:
		return "[payment requested]"
	case entity.MessageTypePaymentConfirmed:
		return "[payment sent]"
	case entity.MessageTypeSaleConfirmed:
		return "[sale confirmed]"
	}
	return m.Content
}
