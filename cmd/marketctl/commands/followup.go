package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"secondlife/internal/printer"
)

var followupDays int

var followupCmd = &cobra.Command{
	Use:   "followup",
	Short: "Re-engagement emails for inactive users",
}

var followupSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Email every user inactive for --days who was not reminded since",
	Long: `Send the follow-up email to users whose last activity is older than
--days. A user is reminded at most once per absence: the reminder date is
stored and compared with the next heartbeat.

Typically scheduled once a day:
  marketctl followup send --days 14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if followupDays < 1 {
			return printer.Error("invalid --days", fmt.Sprintf("got %d", followupDays), "use a value of 1 or more")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		if !b.notifier.Enabled() {
			printer.Warning("SMTP is not configured, emails are only logged")
		}
		sent, err := b.users.SendFollowUps(ctx, time.Duration(followupDays)*24*time.Hour)
		if err != nil {
			return printer.Error("follow-up run failed", err.Error())
		}
		printer.Success("%d follow-up email(s) sent", sent)
		return nil
	},
}

func init() {
	followupSendCmd.Flags().IntVar(&followupDays, "days", 14, "Inactivity in days before a user is reminded")
	followupCmd.AddCommand(followupSendCmd)
	rootCmd.AddCommand(followupCmd)
}
