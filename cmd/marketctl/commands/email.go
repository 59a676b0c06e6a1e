package commands

import (
	"github.com/spf13/cobra"

	"secondlife/internal/infrastructure/email"
	"secondlife/internal/printer"
	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Check outgoing email",
}

var emailTestCmd = &cobra.Command{
	Use:   "test <to>",
	Short: "Send the welcome template to an address through the configured SMTP server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return printer.Error("invalid configuration", err.Error())
		}
		logger.Init(cfg.Environment)
		defer logger.Sync()

		svc := email.NewServiceFromConfig(cfg.Email, cfg.AppURL)
		if !svc.Enabled() {
			return printer.Error("SMTP is not configured", "EMAIL_USER and EMAIL_PASS are empty",
				"set them in the environment or under email: in "+configPath)
		}
		if err := svc.NotifyWelcome(cmd.Context(), args[0], "SecondLife"); err != nil {
			return printer.Error("sending failed", err.Error(), "check EMAIL_HOST and EMAIL_PORT")
		}
		printer.Success("test email sent to %s via %s", args[0], cfg.Email.Host)
		return nil
	},
}

func init() {
	emailCmd.AddCommand(emailTestCmd)
	rootCmd.AddCommand(emailCmd)
}
