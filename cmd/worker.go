/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/newsroom-api/server/config"
	"github.com/newsroom-api/server/internal/db"
	"github.com/newsroom-api/server/internal/mail"
	"github.com/newsroom-api/server/internal/mq"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/store"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Delivers queued mail",
	Long: `Consumes the mail channel of the configured broker, sends each message
over SMTP and activates invited reporters once their credentials are out.

	MQ_BACKEND=rabbitmq newsroom worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.MQ.Backend == "" {
			return errors.New("worker needs MQ_BACKEND to be set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, database, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		defer func() {
			_ = queue.Close()
		}()

		sender, err := directSender(cfg)
		if err != nil {
			return err
		}
		if sender == nil {
			logger.Warn("SMTP_HOST is not set; queued mail is only logged")
			sender = mail.NewLogSender(logger)
		}

		users := services.NewUserService(store.NewUserRepository(database))
		worker := mail.NewWorker(queue, cfg.MQ.Channel, sender, users.ActivateHex, logger)
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mail worker: %w", err)
		}
		return nil
	},
}

// directSender returns nil without an SMTP host.
func directSender(cfg config.Config) (mail.Sender, error) {
	if cfg.SMTP.Host == "" {
		return nil, nil
	}
	sender, err := mail.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}
	return sender, nil
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
