/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tunebox/apiserver/config"
	"github.com/tunebox/apiserver/internal/logging"
	"github.com/tunebox/apiserver/internal/mq"
	"github.com/tunebox/apiserver/internal/sms"
)

// smsWorkerCmd represents the sms-worker command
var smsWorkerCmd = &cobra.Command{
	Use:   "sms-worker",
	Short: "Drains the SMS dispatch queue",
	Long: `Consumes queued SMS jobs and delivers them through the gateway. Usage:

	tunebox sms-worker
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		logger := logging.New("sms-worker")

		broker, err := newWorkerBroker(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		defer broker.Close()

		gateway := sms.NewGatewayClient(cfg.SMS)

		logger.Info("worker started", slog.String("queue", cfg.MQ.SMSQueue))
		err = broker.Subscribe(cmd.Context(), cfg.MQ.SMSQueue, func(ctx context.Context, msg mq.Message) error {
			job, err := sms.DecodeMessage(msg.Data)
			if err != nil {
				// Drop unparseable payloads instead of requeueing forever.
				logger.Error("discarding malformed job", slog.String("id", msg.ID), slog.Any("error", err))
				return nil
			}
			if err := gateway.Send(ctx, job); err != nil {
				logger.Error("delivery failed", slog.String("phone", job.Phone), slog.Any("error", err))
				return err
			}
			logger.Info("sms delivered", slog.String("phone", job.Phone))
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(smsWorkerCmd)
}

func newWorkerBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(cfg.MQ.Backend) {
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	}
}
