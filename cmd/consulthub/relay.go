package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	auditmetrics "consulthub/internal/audit/metrics"
	"consulthub/internal/audit/outbox/relay"
	outboxstore "consulthub/internal/audit/outbox/store"
	"consulthub/internal/platform/database"
	"consulthub/internal/platform/kafka/producer"
)

func newRelayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Publish audit outbox entries to Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Kafka.Brokers == "" {
				return fmt.Errorf("kafka.brokers is required for relay")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withPool(cmd, a, func(pool *database.Pool) error {
				kafka, err := producer.New(producer.Config{
					Brokers:         a.cfg.Kafka.Brokers,
					Acks:            a.cfg.Kafka.Acks,
					Retries:         a.cfg.Kafka.Retries,
					DeliveryTimeout: a.cfg.Kafka.DeliveryTimeout,
				}, a.logger)
				if err != nil {
					return fmt.Errorf("create kafka producer: %w", err)
				}
				defer kafka.Close() //nolint:errcheck // best-effort on exit
				if err := kafka.Healthy(ctx); err != nil {
					a.logger.Warn("kafka not reachable yet, relay will retry", "error", err)
				}

				r := relay.New(outboxstore.NewPostgres(pool.DB()), kafka,
					relay.WithTopic(a.cfg.Kafka.AuditTopic),
					relay.WithBatchSize(a.cfg.Relay.BatchSize),
					relay.WithPollInterval(a.cfg.Relay.PollInterval),
					relay.WithRetention(a.cfg.Relay.RetainProcessed),
					relay.WithMetrics(auditmetrics.NewRelay()),
					relay.WithLogger(a.logger),
				)
				a.logger.Info("audit relay started", "topic", a.cfg.Kafka.AuditTopic)
				return r.Run(ctx)
			})
		},
	}
}
