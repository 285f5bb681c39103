package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/internal/queue"
	"github.com/OFFIS-RIT/citegraph/internal/setup"
	"github.com/OFFIS-RIT/citegraph/internal/storage"
	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/ai"
	"github.com/OFFIS-RIT/citegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	"github.com/OFFIS-RIT/citegraph/pkg/logger/console"
	"github.com/OFFIS-RIT/citegraph/pkg/report"
	pgstore "github.com/OFFIS-RIT/citegraph/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	auditor, err := setup.NewAuditor(ctx)
	if err != nil {
		logger.Fatal("Could not create auditor", "err", err)
	}

	var aiClient ai.Client
	var advisor *ai.Advisor
	if aiClient, err = setup.NewAIClient(); err != nil {
		logger.Warn("AI advisor disabled", "err", err)
		aiClient = nil
	} else if advisor, err = setup.NewAdvisor(aiClient, auditor.Classifier()); err != nil {
		logger.Fatal("Could not create AI advisor", "err", err)
	}

	// Init pgx client
	dbURL := util.GetEnv("DATABASE_URL")
	if err := pgstore.Migrate(dbURL, util.GetEnv("MIGRATIONS_PATH")); err != nil {
		logger.Fatal("Unable to migrate database", "err", err)
	}
	pgConn, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	service, err := audit.NewService(audit.NewServiceParams{
		Auditor:  auditor,
		Advisor:  advisor,
		Store:    pgstore.NewAuditDBStore(pgConn),
		Locker:   leaselock.New(pgConn),
		BaseURL:  setup.SourceBaseURL(auditor.Classifier()),
		LeaseTTL: time.Duration(util.GetEnvInt("AUDIT_LEASE_SECONDS", 300)) * time.Second,
	})
	if err != nil {
		logger.Fatal("Could not create audit service", "err", err)
	}

	// Init rabbitmq
	conn, err := queue.Init(ctx)
	if err != nil {
		logger.Fatal("Could not connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.AuditQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	params := queue.NewProcessorParams{Service: service, Publisher: ch}
	if s3cfg := storage.LoadConfig(); s3cfg.Enabled() {
		s3Client, err := storage.NewS3Client(ctx, s3cfg)
		if err != nil {
			logger.Fatal("Could not create S3 client", "err", err)
		}
		params.Reports = report.NewWriter(report.S3Sink{Client: s3Client, Bucket: s3cfg.Bucket, Prefix: s3cfg.ReportPrefix})
		params.Links = func(ctx context.Context, keys []string) ([]string, error) {
			return storage.DownloadLinks(ctx, s3Client, s3cfg, keys)
		}
	} else if dir := util.GetEnv("REPORT_DIR"); dir != "" {
		params.Reports = report.NewWriter(report.DirSink{Dir: dir})
	}
	if params.Format, err = report.ParseFormat(util.GetEnv("REPORT_FORMAT")); err != nil {
		logger.Fatal("Invalid REPORT_FORMAT", "err", err)
	}

	processor, err := queue.NewProcessor(params)
	if err != nil {
		logger.Fatal("Could not create processor", "err", err)
	}

	// A single consumer with prefetch=1 handles one audit at a time
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AuditQueue,
		queue.AuditQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AuditQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.AuditQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.AuditQueue)
				return
			}
			startTime := time.Now()
			logger.Info("Received message", "queue", queue.AuditQueue)

			if err := processor.ProcessAuditMessage(ctx, msg.Body); err != nil {
				logger.Error("Error processing message", "queue", queue.AuditQueue, "err", err)
				queue.HandleProcessingError(consumerCh, msg, queue.AuditQueue, err)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.AuditQueue)
			}

			if aiClient != nil {
				metrics := aiClient.GetMetrics()
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
				)
				aiClient.ResetMetrics()
			}
			logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
		}
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
