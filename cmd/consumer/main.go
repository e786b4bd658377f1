package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notifsync/internal/awsutil"
	"notifsync/internal/config"
	"notifsync/internal/domain"
	"notifsync/internal/httpserver"
	"notifsync/internal/logging"
	"notifsync/internal/observability"
	sqsqueue "notifsync/internal/queue/sqs"
	"notifsync/internal/service"
	"notifsync/internal/store/pg"
)

func main() {
	cfg := config.LoadConsumer()
	logging.Init("consumer", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())

	db, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{
		MaxConns:          cfg.DBPoolMaxConns,
		MinConns:          cfg.DBPoolMinConns,
		MaxConnLifetime:   cfg.DBPoolMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBPoolMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBPoolHealthCheckPeriod,
	})
	if err != nil {
		slog.Error("consumer db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
	if err != nil {
		slog.Error("consumer sqs client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	// No publisher here: broker-sourced updates are never re-announced, and
	// this binary has no direct update path.
	svc := &service.NotificationService{Store: pg.New(db)}

	consumer := &sqsqueue.Consumer{
		SQS:               sqsClient,
		QueueURL:          cfg.StatusEventsInURL,
		WaitTimeSeconds:   cfg.SQSWaitTime,
		MaxMessages:       cfg.SQSMaxMsgs,
		VisibilityTimeout: cfg.SQSVizTimeout,
	}

	healthMux := httpserver.New().Mux
	healthMux.Use(httpserver.Logging)
	healthMux.HandleFunc("/healthz", httpserver.Healthz()).Methods(http.MethodGet)
	healthMux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second,
		func(c context.Context) error { return db.Ping(c) },
		func(c context.Context) error {
			_, err := sqsClient.GetQueueAttributes(c, &sqs.GetQueueAttributesInput{
				QueueUrl:       &cfg.StatusEventsInURL,
				AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
			})
			return err
		},
	)).Methods(http.MethodGet)

	healthSrv := &http.Server{Addr: ":" + cfg.Port, Handler: healthMux}
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: promhttp.Handler()}

	healthErrCh := make(chan error, 1)
	go func() {
		slog.Info("consumer health listening", "port", cfg.Port)
		healthErrCh <- healthSrv.ListenAndServe()
	}()
	metricsErrCh := make(chan error, 1)
	go func() {
		slog.Info("consumer metrics listening", "port", cfg.MetricsPort)
		metricsErrCh <- metricsSrv.ListenAndServe()
	}()

	pollErrCh := make(chan error, 1)
	go func() {
		slog.Info("consumer starting poll", "queue_url", cfg.StatusEventsInURL)
		pollErrCh <- consumer.PollConcurrent(ctx, cfg.ConsumerConcurrency, func(ctx context.Context, ev domain.StatusChangeEvent) error {
			return applyStatusEvent(svc, ev)
		})
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-pollErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("consumer poll failed", "err", err)
			os.Exit(1)
		}
	case err := <-healthErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("consumer health server failed", "err", err)
			os.Exit(1)
		}
	case err := <-metricsErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("consumer metrics server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("consumer shutdown", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	select {
	case <-pollErrCh:
	case <-time.After(10 * time.Second):
		slog.Info("consumer shutdown timeout waiting for poll loop")
	}
}

// applyStatusEvent feeds a consumed event through the same update path the
// webhook uses, tagged with the broker origin so it is not re-published.
// Records not yet visible locally cause a handler error so SQS redrives the
// event later; malformed statuses are dropped for good.
func applyStatusEvent(svc *service.NotificationService, ev domain.StatusChangeEvent) error {
	// Bound DB work even when the poll context is shutting down.
	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := svc.UpdateStatus(dbCtx, ev.ExternalID, string(ev.Status), ev.Timestamp, domain.OriginBroker)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			observability.ConsumedEvents.WithLabelValues("invalid").Inc()
			slog.Error("dropping invalid status event", "err", err, "external_id", ev.ExternalID, "status", ev.Status)
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			observability.ConsumedEvents.WithLabelValues("not_found").Inc()
			return err
		}
		observability.ConsumedEvents.WithLabelValues("error").Inc()
		return err
	}
	observability.ConsumedEvents.WithLabelValues("ok").Inc()
	return nil
}
