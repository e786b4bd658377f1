package service

import (
	"context"
	"log/slog"
	"time"

	"notifsync/internal/domain"
	"notifsync/internal/observability"
	"notifsync/internal/store"
	"notifsync/internal/util"
)

type Store interface {
	CreateNotification(ctx context.Context, n domain.Notification) error
	FindByExternalID(ctx context.Context, externalID string) (domain.Notification, error)
	UpdateStatus(ctx context.Context, in store.StatusUpdate) error
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.StatusChangeEvent) error
}

// NotificationService sequences validate -> persist -> transition -> publish
// for both creation and status updates. The webhook handler and the broker
// consumer terminate in the same UpdateStatus path.
type NotificationService struct {
	Store     Store
	Publisher Publisher
}

func (s *NotificationService) Create(ctx context.Context, req domain.CreateRequest, id string, now time.Time) (domain.Notification, error) {
	if err := req.Validate(); err != nil {
		return domain.Notification{}, err
	}

	rec := domain.Notification{
		ID:         id,
		ExternalID: req.ExternalID,
		Channel:    req.Channel,
		To:         req.To,
		Body:       req.Body,
		Status:     domain.StatusProcessing,
		Timestamp:  util.ISO8601(now),
	}
	if err := s.Store.CreateNotification(ctx, rec); err != nil {
		return domain.Notification{}, err
	}

	s.publish(ctx, domain.StatusChangeEvent{
		ExternalID: rec.ExternalID,
		Status:     rec.Status,
		Timestamp:  rec.Timestamp,
	})
	return rec, nil
}

// UpdateStatus applies a reported status change. timestamp may be empty, in
// which case the current time is used. Broker-sourced updates are not
// re-published (see domain.Origin).
func (s *NotificationService) UpdateStatus(ctx context.Context, externalID, status, timestamp string, origin domain.Origin) (domain.UpdateResult, error) {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return domain.UpdateResult{}, err
	}

	current, err := s.Store.FindByExternalID(ctx, externalID)
	if err != nil {
		return domain.UpdateResult{}, err
	}

	if timestamp == "" {
		timestamp = util.NowISO8601()
	}
	next, err := domain.ApplyTransition(current, domain.Transition{Status: parsed, Timestamp: timestamp})
	if err != nil {
		return domain.UpdateResult{}, err
	}

	if err := s.Store.UpdateStatus(ctx, store.StatusUpdate{
		ExternalID: externalID,
		Status:     string(next.Status),
		Timestamp:  next.Timestamp,
	}); err != nil {
		return domain.UpdateResult{}, err
	}
	observability.StatusUpdates.WithLabelValues(string(next.Status), string(origin)).Inc()

	if origin != domain.OriginBroker {
		s.publish(ctx, domain.StatusChangeEvent{
			ExternalID: externalID,
			Status:     next.Status,
			Timestamp:  next.Timestamp,
		})
	}
	return domain.UpdateResult{ExternalID: externalID, Status: next.Status}, nil
}

func (s *NotificationService) GetStatus(ctx context.Context, externalID string) (domain.Notification, error) {
	return s.Store.FindByExternalID(ctx, externalID)
}

// publish is fire-and-forget: the record is already durable, a lost
// announcement must not fail the request.
func (s *NotificationService) publish(ctx context.Context, ev domain.StatusChangeEvent) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		observability.Publishes.WithLabelValues("error").Inc()
		slog.Error("status event publish failed", "err", err, "external_id", ev.ExternalID, "status", ev.Status)
		return
	}
	observability.Publishes.WithLabelValues("ok").Inc()
}
