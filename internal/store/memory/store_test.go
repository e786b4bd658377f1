package memory

import (
	"context"
	"errors"
	"testing"

	"notifsync/internal/domain"
	"notifsync/internal/store"
)

func TestCreateRejectsDuplicateExternalID(t *testing.T) {
	ctx := context.Background()
	s := New()

	n := domain.Notification{ID: "ntf_1", ExternalID: "abc123", Status: domain.StatusProcessing}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.CreateNotification(ctx, domain.Notification{ID: "ntf_2", ExternalID: "abc123"})
	if !errors.Is(err, domain.ErrDuplicateExternalID) {
		t.Fatalf("expected ErrDuplicateExternalID, got %v", err)
	}
}

func TestUpdateStatusOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpdateStatus(ctx, store.StatusUpdate{ExternalID: "missing", Status: "sent"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n := domain.Notification{ID: "ntf_1", ExternalID: "abc123", Status: domain.StatusProcessing, Timestamp: "t0"}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateStatus(ctx, store.StatusUpdate{ExternalID: "abc123", Status: "delivered", Timestamp: "t1"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.FindByExternalID(ctx, "abc123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != domain.StatusDelivered || got.Timestamp != "t1" {
		t.Fatalf("unexpected record after update: %+v", got)
	}
}
