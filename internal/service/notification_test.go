package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"notifsync/internal/domain"
	"notifsync/internal/store/memory"
	"notifsync/internal/util"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StatusChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.StatusChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []domain.StatusChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.StatusChangeEvent(nil), p.events...)
}

func validRequest() domain.CreateRequest {
	return domain.CreateRequest{
		Channel:    domain.ChannelSMS,
		To:         "+15551234567",
		Body:       "hi",
		ExternalID: "abc123",
	}
}

func newService() (*NotificationService, *memory.Store, *recordingPublisher) {
	st := memory.New()
	pub := &recordingPublisher{}
	return &NotificationService{Store: st, Publisher: pub}, st, pub
}

func TestCreateSetsProcessingAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec, err := svc.Create(ctx, validRequest(), util.NewNotificationID(), now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != domain.StatusProcessing {
		t.Fatalf("expected processing, got %s", rec.Status)
	}
	if !strings.HasPrefix(rec.ID, "ntf_") {
		t.Fatalf("unexpected id %q", rec.ID)
	}
	if rec.Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %q", rec.Timestamp)
	}

	stored, err := st.FindByExternalID(ctx, "abc123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored != rec {
		t.Fatalf("stored record differs: %+v vs %+v", stored, rec)
	}

	events := pub.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].ExternalID != "abc123" || events[0].Status != domain.StatusProcessing {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestCreateGeneratesDistinctIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := util.NewNotificationID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestCreateInvalidPayloadPersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService()

	req := domain.CreateRequest{Channel: "email", To: "short", ExternalID: "ab"}
	_, err := svc.Create(ctx, req, util.NewNotificationID(), time.Now())
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 4 {
		t.Fatalf("expected 4 violations, got %v", ve.Fields)
	}
	if _, err := st.FindByExternalID(ctx, "ab"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("record should not have been persisted")
	}
	if len(pub.published()) != 0 {
		t.Fatalf("nothing should have been published")
	}
}

func TestCreateDuplicateExternalID(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, validRequest(), "ntf_2", time.Now())
	if !errors.Is(err, domain.ErrDuplicateExternalID) {
		t.Fatalf("expected ErrDuplicateExternalID, got %v", err)
	}
	if got := len(pub.published()); got != 1 {
		t.Fatalf("duplicate create must not publish, got %d events", got)
	}
}

func TestUpdateStatusUnknownExternalID(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.UpdateStatus(context.Background(), "unknown-id", "sent", "", domain.OriginDirect)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusInvalidStatusLeavesRecord(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService()

	rec, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, "abc123", "undelivered", "", domain.OriginDirect)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	stored, _ := st.FindByExternalID(ctx, "abc123")
	if stored != rec {
		t.Fatalf("record changed on invalid update: %+v", stored)
	}
}

func TestUpdateStatusPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, st, pub := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.UpdateStatus(ctx, "abc123", "delivered", "2026-01-02T04:00:00Z", domain.OriginDirect)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.ExternalID != "abc123" || res.Status != domain.StatusDelivered {
		t.Fatalf("unexpected result %+v", res)
	}

	stored, _ := st.FindByExternalID(ctx, "abc123")
	if stored.Status != domain.StatusDelivered || stored.Timestamp != "2026-01-02T04:00:00Z" {
		t.Fatalf("unexpected stored record %+v", stored)
	}

	events := pub.published()
	if len(events) != 2 {
		t.Fatalf("expected create + update events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Status != domain.StatusDelivered || last.Timestamp != stored.Timestamp {
		t.Fatalf("published event does not match stored record: %+v", last)
	}
}

func TestUpdateStatusDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := time.Now().UTC().Add(-time.Second)
	if _, err := svc.UpdateStatus(ctx, "abc123", "sent", "", domain.OriginDirect); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := st.FindByExternalID(ctx, "abc123")
	ts, err := time.Parse(time.RFC3339, stored.Timestamp)
	if err != nil {
		t.Fatalf("timestamp not RFC3339: %q", stored.Timestamp)
	}
	if ts.Before(before) {
		t.Fatalf("defaulted timestamp %v is stale", ts)
	}
}

func TestUpdateStatusFromBrokerSuppressesPublish(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "abc123", "viewed", "2026-01-02T04:00:00Z", domain.OriginBroker); err != nil {
		t.Fatalf("update: %v", err)
	}
	events := pub.published()
	if len(events) != 1 {
		t.Fatalf("broker-origin update must not republish, got %d events", len(events))
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := &NotificationService{Store: st, Publisher: &recordingPublisher{err: errors.New("broker down")}}

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "abc123", "sent", "", domain.OriginDirect); err != nil {
		t.Fatalf("update should succeed despite publish failure: %v", err)
	}
	stored, _ := st.FindByExternalID(ctx, "abc123")
	if stored.Status != domain.StatusSent {
		t.Fatalf("record not persisted: %+v", stored)
	}
}

func TestUpdateStatusReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.UpdateStatus(ctx, "abc123", "delivered", "2026-01-02T04:00:00Z", domain.OriginBroker); err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
	}
	stored, _ := st.FindByExternalID(ctx, "abc123")
	if stored.Status != domain.StatusDelivered || stored.Timestamp != "2026-01-02T04:00:00Z" {
		t.Fatalf("replay changed final state: %+v", stored)
	}
}

func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService()

	if _, err := svc.Create(ctx, validRequest(), "ntf_1", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for _, status := range []string{"sent", "viewed"} {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			if _, err := svc.UpdateStatus(ctx, "abc123", status, "", domain.OriginDirect); err != nil {
				t.Errorf("update %s: %v", status, err)
			}
		}(status)
	}
	wg.Wait()

	stored, _ := st.FindByExternalID(ctx, "abc123")
	if stored.Status != domain.StatusSent && stored.Status != domain.StatusViewed {
		t.Fatalf("final status must be one of the submitted values, got %s", stored.Status)
	}
}
