package ingest

import (
	"context"
	"errors"
	"shopReco/domain"
	"testing"
	"time"
)

type fakeEventRepo struct {
	saved []domain.Event
}

func (f *fakeEventRepo) Save(_ context.Context, event *domain.Event) error {
	f.saved = append(f.saved, *event)
	return nil
}

type fakeOrdersRepo struct {
	created []domain.Order
}

func (f *fakeOrdersRepo) Create(_ context.Context, order *domain.Order) error {
	f.created = append(f.created, *order)
	return nil
}

type fakeSessionRepo struct {
	records []string
	err     error
}

func (f *fakeSessionRepo) RecordView(_ context.Context, _, sessionID, productID string) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, sessionID+":"+productID)
	return nil
}

type fakeProfiles struct {
	rebuilt chan string
}

func (f *fakeProfiles) RebuildUserProfile(_ context.Context, _, userID string) error {
	f.rebuilt <- userID
	return nil
}

func TestIngestEventFillsDefaults(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewService(events, &fakeOrdersRepo{}, nil, nil)

	out, err := svc.IngestEvent(context.Background(), domain.Event{
		ShopID:    "shop-1",
		Kind:      domain.EventKindView,
		ProductID: "p1",
	})
	if err != nil {
		t.Fatalf("IngestEvent: %v", err)
	}

	if out.EventID == "" {
		t.Error("event id not generated")
	}
	if out.OccurredAt.IsZero() {
		t.Error("occurred_at not defaulted")
	}
	if len(events.saved) != 1 || events.saved[0].EventID != out.EventID {
		t.Errorf("saved events = %+v", events.saved)
	}
}

func TestIngestEventValidation(t *testing.T) {
	svc := NewService(&fakeEventRepo{}, &fakeOrdersRepo{}, nil, nil)

	_, err := svc.IngestEvent(context.Background(), domain.Event{Kind: domain.EventKindView})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("missing shop: err = %v, want ErrInvalidRequest", err)
	}

	_, err = svc.IngestEvent(context.Background(), domain.Event{ShopID: "shop-1", Kind: "CLICKED"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("unknown kind: err = %v, want ErrInvalidRequest", err)
	}
}

func TestIngestViewTracksSession(t *testing.T) {
	sessions := &fakeSessionRepo{}
	svc := NewService(&fakeEventRepo{}, &fakeOrdersRepo{}, sessions, nil)

	_, err := svc.IngestEvent(context.Background(), domain.Event{
		ShopID:    "shop-1",
		Kind:      domain.EventKindView,
		ProductID: "p1",
		SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("IngestEvent: %v", err)
	}
	if len(sessions.records) != 1 || sessions.records[0] != "s1:p1" {
		t.Errorf("session records = %v, want [s1:p1]", sessions.records)
	}

	// cart events never reach the session tracker
	_, err = svc.IngestEvent(context.Background(), domain.Event{
		ShopID:    "shop-1",
		Kind:      domain.EventKindCartAdd,
		ProductID: "p2",
		SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("IngestEvent: %v", err)
	}
	if len(sessions.records) != 1 {
		t.Errorf("session records = %v after cart event", sessions.records)
	}
}

func TestIngestViewSurvivesTrackerFailure(t *testing.T) {
	events := &fakeEventRepo{}
	sessions := &fakeSessionRepo{err: errors.New("redis down")}
	svc := NewService(events, &fakeOrdersRepo{}, sessions, nil)

	_, err := svc.IngestEvent(context.Background(), domain.Event{
		ShopID:    "shop-1",
		Kind:      domain.EventKindView,
		ProductID: "p1",
		SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("IngestEvent: %v", err)
	}
	if len(events.saved) != 1 {
		t.Errorf("event not saved when tracker failed")
	}
}

func TestIngestOrderValidation(t *testing.T) {
	svc := NewService(&fakeEventRepo{}, &fakeOrdersRepo{}, nil, nil)

	err := svc.IngestOrder(context.Background(), domain.Order{OrderID: "o1"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("missing shop: err = %v, want ErrInvalidRequest", err)
	}

	err = svc.IngestOrder(context.Background(), domain.Order{ShopID: "shop-1", OrderID: "o1"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("no items: err = %v, want ErrInvalidRequest", err)
	}
}

func TestIngestOrderTriggersProfileRebuild(t *testing.T) {
	orders := &fakeOrdersRepo{}
	profiles := &fakeProfiles{rebuilt: make(chan string, 1)}
	svc := NewService(&fakeEventRepo{}, orders, nil, profiles)

	err := svc.IngestOrder(context.Background(), domain.Order{
		ShopID:  "shop-1",
		OrderID: "o1",
		UserID:  "u1",
		Items:   []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("IngestOrder: %v", err)
	}

	if len(orders.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(orders.created))
	}
	if orders.created[0].CompletedAt.IsZero() {
		t.Error("completed_at not defaulted")
	}

	select {
	case user := <-profiles.rebuilt:
		if user != "u1" {
			t.Errorf("rebuilt profile for %s, want u1", user)
		}
	case <-time.After(time.Second):
		t.Fatal("profile rebuild never started")
	}
}
