package popularity

import (
	"context"
	"errors"
	"shopReco/domain"
	"testing"
	"time"
)

type fakeProductRepo struct {
	products []domain.ProductMetadata
	scores   map[string]float64
	failSet  map[string]bool
}

func (f *fakeProductRepo) ListByShop(_ context.Context, _ string) ([]domain.ProductMetadata, error) {
	return f.products, nil
}

func (f *fakeProductRepo) UpdatePopularity(_ context.Context, _, productID string, popularity float64) error {
	if f.failSet[productID] {
		return errors.New("write failed")
	}
	if f.scores == nil {
		f.scores = make(map[string]float64)
	}
	f.scores[productID] = popularity
	return nil
}

type fakeEventRepo struct {
	views   map[string]int64
	failFor map[string]bool
}

func (f *fakeEventRepo) CountViews(_ context.Context, _, productID string, _ time.Time) (int64, error) {
	if f.failFor[productID] {
		return 0, errors.New("events unavailable")
	}
	return f.views[productID], nil
}

type fakeOrdersRepo struct {
	purchases map[string]int64
}

func (f *fakeOrdersRepo) CountPurchases(_ context.Context, _, productID string, _ time.Time) (int64, error) {
	return f.purchases[productID], nil
}

func metadata(ids ...string) []domain.ProductMetadata {
	out := make([]domain.ProductMetadata, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.ProductMetadata{ShopID: "shop-1", ProductID: id})
	}
	return out
}

func TestRecomputePopularityScoresViewsAndPurchases(t *testing.T) {
	products := &fakeProductRepo{products: metadata("p1", "p2")}
	events := &fakeEventRepo{views: map[string]int64{"p1": 7, "p2": 3}}
	orders := &fakeOrdersRepo{purchases: map[string]int64{"p1": 2}}

	svc := NewService(products, events, orders)

	if err := svc.RecomputePopularity(context.Background(), "shop-1", 30); err != nil {
		t.Fatalf("RecomputePopularity: %v", err)
	}

	if got := products.scores["p1"]; got != 27 {
		t.Errorf("p1 score = %v, want 27 (7 views + 2*10 purchases)", got)
	}
	if got := products.scores["p2"]; got != 3 {
		t.Errorf("p2 score = %v, want 3", got)
	}
}

func TestRecomputePopularityIsIdempotent(t *testing.T) {
	products := &fakeProductRepo{products: metadata("p1", "p2", "p3")}
	events := &fakeEventRepo{views: map[string]int64{"p1": 5, "p2": 1}}
	orders := &fakeOrdersRepo{purchases: map[string]int64{"p3": 4}}

	svc := NewService(products, events, orders)

	if err := svc.RecomputePopularity(context.Background(), "shop-1", 30); err != nil {
		t.Fatalf("first run: %v", err)
	}

	first := make(map[string]float64, len(products.scores))
	for k, v := range products.scores {
		first[k] = v
	}

	if err := svc.RecomputePopularity(context.Background(), "shop-1", 30); err != nil {
		t.Fatalf("second run: %v", err)
	}

	for id, want := range first {
		if got := products.scores[id]; got != want {
			t.Errorf("%s score changed between runs: %v -> %v", id, want, got)
		}
	}
}

func TestRecomputePopularityIsolatesProductFailures(t *testing.T) {
	products := &fakeProductRepo{products: metadata("p1", "p2", "p3")}
	events := &fakeEventRepo{
		views:   map[string]int64{"p1": 1, "p3": 2},
		failFor: map[string]bool{"p2": true},
	}
	orders := &fakeOrdersRepo{}

	svc := NewService(products, events, orders)

	if err := svc.RecomputePopularity(context.Background(), "shop-1", 30); err != nil {
		t.Fatalf("RecomputePopularity: %v", err)
	}

	if _, ok := products.scores["p2"]; ok {
		t.Error("p2 should have been skipped")
	}
	if products.scores["p1"] != 1 || products.scores["p3"] != 2 {
		t.Errorf("surviving products not scored: %v", products.scores)
	}
}

func TestRecomputePopularityRequiresShop(t *testing.T) {
	svc := NewService(&fakeProductRepo{}, &fakeEventRepo{}, &fakeOrdersRepo{})

	err := svc.RecomputePopularity(context.Background(), "", 30)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}
