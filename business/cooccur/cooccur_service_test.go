package cooccur

import (
	"context"
	"errors"
	"fmt"
	"shopReco/domain"
	"testing"
	"time"
)

type fakeOrdersRepo struct {
	orders []domain.Order
}

func (f *fakeOrdersRepo) FindCompletedSince(_ context.Context, _ string, _ time.Time) ([]domain.Order, error) {
	return f.orders, nil
}

type fakeRecoRepo struct {
	upserts  []domain.ProductRecommendation
	failFor  map[string]bool
	pruned   int
	pruneCut time.Time
}

func (f *fakeRecoRepo) Upsert(_ context.Context, rec domain.ProductRecommendation) error {
	key := rec.SourceProductID + "|" + rec.RecommendedProductID
	if f.failFor[key] {
		return errors.New("upsert failed")
	}
	f.upserts = append(f.upserts, rec)
	return nil
}

func (f *fakeRecoRepo) DeleteStaleByType(_ context.Context, _, _ string, before time.Time) error {
	f.pruned++
	f.pruneCut = before
	return nil
}

func order(id string, productIDs ...string) domain.Order {
	items := make([]domain.OrderItem, 0, len(productIDs))
	for _, pid := range productIDs {
		items = append(items, domain.OrderItem{ProductID: pid, Quantity: 1})
	}
	return domain.Order{
		ShopID:      "shop-1",
		OrderID:     id,
		CompletedAt: time.Now(),
		Items:       items,
	}
}

func edgesFor(recs []domain.ProductRecommendation, source string) []domain.ProductRecommendation {
	var out []domain.ProductRecommendation
	for _, r := range recs {
		if r.SourceProductID == source {
			out = append(out, r)
		}
	}
	return out
}

func TestRebuildProducesSymmetricUnitEdges(t *testing.T) {
	orders := &fakeOrdersRepo{orders: []domain.Order{order("o1", "A", "B", "C")}}
	recos := &fakeRecoRepo{}

	svc := NewService(orders, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	// three unordered pairs, both directions
	if len(recos.upserts) != 6 {
		t.Fatalf("upserts = %d, want 6", len(recos.upserts))
	}

	for _, r := range recos.upserts {
		if r.SourceProductID == r.RecommendedProductID {
			t.Errorf("self edge persisted: %s", r.SourceProductID)
		}
		if r.Score != 1 {
			t.Errorf("edge %s->%s score = %v, want 1", r.SourceProductID, r.RecommendedProductID, r.Score)
		}
		if r.RecommendationType != domain.RecommendationBoughtWith {
			t.Errorf("edge type = %s", r.RecommendationType)
		}
	}

	for _, src := range []string{"A", "B", "C"} {
		if got := len(edgesFor(recos.upserts, src)); got != 2 {
			t.Errorf("source %s has %d edges, want 2", src, got)
		}
	}
}

func TestRebuildIgnoresQuantityAndBreaksTiesByFirstSeen(t *testing.T) {
	orders := &fakeOrdersRepo{orders: []domain.Order{
		{
			ShopID: "shop-1", OrderID: "o1", CompletedAt: time.Now(),
			Items: []domain.OrderItem{
				{ProductID: "A", Quantity: 2},
				{ProductID: "B", Quantity: 1},
			},
		},
		order("o2", "A", "C"),
	}}
	recos := &fakeRecoRepo{}

	svc := NewService(orders, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	aEdges := edgesFor(recos.upserts, "A")
	if len(aEdges) != 2 {
		t.Fatalf("A has %d edges, want 2", len(aEdges))
	}

	// both count 1 despite A's quantity of 2 in o1; B seen first wins the tie
	if aEdges[0].RecommendedProductID != "B" || aEdges[1].RecommendedProductID != "C" {
		t.Errorf("A neighbors = [%s %s], want [B C]", aEdges[0].RecommendedProductID, aEdges[1].RecommendedProductID)
	}
	if aEdges[0].Score != 1 || aEdges[1].Score != 1 {
		t.Errorf("A neighbor scores = [%v %v], want [1 1]", aEdges[0].Score, aEdges[1].Score)
	}
}

func TestRebuildSkipsSingleItemOrders(t *testing.T) {
	orders := &fakeOrdersRepo{orders: []domain.Order{
		order("o1", "A"),
		// duplicate line items of one product are still a single-item order
		order("o2", "B", "B"),
	}}
	recos := &fakeRecoRepo{}

	svc := NewService(orders, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	if len(recos.upserts) != 0 {
		t.Errorf("upserts = %d, want 0", len(recos.upserts))
	}
}

func TestRebuildKeepsTopTenNeighbors(t *testing.T) {
	var os []domain.Order
	// B01..B12 each co-occur with A, with increasing frequency
	for i := 1; i <= 12; i++ {
		neighbor := fmt.Sprintf("B%02d", i)
		for n := 0; n < i; n++ {
			os = append(os, order(fmt.Sprintf("o-%s-%d", neighbor, n), "A", neighbor))
		}
	}

	recos := &fakeRecoRepo{}
	svc := NewService(&fakeOrdersRepo{orders: os}, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	aEdges := edgesFor(recos.upserts, "A")
	if len(aEdges) != 10 {
		t.Fatalf("A has %d edges, want 10", len(aEdges))
	}

	kept := make(map[string]bool, len(aEdges))
	for _, e := range aEdges {
		kept[e.RecommendedProductID] = true
	}
	if kept["B01"] || kept["B02"] {
		t.Errorf("lowest-count neighbors should have been dropped: %v", kept)
	}
	if !kept["B12"] || !kept["B03"] {
		t.Errorf("high-count neighbors missing: %v", kept)
	}
}

func TestRebuildPrunesStaleEdgesOnCleanRun(t *testing.T) {
	started := time.Now()
	recos := &fakeRecoRepo{}
	svc := NewService(&fakeOrdersRepo{orders: []domain.Order{order("o1", "A", "B")}}, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	if recos.pruned != 1 {
		t.Fatalf("prune calls = %d, want 1", recos.pruned)
	}
	if recos.pruneCut.Before(started) {
		t.Errorf("prune cutoff %v predates rebuild start %v", recos.pruneCut, started)
	}
}

func TestRebuildSkipsPruneWhenUpsertsFail(t *testing.T) {
	recos := &fakeRecoRepo{failFor: map[string]bool{"A|B": true}}
	svc := NewService(&fakeOrdersRepo{orders: []domain.Order{order("o1", "A", "B")}}, recos)

	if err := svc.RebuildCoOccurrence(context.Background(), "shop-1", 90); err != nil {
		t.Fatalf("RebuildCoOccurrence: %v", err)
	}

	if recos.pruned != 0 {
		t.Errorf("prune calls = %d, want 0 after upsert failures", recos.pruned)
	}
}
