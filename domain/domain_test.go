package domain

import (
	"testing"

	"gorm.io/datatypes"
)

func TestValidEventKind(t *testing.T) {
	for _, kind := range []string{EventKindView, EventKindCartAdd, EventKindCartRemove, EventKindCartUpdate, EventKindOrderPlaced} {
		if !ValidEventKind(kind) {
			t.Errorf("ValidEventKind(%q) = false", kind)
		}
	}
	if ValidEventKind("CLICKED") || ValidEventKind("") {
		t.Error("unknown kinds accepted")
	}
}

func TestValidRecommendationType(t *testing.T) {
	for _, rt := range []string{RecommendationSimilar, RecommendationPersonalized, RecommendationBoughtWith} {
		if !ValidRecommendationType(rt) {
			t.Errorf("ValidRecommendationType(%q) = false", rt)
		}
	}
	if ValidRecommendationType("TRENDING") {
		t.Error("unknown type accepted")
	}
}

func TestDistinctProductIDs(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 2},
		{ProductID: "a", Quantity: 1},
		{ProductID: "", Quantity: 1},
	}}

	ids := order.DistinctProductIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("DistinctProductIDs() = %v, want [a b]", ids)
	}
}

func TestProductMetadataMembership(t *testing.T) {
	p := ProductMetadata{
		Collections: datatypes.NewJSONSlice([]string{"kitchen", "sale"}),
		Tags:        datatypes.NewJSONSlice([]string{"ceramic"}),
	}

	if !p.HasCollection("sale") || p.HasCollection("garden") {
		t.Error("HasCollection misreported membership")
	}
	if !p.HasTag("ceramic") || p.HasTag("steel") {
		t.Error("HasTag misreported membership")
	}
}

func TestUserProfileHasViewed(t *testing.T) {
	prof := UserProfile{ViewedProducts: datatypes.NewJSONSlice([]string{"p1", "p2"})}

	if !prof.HasViewed("p2") {
		t.Error("HasViewed(p2) = false")
	}
	if prof.HasViewed("p3") {
		t.Error("HasViewed(p3) = true")
	}
}
