package pricing

import (
	"testing"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

func TestPrice_HighestQualifyingTierWins(t *testing.T) {
	tiers := []model.DiscountTier{
		{MinQuantity: 2, DiscountPercent: 5},
		{MinQuantity: 3, DiscountPercent: 10},
	}

	final, pct := Price(5000, 3, tiers)
	if final != 13500.0 {
		t.Fatalf("final = %v, want 13500", final)
	}
	if pct != 10 {
		t.Fatalf("pct = %v, want 10", pct)
	}
}

func TestPrice_TierOrderDoesNotMatter(t *testing.T) {
	forward := []model.DiscountTier{
		{MinQuantity: 2, DiscountPercent: 5},
		{MinQuantity: 3, DiscountPercent: 10},
		{MinQuantity: 10, DiscountPercent: 25},
	}
	reversed := []model.DiscountTier{
		{MinQuantity: 10, DiscountPercent: 25},
		{MinQuantity: 3, DiscountPercent: 10},
		{MinQuantity: 2, DiscountPercent: 5},
	}

	f1, p1 := Price(100, 5, forward)
	f2, p2 := Price(100, 5, reversed)
	if f1 != f2 || p1 != p2 {
		t.Fatalf("order dependent result: (%v, %v) vs (%v, %v)", f1, p1, f2, p2)
	}
	if p1 != 10 {
		t.Fatalf("pct = %v, want 10", p1)
	}
}

func TestPrice_LargestPercentNotLargestThreshold(t *testing.T) {
	// A low threshold tier with a bigger discount beats a higher threshold
	// tier with a smaller one.
	tiers := []model.DiscountTier{
		{MinQuantity: 2, DiscountPercent: 20},
		{MinQuantity: 5, DiscountPercent: 10},
	}

	_, pct := Price(100, 6, tiers)
	if pct != 20 {
		t.Fatalf("pct = %v, want 20", pct)
	}
}

func TestPrice_NoQualifyingTier(t *testing.T) {
	tiers := []model.DiscountTier{
		{MinQuantity: 10, DiscountPercent: 50},
	}

	final, pct := Price(100, 3, tiers)
	if pct != 0 {
		t.Fatalf("pct = %v, want 0", pct)
	}
	if final != 300 {
		t.Fatalf("final = %v, want subtotal 300", final)
	}
}

func TestPrice_EmptyTiers(t *testing.T) {
	final, pct := Price(100, 1, nil)
	if final != 100.0 || pct != 0 {
		t.Fatalf("got (%v, %v), want (100, 0)", final, pct)
	}
}

func TestPrice_RoundTripIdentity(t *testing.T) {
	cases := []struct {
		base     float64
		quantity int
		tiers    []model.DiscountTier
	}{
		{12.5, 4, []model.DiscountTier{{MinQuantity: 2, DiscountPercent: 7.5}}},
		{999.99, 100, []model.DiscountTier{{MinQuantity: 50, DiscountPercent: 33}}},
		{0, 5, []model.DiscountTier{{MinQuantity: 1, DiscountPercent: 100}}},
	}
	for _, tc := range cases {
		final, pct := Price(tc.base, tc.quantity, tc.tiers)
		want := tc.base * float64(tc.quantity) * (1 - pct/100)
		if final != want {
			t.Fatalf("base=%v qty=%d: final = %v, want %v", tc.base, tc.quantity, final, want)
		}
		if final < 0 {
			t.Fatalf("negative final price %v", final)
		}
	}
}

func TestQuote_Breakdown(t *testing.T) {
	q := Quote(5000, 3, []model.DiscountTier{
		{MinQuantity: 2, DiscountPercent: 5},
		{MinQuantity: 3, DiscountPercent: 10},
	})
	if q.Subtotal != 15000 {
		t.Fatalf("subtotal = %v, want 15000", q.Subtotal)
	}
	if q.DiscountAmount != 1500 {
		t.Fatalf("discount amount = %v, want 1500", q.DiscountAmount)
	}
	if q.FinalPrice != 13500 {
		t.Fatalf("final = %v, want 13500", q.FinalPrice)
	}
}

func TestQuote_BreakdownSelfConsistent(t *testing.T) {
	// Non-decimal-exact input: the breakdown must hold exactly, with no ULP
	// drift between the discount and the final price.
	q := Quote(999.99, 100, []model.DiscountTier{{MinQuantity: 50, DiscountPercent: 33}})
	if q.FinalPrice != q.Subtotal*(1-q.DiscountPercent/100) {
		t.Fatalf("final = %v, want %v", q.FinalPrice, q.Subtotal*(1-q.DiscountPercent/100))
	}
	if q.Subtotal-q.DiscountAmount != q.FinalPrice {
		t.Fatalf("subtotal %v - discount %v != final %v", q.Subtotal, q.DiscountAmount, q.FinalPrice)
	}
}

func TestParseTiers_Valid(t *testing.T) {
	tiers, dropped := ParseTiers("2:5,3:10")
	if len(dropped) != 0 {
		t.Fatalf("unexpected drops: %v", dropped)
	}
	want := []model.DiscountTier{
		{MinQuantity: 2, DiscountPercent: 5},
		{MinQuantity: 3, DiscountPercent: 10},
	}
	if len(tiers) != len(want) {
		t.Fatalf("tiers = %v, want %v", tiers, want)
	}
	for i := range want {
		if tiers[i] != want[i] {
			t.Fatalf("tier %d = %v, want %v", i, tiers[i], want[i])
		}
	}
}

func TestParseTiers_DropsMalformedSegments(t *testing.T) {
	tiers, dropped := ParseTiers("2:5,bad,3:10")
	if len(tiers) != 2 {
		t.Fatalf("tiers = %v, want 2 entries", tiers)
	}
	if len(dropped) != 1 || dropped[0] != "bad" {
		t.Fatalf("dropped = %v, want [bad]", dropped)
	}
}

func TestParseTiers_RejectsOutOfRange(t *testing.T) {
	tiers, dropped := ParseTiers("-1:5,2:110,3:10")
	if len(tiers) != 1 || tiers[0].MinQuantity != 3 {
		t.Fatalf("tiers = %v, want only 3:10", tiers)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want 2 entries", dropped)
	}
}

func TestParseTiers_Empty(t *testing.T) {
	tiers, dropped := ParseTiers("")
	if tiers != nil || dropped != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", tiers, dropped)
	}
}
