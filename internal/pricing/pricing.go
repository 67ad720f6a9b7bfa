// Package pricing computes quote prices with tiered quantity discounts.
package pricing

import (
	"strconv"
	"strings"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

// Quotation is the full price breakdown for a requested quantity.
type Quotation struct {
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	FinalPrice      float64
}

// Price applies the highest qualifying discount tier. A tier qualifies when
// quantity >= MinQuantity; among qualifying tiers the largest DiscountPercent
// wins, independent of tier order. With no qualifying tier the discount is 0.
func Price(basePrice float64, quantity int, tiers []model.DiscountTier) (float64, float64) {
	q := Quote(basePrice, quantity, tiers)
	return q.FinalPrice, q.DiscountPercent
}

// Quote returns the line breakdown behind Price.
func Quote(basePrice float64, quantity int, tiers []model.DiscountTier) Quotation {
	subtotal := basePrice * float64(quantity)

	applicable := 0.0
	for _, tier := range tiers {
		if quantity >= tier.MinQuantity && tier.DiscountPercent > applicable {
			applicable = tier.DiscountPercent
		}
	}

	// Single-expression form; subtracting a separately rounded discount can
	// drift by an ULP on non-decimal-exact inputs.
	final := subtotal * (1 - applicable/100)
	return Quotation{
		Subtotal:        subtotal,
		DiscountPercent: applicable,
		DiscountAmount:  subtotal - final,
		FinalPrice:      final,
	}
}

// ParseTiers parses the compact "min:pct,min:pct" form. Malformed or
// out-of-range segments are dropped and returned to the caller as warnings,
// never treated as fatal.
func ParseTiers(raw string) ([]model.DiscountTier, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var tiers []model.DiscountTier
	var dropped []string
	for _, part := range strings.Split(raw, ",") {
		tier, ok := parseTier(part)
		if !ok {
			dropped = append(dropped, strings.TrimSpace(part))
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers, dropped
}

func parseTier(part string) (model.DiscountTier, bool) {
	fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
	if len(fields) != 2 {
		return model.DiscountTier{}, false
	}
	minQty, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || minQty < 0 {
		return model.DiscountTier{}, false
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil || pct < 0 || pct > 100 {
		return model.DiscountTier{}, false
	}
	return model.DiscountTier{MinQuantity: minQty, DiscountPercent: pct}, true
}
