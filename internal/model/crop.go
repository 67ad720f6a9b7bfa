package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountTier grants a percentage discount once the requested quantity
// reaches MinQuantity. Tiers are owned by a crop and carry no identity of
// their own.
type DiscountTier struct {
	MinQuantity     int
	DiscountPercent float64
}

type Crop struct {
	ID        uuid.UUID
	FarmerID  uuid.UUID
	Name      string
	BasePrice float64
	Tiers     []DiscountTier
	CreatedAt time.Time
}
