package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteStatusDraft        QuoteStatus = "draft"
	QuoteStatusSellerSigned QuoteStatus = "seller_signed"
	QuoteStatusBuyerSigned  QuoteStatus = "buyer_signed"
	QuoteStatusFullySigned  QuoteStatus = "fully_signed"
)

type SignerRole string

const (
	RoleSeller SignerRole = "seller"
	RoleBuyer  SignerRole = "buyer"
)

func (r SignerRole) Valid() bool {
	return r == RoleSeller || r == RoleBuyer
}

// Quote is created once at calculation time; price and discount fields are
// never mutated afterwards. Only the signature workflow updates Status.
type Quote struct {
	ID              uuid.UUID
	QuoteNumber     string
	FarmerID        uuid.UUID
	CropName        string
	Quantity        int
	BasePrice       float64
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	FinalPrice      float64
	Status          QuoteStatus
	OriginalFileID  string
	CreatedAt       time.Time
}

// QuoteSignature is the per-role signing sub-record. TokenHash holds the
// keyed hash of the signing token; the plaintext is never stored.
type QuoteSignature struct {
	QuoteID   uuid.UUID
	Role      SignerRole
	TokenHash string
	Signed    bool
	SignedAt  *time.Time
	FileID    *string
}

// CombinedStatus derives the overall quote status from the two role
// sub-states.
func CombinedStatus(sellerSigned, buyerSigned bool) QuoteStatus {
	switch {
	case sellerSigned && buyerSigned:
		return QuoteStatusFullySigned
	case sellerSigned:
		return QuoteStatusSellerSigned
	case buyerSigned:
		return QuoteStatusBuyerSigned
	default:
		return QuoteStatusDraft
	}
}
