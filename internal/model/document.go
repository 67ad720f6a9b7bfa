package model

import "time"

// QuoteDocument carries everything the PDF renderer needs for a quote.
type QuoteDocument struct {
	QuoteNumber     string
	FarmerName      string
	CropName        string
	Quantity        int
	BasePrice       float64
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	FinalPrice      float64
	CreatedAt       time.Time
}

// LeaseDocument describes the ancillary land lease agreement rendered
// alongside a quote.
type LeaseDocument struct {
	QuoteNumber string
	LessorName  string
	LesseeName  string
	CropName    string
	Quantity    int
	FinalPrice  float64
	StartDate   time.Time
	TermMonths  int
}

type QuoteRegisterRow struct {
	QuoteNumber     string
	FarmerName      string
	CropName        string
	Quantity        int
	Subtotal        float64
	DiscountPercent float64
	FinalPrice      float64
	Status          QuoteStatus
	CreatedAt       time.Time
}

type QuoteRegister struct {
	GeneratedAt time.Time
	Rows        []QuoteRegisterRow
}
