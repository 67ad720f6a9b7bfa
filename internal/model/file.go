package model

import "time"

const (
	FileKindQuoteOriginal = "quote_original"
	FileKindQuoteSigned   = "quote_signed"
)

// StoredFile is a blob addressed by the hex sha256 of its content.
type StoredFile struct {
	ID        string
	Name      string
	Kind      string
	Content   []byte
	CreatedAt time.Time
}
