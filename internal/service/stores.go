package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

// Store interfaces are satisfied by the repository package; tests substitute
// in-memory fakes. Missing records surface as gorm.ErrRecordNotFound.

type FarmerStore interface {
	GetByName(ctx context.Context, name string) (*model.Farmer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Farmer, error)
}

type CropStore interface {
	GetByFarmerAndName(ctx context.Context, farmerID uuid.UUID, name string) (*model.Crop, error)
}

type QuoteStore interface {
	Create(ctx context.Context, quote model.Quote, signatures []model.QuoteSignature) (*model.Quote, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	GetByNumber(ctx context.Context, number string) (*model.Quote, error)
	GetSignature(ctx context.Context, quoteID uuid.UUID, role model.SignerRole) (*model.QuoteSignature, error)
	FindSignatureByTokenHash(ctx context.Context, hash string) (*model.QuoteSignature, error)
	MarkSigned(ctx context.Context, quoteID uuid.UUID, role model.SignerRole, fileID string, at time.Time) (bool, error)
	ListRegister(ctx context.Context) ([]model.QuoteRegisterRow, error)
}

type FileStore interface {
	Put(ctx context.Context, file model.StoredFile) (string, error)
	Get(ctx context.Context, id string) (*model.StoredFile, error)
}

type DocumentRenderer interface {
	QuoteDocument(doc model.QuoteDocument) ([]byte, error)
	LeaseAgreement(doc model.LeaseDocument) ([]byte, error)
}

type RegisterExporter interface {
	QuoteRegister(register model.QuoteRegister) ([]byte, error)
}

type LinkMailer interface {
	SendSigningLink(ctx context.Context, to, quoteNumber, link string, pdf []byte, filename string) error
}
