package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
	"github.com/anushreddydasari/cpqagri/internal/signing"
)

// SigningService runs the two-party signature workflow over quotes.
type SigningService struct {
	quotes QuoteStore
	files  FileStore
	tokens *TokenIssuer
	log    zerolog.Logger
}

func NewSigningService(quotes QuoteStore, files FileStore, tokens *TokenIssuer, log zerolog.Logger) *SigningService {
	return &SigningService{quotes: quotes, files: files, tokens: tokens, log: log}
}

type ResolvedToken struct {
	Quote    model.Quote
	Role     model.SignerRole
	Signed   bool
	SignedAt *time.Time
}

// Resolve maps an inbound plaintext token to its quote and role. Lookup is by
// keyed digest so the plaintext never touches storage; digest comparison is
// constant time.
func (s *SigningService) Resolve(ctx context.Context, token string) (*ResolvedToken, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	hash := s.tokens.Hash(token)
	sig, err := s.quotes.FindSignatureByTokenHash(ctx, hash)
	if err != nil {
		return nil, translateLookup(err, "token")
	}
	if !s.tokens.Matches(sig.TokenHash, hash) {
		return nil, fmt.Errorf("%w: token", ErrNotFound)
	}

	quote, err := s.quotes.GetByID(ctx, sig.QuoteID)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}

	return &ResolvedToken{
		Quote:    *quote,
		Role:     sig.Role,
		Signed:   sig.Signed,
		SignedAt: sig.SignedAt,
	}, nil
}

type SignResult struct {
	Quote         model.Quote
	Role          model.SignerRole
	FileName      string
	Content       []byte
	AlreadySigned bool
}

// SignWithToken is the token-authorized signing path: the token names both
// the quote and the role, the image is placed at the role's anchor.
func (s *SigningService) SignWithToken(ctx context.Context, token string, image []byte) (*SignResult, error) {
	resolved, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, resolved.Quote, resolved.Role, image, nil)
}

type SignDirectInput struct {
	QuoteRef string
	Role     model.SignerRole
	Image    []byte
	Page     int
	X        float64
	Y        float64
	Width    float64
}

// SignDirect is the superseded non-token path: the caller names the quote,
// role and pixel placement explicitly.
func (s *SigningService) SignDirect(ctx context.Context, input SignDirectInput) (*SignResult, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: role must be seller or buyer", ErrInvalidInput)
	}

	quote, err := s.findQuote(ctx, input.QuoteRef)
	if err != nil {
		return nil, err
	}
	placement := &signing.Placement{
		Page:  input.Page,
		X:     input.X,
		Y:     input.Y,
		Width: input.Width,
	}
	return s.sign(ctx, *quote, input.Role, input.Image, placement)
}

// findQuote accepts either the internal UUID or the generated quote number.
func (s *SigningService) findQuote(ctx context.Context, ref string) (*model.Quote, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: quote_id is required", ErrInvalidInput)
	}
	if id, err := uuid.Parse(ref); err == nil {
		quote, err := s.quotes.GetByID(ctx, id)
		if err != nil {
			return nil, translateLookup(err, "quote")
		}
		return quote, nil
	}
	quote, err := s.quotes.GetByNumber(ctx, ref)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}
	return quote, nil
}

func (s *SigningService) sign(ctx context.Context, quote model.Quote, role model.SignerRole, image []byte, placement *signing.Placement) (*SignResult, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be seller or buyer", ErrInvalidInput)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: signature image is required", ErrInvalidInput)
	}

	sig, err := s.quotes.GetSignature(ctx, quote.ID, role)
	if err != nil {
		return nil, translateLookup(err, "signature")
	}
	if sig.Signed {
		return s.storedArtifact(ctx, quote.ID, role, sig)
	}

	original, err := s.files.Get(ctx, quote.OriginalFileID)
	if err != nil {
		return nil, translateLookup(err, "original document")
	}

	place := signing.RoleAnchor(role)
	if placement != nil {
		place = *placement
	}
	signed, err := signing.Overlay(original.Content, image, place)
	if err != nil {
		if errors.Is(err, signing.ErrUnsupportedImage) || errors.Is(err, signing.ErrPageOutOfRange) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: overlay signature: %v", ErrRender, err)
	}

	fileName := fmt.Sprintf("%s-%s-signed.pdf", quote.QuoteNumber, role)
	fileID, err := s.files.Put(ctx, model.StoredFile{
		Name:    fileName,
		Kind:    model.FileKindQuoteSigned,
		Content: signed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store signed document: %v", ErrStorage, err)
	}

	marked, err := s.quotes.MarkSigned(ctx, quote.ID, role, fileID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: mark signed: %v", ErrStorage, err)
	}
	if !marked {
		// Lost a race against a duplicate submission; hand back what the
		// first writer stored.
		sig, err = s.quotes.GetSignature(ctx, quote.ID, role)
		if err != nil {
			return nil, translateLookup(err, "signature")
		}
		return s.storedArtifact(ctx, quote.ID, role, sig)
	}

	fresh, err := s.quotes.GetByID(ctx, quote.ID)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}

	s.log.Info().
		Str("quote", fresh.QuoteNumber).
		Str("role", string(role)).
		Str("status", string(fresh.Status)).
		Msg("signature recorded")

	return &SignResult{
		Quote:    *fresh,
		Role:     role,
		FileName: fileName,
		Content:  signed,
	}, nil
}

func (s *SigningService) storedArtifact(ctx context.Context, quoteID uuid.UUID, role model.SignerRole, sig *model.QuoteSignature) (*SignResult, error) {
	if sig.FileID == nil {
		return nil, fmt.Errorf("%w: signed document", ErrNotFound)
	}
	file, err := s.files.Get(ctx, *sig.FileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: signed document", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load signed document: %v", ErrStorage, err)
	}
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}
	return &SignResult{
		Quote:         *quote,
		Role:          role,
		FileName:      file.Name,
		Content:       file.Content,
		AlreadySigned: true,
	}, nil
}
