package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
	"github.com/anushreddydasari/cpqagri/internal/pricing"
)

type QuoteService struct {
	farmers FarmerStore
	crops   CropStore
	quotes  QuoteStore
	files   FileStore
	docs    DocumentRenderer
	export  RegisterExporter
	mailer  LinkMailer
	tokens  *TokenIssuer
	baseURL string
	log     zerolog.Logger
}

// NewQuoteService wires the quote builder. mailer may be nil when signing
// link delivery is not configured.
func NewQuoteService(
	farmers FarmerStore,
	crops CropStore,
	quotes QuoteStore,
	files FileStore,
	docs DocumentRenderer,
	export RegisterExporter,
	mailer LinkMailer,
	tokens *TokenIssuer,
	baseURL string,
	log zerolog.Logger,
) *QuoteService {
	return &QuoteService{
		farmers: farmers,
		crops:   crops,
		quotes:  quotes,
		files:   files,
		docs:    docs,
		export:  export,
		mailer:  mailer,
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

type CreateQuoteInput struct {
	FarmerName  string
	CropName    string
	Quantity    int
	SellerEmail string
	BuyerEmail  string
}

type CreateQuoteResult struct {
	Quote        model.Quote
	Breakdown    pricing.Quotation
	SigningLinks map[model.SignerRole]string
}

type QuoteDetails struct {
	Quote      model.Quote
	Signatures []model.QuoteSignature
}

type FileResult struct {
	FileName string
	Content  []byte
}

// CreateQuote prices the request, renders and stores the quote document,
// persists the quote with two unsigned signature slots and returns the
// one-time signing links.
func (s *QuoteService) CreateQuote(ctx context.Context, input CreateQuoteInput) (*CreateQuoteResult, error) {
	if strings.TrimSpace(input.FarmerName) == "" || strings.TrimSpace(input.CropName) == "" {
		return nil, fmt.Errorf("%w: farmer and crop are required", ErrInvalidInput)
	}
	if input.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	farmer, err := s.farmers.GetByName(ctx, input.FarmerName)
	if err != nil {
		return nil, translateLookup(err, "farmer")
	}
	crop, err := s.crops.GetByFarmerAndName(ctx, farmer.ID, input.CropName)
	if err != nil {
		return nil, translateLookup(err, "crop")
	}

	breakdown := pricing.Quote(crop.BasePrice, input.Quantity, crop.Tiers)

	number, err := newQuoteNumber(time.Now().UTC())
	if err != nil {
		return nil, err
	}

	pdfBytes, err := s.docs.QuoteDocument(model.QuoteDocument{
		QuoteNumber:     number,
		FarmerName:      farmer.Name,
		CropName:        crop.Name,
		Quantity:        input.Quantity,
		BasePrice:       crop.BasePrice,
		Subtotal:        breakdown.Subtotal,
		DiscountPercent: breakdown.DiscountPercent,
		DiscountAmount:  breakdown.DiscountAmount,
		FinalPrice:      breakdown.FinalPrice,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: quote document: %v", ErrRender, err)
	}

	fileID, err := s.files.Put(ctx, model.StoredFile{
		Name:    number + ".pdf",
		Kind:    model.FileKindQuoteOriginal,
		Content: pdfBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store quote document: %v", ErrStorage, err)
	}

	links := make(map[model.SignerRole]string, 2)
	signatures := make([]model.QuoteSignature, 0, 2)
	for _, role := range []model.SignerRole{model.RoleSeller, model.RoleBuyer} {
		plaintext, hash, err := s.tokens.New()
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, model.QuoteSignature{Role: role, TokenHash: hash})
		links[role] = s.baseURL + "/sign/" + plaintext
	}

	saved, err := s.quotes.Create(ctx, model.Quote{
		QuoteNumber:     number,
		FarmerID:        farmer.ID,
		CropName:        crop.Name,
		Quantity:        input.Quantity,
		BasePrice:       crop.BasePrice,
		Subtotal:        breakdown.Subtotal,
		DiscountPercent: breakdown.DiscountPercent,
		DiscountAmount:  breakdown.DiscountAmount,
		FinalPrice:      breakdown.FinalPrice,
		Status:          model.QuoteStatusDraft,
		OriginalFileID:  fileID,
	}, signatures)
	if err != nil {
		return nil, fmt.Errorf("%w: create quote: %v", ErrStorage, err)
	}

	s.deliverLinks(ctx, saved.QuoteNumber, links, pdfBytes, input)

	return &CreateQuoteResult{
		Quote:        *saved,
		Breakdown:    breakdown,
		SigningLinks: links,
	}, nil
}

// deliverLinks emails each party its signing link. Delivery is best effort:
// the quote is already persisted and the links are returned to the caller
// regardless.
func (s *QuoteService) deliverLinks(ctx context.Context, number string, links map[model.SignerRole]string, pdfBytes []byte, input CreateQuoteInput) {
	if s.mailer == nil {
		return
	}
	recipients := map[model.SignerRole]string{
		model.RoleSeller: input.SellerEmail,
		model.RoleBuyer:  input.BuyerEmail,
	}
	for role, email := range recipients {
		if email == "" {
			continue
		}
		err := s.mailer.SendSigningLink(ctx, email, number, links[role], pdfBytes, number+".pdf")
		if err != nil {
			s.log.Warn().Err(err).Str("quote", number).Str("role", string(role)).Msg("signing link delivery failed")
		}
	}
}

func (s *QuoteService) GetQuote(ctx context.Context, number string) (*QuoteDetails, error) {
	quote, err := s.quotes.GetByNumber(ctx, number)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}

	details := &QuoteDetails{Quote: *quote}
	for _, role := range []model.SignerRole{model.RoleSeller, model.RoleBuyer} {
		sig, err := s.quotes.GetSignature(ctx, quote.ID, role)
		if err != nil {
			return nil, translateLookup(err, "signature")
		}
		sig.TokenHash = ""
		details.Signatures = append(details.Signatures, *sig)
	}
	return details, nil
}

func (s *QuoteService) QuoteDocument(ctx context.Context, number string) (*FileResult, error) {
	quote, err := s.quotes.GetByNumber(ctx, number)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}
	file, err := s.files.Get(ctx, quote.OriginalFileID)
	if err != nil {
		return nil, translateLookup(err, "quote document")
	}
	return &FileResult{FileName: file.Name, Content: file.Content}, nil
}

// LeaseAgreement renders the ancillary lease document for a quote on demand.
func (s *QuoteService) LeaseAgreement(ctx context.Context, number string) (*FileResult, error) {
	quote, err := s.quotes.GetByNumber(ctx, number)
	if err != nil {
		return nil, translateLookup(err, "quote")
	}
	farmer, err := s.farmers.GetByID(ctx, quote.FarmerID)
	if err != nil {
		return nil, translateLookup(err, "farmer")
	}

	content, err := s.docs.LeaseAgreement(model.LeaseDocument{
		QuoteNumber: quote.QuoteNumber,
		LessorName:  farmer.Name,
		LesseeName:  "the Buyer of record",
		CropName:    quote.CropName,
		Quantity:    quote.Quantity,
		FinalPrice:  quote.FinalPrice,
		StartDate:   quote.CreatedAt,
		TermMonths:  12,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: lease agreement: %v", ErrRender, err)
	}
	return &FileResult{FileName: quote.QuoteNumber + "-lease.pdf", Content: content}, nil
}

func (s *QuoteService) ExportRegister(ctx context.Context) (*FileResult, error) {
	rows, err := s.quotes.ListRegister(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list quotes: %v", ErrStorage, err)
	}
	now := time.Now().UTC()
	content, err := s.export.QuoteRegister(model.QuoteRegister{GeneratedAt: now, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("%w: quote register: %v", ErrRender, err)
	}
	name := fmt.Sprintf("quotes-register-%s.xlsx", now.Format("20060102"))
	return &FileResult{FileName: name, Content: content}, nil
}

const quoteNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newQuoteNumber builds identifiers like Q-20260115-7KQ2ZD. Collisions are
// left to the unique index on quote_number.
func newQuoteNumber(now time.Time) (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = quoteNumberAlphabet[int(b)%len(quoteNumberAlphabet)]
	}
	return fmt.Sprintf("Q-%s-%s", now.Format("20060102"), raw), nil
}

func translateLookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: load %s: %v", ErrStorage, what, err)
}
