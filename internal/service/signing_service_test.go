package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type signFixture struct {
	svc         *SigningService
	quotes      *fakeQuotes
	files       *fakeFiles
	quote       *model.Quote
	sellerToken string
	buyerToken  string
}

func newSignFixture(t *testing.T) *signFixture {
	t.Helper()

	quotes := newFakeQuotes()
	files := newFakeFiles()
	issuer := NewTokenIssuer("fixture-secret")

	original := quotePDF(t, "Q-20260115-AAAAAA")
	fileID, err := files.Put(context.Background(), model.StoredFile{
		Name:    "Q-20260115-AAAAAA.pdf",
		Kind:    model.FileKindQuoteOriginal,
		Content: original,
	})
	if err != nil {
		t.Fatalf("store original: %v", err)
	}

	sellerToken, sellerHash, err := issuer.New()
	if err != nil {
		t.Fatalf("issue seller token: %v", err)
	}
	buyerToken, buyerHash, err := issuer.New()
	if err != nil {
		t.Fatalf("issue buyer token: %v", err)
	}

	quote, err := quotes.Create(context.Background(), model.Quote{
		QuoteNumber:    "Q-20260115-AAAAAA",
		FarmerID:       uuid.New(),
		CropName:       "Wheat",
		Quantity:       3,
		BasePrice:      5000,
		Subtotal:       15000,
		FinalPrice:     13500,
		Status:         model.QuoteStatusDraft,
		OriginalFileID: fileID,
	}, []model.QuoteSignature{
		{Role: model.RoleSeller, TokenHash: sellerHash},
		{Role: model.RoleBuyer, TokenHash: buyerHash},
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	return &signFixture{
		svc:         NewSigningService(quotes, files, issuer, testLogger()),
		quotes:      quotes,
		files:       files,
		quote:       quote,
		sellerToken: sellerToken,
		buyerToken:  buyerToken,
	}
}

func TestResolve_KnownToken(t *testing.T) {
	fx := newSignFixture(t)

	resolved, err := fx.svc.Resolve(context.Background(), fx.sellerToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Role != model.RoleSeller {
		t.Fatalf("role = %s, want seller", resolved.Role)
	}
	if resolved.Quote.ID != fx.quote.ID {
		t.Fatalf("resolved wrong quote")
	}
	if resolved.Signed {
		t.Fatal("fresh token reported signed")
	}
}

func TestResolve_TokenNeverCrossesRoles(t *testing.T) {
	fx := newSignFixture(t)

	resolved, err := fx.svc.Resolve(context.Background(), fx.buyerToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Role != model.RoleBuyer {
		t.Fatalf("buyer token resolved to role %s", resolved.Role)
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.Resolve(context.Background(), "not-a-token")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSignWithToken_SellerThenBuyer(t *testing.T) {
	fx := newSignFixture(t)
	img := pngFixture(t)

	first, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, img)
	if err != nil {
		t.Fatalf("seller sign: %v", err)
	}
	if first.Quote.Status != model.QuoteStatusSellerSigned {
		t.Fatalf("status = %s, want seller_signed", first.Quote.Status)
	}
	if !bytes.HasPrefix(first.Content, []byte("%PDF")) {
		t.Fatal("signed artifact is not a PDF")
	}

	second, err := fx.svc.SignWithToken(context.Background(), fx.buyerToken, img)
	if err != nil {
		t.Fatalf("buyer sign: %v", err)
	}
	if second.Quote.Status != model.QuoteStatusFullySigned {
		t.Fatalf("status = %s, want fully_signed", second.Quote.Status)
	}
}

func TestSignWithToken_BuyerThenSeller(t *testing.T) {
	fx := newSignFixture(t)
	img := pngFixture(t)

	first, err := fx.svc.SignWithToken(context.Background(), fx.buyerToken, img)
	if err != nil {
		t.Fatalf("buyer sign: %v", err)
	}
	if first.Quote.Status != model.QuoteStatusBuyerSigned {
		t.Fatalf("status = %s, want buyer_signed", first.Quote.Status)
	}

	second, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, img)
	if err != nil {
		t.Fatalf("seller sign: %v", err)
	}
	if second.Quote.Status != model.QuoteStatusFullySigned {
		t.Fatalf("status = %s, want fully_signed", second.Quote.Status)
	}
}

func TestSignWithToken_ConcurrentRolesSettleFullySigned(t *testing.T) {
	fx := newSignFixture(t)
	img := pngFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, token := range []string{fx.sellerToken, fx.buyerToken} {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			if _, err := fx.svc.SignWithToken(context.Background(), token, img); err != nil {
				errs <- err
			}
		}(token)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("sign: %v", err)
	}

	quote, err := fx.quotes.GetByID(context.Background(), fx.quote.ID)
	if err != nil {
		t.Fatalf("load quote: %v", err)
	}
	if quote.Status != model.QuoteStatusFullySigned {
		t.Fatalf("status = %s, want fully_signed", quote.Status)
	}
}

func TestSignWithToken_IdempotentPerRole(t *testing.T) {
	fx := newSignFixture(t)
	img := pngFixture(t)

	first, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, img)
	if err != nil {
		t.Fatalf("first sign: %v", err)
	}
	sigBefore, err := fx.quotes.GetSignature(context.Background(), fx.quote.ID, model.RoleSeller)
	if err != nil {
		t.Fatalf("load signature: %v", err)
	}

	second, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, img)
	if err != nil {
		t.Fatalf("second sign: %v", err)
	}
	if !second.AlreadySigned {
		t.Fatal("second submission not reported as already signed")
	}
	if !bytes.Equal(first.Content, second.Content) {
		t.Fatal("second submission returned a different artifact")
	}
	// Signing the same role twice must not advance past seller_signed.
	if second.Quote.Status != model.QuoteStatusSellerSigned {
		t.Fatalf("status = %s, want seller_signed", second.Quote.Status)
	}

	sigAfter, err := fx.quotes.GetSignature(context.Background(), fx.quote.ID, model.RoleSeller)
	if err != nil {
		t.Fatalf("load signature: %v", err)
	}
	if !sigAfter.SignedAt.Equal(*sigBefore.SignedAt) {
		t.Fatalf("signed_at changed: %v -> %v", sigBefore.SignedAt, sigAfter.SignedAt)
	}
}

func TestSignDirect_ByQuoteNumberWithPlacement(t *testing.T) {
	fx := newSignFixture(t)

	result, err := fx.svc.SignDirect(context.Background(), SignDirectInput{
		QuoteRef: fx.quote.QuoteNumber,
		Role:     model.RoleBuyer,
		Image:    pngFixture(t),
		Page:     0,
		X:        300,
		Y:        60,
		Width:    120,
	})
	if err != nil {
		t.Fatalf("sign direct: %v", err)
	}
	if result.Quote.Status != model.QuoteStatusBuyerSigned {
		t.Fatalf("status = %s, want buyer_signed", result.Quote.Status)
	}
	if result.FileName != fx.quote.QuoteNumber+"-buyer-signed.pdf" {
		t.Fatalf("file name = %s", result.FileName)
	}
}

func TestSignDirect_BadRole(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.SignDirect(context.Background(), SignDirectInput{
		QuoteRef: fx.quote.QuoteNumber,
		Role:     "witness",
		Image:    pngFixture(t),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignDirect_PageOutOfRange(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.SignDirect(context.Background(), SignDirectInput{
		QuoteRef: fx.quote.QuoteNumber,
		Role:     model.RoleSeller,
		Image:    pngFixture(t),
		Page:     9,
		X:        50,
		Y:        50,
		Width:    150,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignDirect_UnsupportedImageFormat(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.SignDirect(context.Background(), SignDirectInput{
		QuoteRef: fx.quote.QuoteNumber,
		Role:     model.RoleSeller,
		Image:    []byte("definitely not an image"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignWithToken_MissingImage(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignDirect_UnknownQuote(t *testing.T) {
	fx := newSignFixture(t)

	_, err := fx.svc.SignDirect(context.Background(), SignDirectInput{
		QuoteRef: "Q-20260101-ZZZZZZ",
		Role:     model.RoleSeller,
		Image:    pngFixture(t),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSignWithToken_MissingOriginalDocument(t *testing.T) {
	fx := newSignFixture(t)

	// Point the quote at a blob that is not in the store.
	fx.quotes.mu.Lock()
	quote := fx.quotes.quotes[fx.quote.ID]
	quote.OriginalFileID = "0000000000000000000000000000000000000000000000000000000000000000"
	fx.quotes.quotes[fx.quote.ID] = quote
	fx.quotes.mu.Unlock()

	_, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, pngFixture(t))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkSigned_RaceReturnsStoredArtifact(t *testing.T) {
	fx := newSignFixture(t)
	img := pngFixture(t)

	if _, err := fx.svc.SignWithToken(context.Background(), fx.sellerToken, img); err != nil {
		t.Fatalf("first sign: %v", err)
	}

	// Simulate the loser of a concurrent duplicate: MarkSigned returns false
	// and the service must hand back what the winner stored.
	marked, err := fx.quotes.MarkSigned(context.Background(), fx.quote.ID, model.RoleSeller, "ignored", time.Now())
	if err != nil {
		t.Fatalf("mark signed: %v", err)
	}
	if marked {
		t.Fatal("duplicate mark reported as first write")
	}
}
