package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
	"github.com/anushreddydasari/cpqagri/internal/pdf"
)

type fakeFarmers struct {
	byName map[string]model.Farmer
}

func (f *fakeFarmers) GetByName(_ context.Context, name string) (*model.Farmer, error) {
	farmer, ok := f.byName[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &farmer, nil
}

func (f *fakeFarmers) GetByID(_ context.Context, id uuid.UUID) (*model.Farmer, error) {
	for _, farmer := range f.byName {
		if farmer.ID == id {
			return &farmer, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeCrops struct {
	byKey map[string]model.Crop
}

func cropKey(farmerID uuid.UUID, name string) string {
	return farmerID.String() + "|" + name
}

func (f *fakeCrops) GetByFarmerAndName(_ context.Context, farmerID uuid.UUID, name string) (*model.Crop, error) {
	crop, ok := f.byKey[cropKey(farmerID, name)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &crop, nil
}

type fakeQuotes struct {
	mu          sync.Mutex
	quotes      map[uuid.UUID]model.Quote
	sigs        map[string]model.QuoteSignature
	farmerNames map[uuid.UUID]string
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		quotes:      make(map[uuid.UUID]model.Quote),
		sigs:        make(map[string]model.QuoteSignature),
		farmerNames: make(map[uuid.UUID]string),
	}
}

func sigKey(quoteID uuid.UUID, role model.SignerRole) string {
	return quoteID.String() + "|" + string(role)
}

func (f *fakeQuotes) Create(_ context.Context, quote model.Quote, signatures []model.QuoteSignature) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	quote.ID = uuid.New()
	quote.CreatedAt = time.Now().UTC()
	f.quotes[quote.ID] = quote
	for _, sig := range signatures {
		sig.QuoteID = quote.ID
		f.sigs[sigKey(quote.ID, sig.Role)] = sig
	}
	return &quote, nil
}

func (f *fakeQuotes) GetByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	quote, ok := f.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &quote, nil
}

func (f *fakeQuotes) GetByNumber(_ context.Context, number string) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, quote := range f.quotes {
		if quote.QuoteNumber == number {
			return &quote, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuotes) GetSignature(_ context.Context, quoteID uuid.UUID, role model.SignerRole) (*model.QuoteSignature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sig, ok := f.sigs[sigKey(quoteID, role)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sig, nil
}

func (f *fakeQuotes) FindSignatureByTokenHash(_ context.Context, hash string) (*model.QuoteSignature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sig := range f.sigs {
		if sig.TokenHash == hash {
			sig := sig
			return &sig, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuotes) MarkSigned(_ context.Context, quoteID uuid.UUID, role model.SignerRole, fileID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := sigKey(quoteID, role)
	sig, ok := f.sigs[key]
	if !ok || sig.Signed {
		return false, nil
	}
	sig.Signed = true
	sig.SignedAt = &at
	sig.FileID = &fileID
	f.sigs[key] = sig

	quote := f.quotes[quoteID]
	seller := f.sigs[sigKey(quoteID, model.RoleSeller)]
	buyer := f.sigs[sigKey(quoteID, model.RoleBuyer)]
	quote.Status = model.CombinedStatus(seller.Signed, buyer.Signed)
	f.quotes[quoteID] = quote
	return true, nil
}

func (f *fakeQuotes) ListRegister(_ context.Context) ([]model.QuoteRegisterRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []model.QuoteRegisterRow
	for _, quote := range f.quotes {
		rows = append(rows, model.QuoteRegisterRow{
			QuoteNumber:     quote.QuoteNumber,
			FarmerName:      f.farmerNames[quote.FarmerID],
			CropName:        quote.CropName,
			Quantity:        quote.Quantity,
			Subtotal:        quote.Subtotal,
			DiscountPercent: quote.DiscountPercent,
			FinalPrice:      quote.FinalPrice,
			Status:          quote.Status,
			CreatedAt:       quote.CreatedAt,
		})
	}
	return rows, nil
}

type fakeFiles struct {
	mu    sync.Mutex
	files map[string]model.StoredFile
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string]model.StoredFile)}
}

func (f *fakeFiles) Put(_ context.Context, file model.StoredFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sum := sha256.Sum256(file.Content)
	id := hex.EncodeToString(sum[:])
	file.ID = id
	file.CreatedAt = time.Now().UTC()
	f.files[id] = file
	return id, nil
}

func (f *fakeFiles) Get(_ context.Context, id string) (*model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, ok := f.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &file, nil
}

// pngFixture is a 1x1 PNG, enough for the overlay to size and place.
func pngFixture(t *testing.T) []byte {
	t.Helper()
	const b64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("decode png fixture: %v", err)
	}
	return data
}

// quotePDF renders a realistic original document for overlay tests.
func quotePDF(t *testing.T, number string) []byte {
	t.Helper()
	content, err := pdf.NewGenerator().QuoteDocument(model.QuoteDocument{
		QuoteNumber:     number,
		FarmerName:      "Ramalingam",
		CropName:        "Wheat",
		Quantity:        3,
		BasePrice:       5000,
		Subtotal:        15000,
		DiscountPercent: 10,
		DiscountAmount:  1500,
		FinalPrice:      13500,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("render quote pdf: %v", err)
	}
	return content
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
