package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
	"github.com/anushreddydasari/cpqagri/internal/pricing"
	"github.com/anushreddydasari/cpqagri/internal/repository"
)

// CatalogService manages farmers and their crops.
type CatalogService struct {
	farmers *repository.FarmerRepository
	crops   *repository.CropRepository
	quotes  *repository.QuoteRepository
	log     zerolog.Logger
}

func NewCatalogService(
	farmers *repository.FarmerRepository,
	crops *repository.CropRepository,
	quotes *repository.QuoteRepository,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{farmers: farmers, crops: crops, quotes: quotes, log: log}
}

func (s *CatalogService) AddFarmer(ctx context.Context, name string) (*model.Farmer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: farmer name is required", ErrInvalidInput)
	}

	_, err := s.farmers.GetByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%w: farmer %q", ErrConflict, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: check farmer: %v", ErrStorage, err)
	}

	farmer, err := s.farmers.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: create farmer: %v", ErrStorage, err)
	}
	return farmer, nil
}

func (s *CatalogService) ListFarmers(ctx context.Context) ([]model.Farmer, error) {
	farmers, err := s.farmers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list farmers: %v", ErrStorage, err)
	}
	return farmers, nil
}

type DeleteFarmerResult struct {
	CropsDeleted  int64
	QuotesDeleted int64
}

// DeleteFarmer removes the farmer and, when cascade is set, the farmer's
// crops and quotes. Without cascade the delete fails if dependents remain.
func (s *CatalogService) DeleteFarmer(ctx context.Context, name string, cascade bool) (*DeleteFarmerResult, error) {
	farmer, err := s.farmers.GetByName(ctx, name)
	if err != nil {
		return nil, translateLookup(err, "farmer")
	}

	result := &DeleteFarmerResult{}
	if cascade {
		if result.QuotesDeleted, err = s.quotes.DeleteByFarmer(ctx, farmer.ID); err != nil {
			return nil, fmt.Errorf("%w: delete quotes: %v", ErrStorage, err)
		}
		if result.CropsDeleted, err = s.crops.DeleteByFarmer(ctx, farmer.ID); err != nil {
			return nil, fmt.Errorf("%w: delete crops: %v", ErrStorage, err)
		}
	}
	if err := s.farmers.Delete(ctx, farmer.ID); err != nil {
		return nil, fmt.Errorf("%w: delete farmer: %v", ErrStorage, err)
	}

	s.log.Info().
		Str("farmer", name).
		Int64("crops", result.CropsDeleted).
		Int64("quotes", result.QuotesDeleted).
		Msg("farmer deleted")
	return result, nil
}

type AddCropInput struct {
	FarmerName string
	CropName   string
	BasePrice  float64
	// TierSpec is the compact "min:pct,min:pct" form; malformed segments are
	// dropped and reported in the result.
	TierSpec string
}

type AddCropResult struct {
	Crop         model.Crop
	DroppedTiers []string
}

// AddCrop creates or replaces the crop for (farmer, name). Re-adding is the
// only way to change a crop.
func (s *CatalogService) AddCrop(ctx context.Context, input AddCropInput) (*AddCropResult, error) {
	if strings.TrimSpace(input.CropName) == "" {
		return nil, fmt.Errorf("%w: crop name is required", ErrInvalidInput)
	}
	if input.BasePrice < 0 {
		return nil, fmt.Errorf("%w: base price must not be negative", ErrInvalidInput)
	}

	farmer, err := s.farmers.GetByName(ctx, input.FarmerName)
	if err != nil {
		return nil, translateLookup(err, "farmer")
	}

	tiers, dropped := pricing.ParseTiers(input.TierSpec)
	for _, part := range dropped {
		s.log.Warn().Str("crop", input.CropName).Str("segment", part).Msg("discount tier segment dropped")
	}

	crop, err := s.crops.Upsert(ctx, model.Crop{
		FarmerID:  farmer.ID,
		Name:      strings.TrimSpace(input.CropName),
		BasePrice: input.BasePrice,
		Tiers:     tiers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: save crop: %v", ErrStorage, err)
	}
	return &AddCropResult{Crop: *crop, DroppedTiers: dropped}, nil
}

func (s *CatalogService) ListCrops(ctx context.Context, farmerName string) ([]model.Crop, error) {
	farmer, err := s.farmers.GetByName(ctx, farmerName)
	if err != nil {
		return nil, translateLookup(err, "farmer")
	}
	crops, err := s.crops.ListByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list crops: %v", ErrStorage, err)
	}
	return crops, nil
}

// DeleteCrop removes the crop and, when cascade is set, its quotes.
func (s *CatalogService) DeleteCrop(ctx context.Context, farmerName, cropName string, cascade bool) (int64, error) {
	farmer, err := s.farmers.GetByName(ctx, farmerName)
	if err != nil {
		return 0, translateLookup(err, "farmer")
	}

	var quotesDeleted int64
	if cascade {
		if quotesDeleted, err = s.quotes.DeleteByFarmerAndCrop(ctx, farmer.ID, cropName); err != nil {
			return 0, fmt.Errorf("%w: delete quotes: %v", ErrStorage, err)
		}
	}
	if err := s.crops.Delete(ctx, farmer.ID, cropName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quotesDeleted, fmt.Errorf("%w: crop", ErrNotFound)
		}
		return quotesDeleted, fmt.Errorf("%w: delete crop: %v", ErrStorage, err)
	}
	return quotesDeleted, nil
}
