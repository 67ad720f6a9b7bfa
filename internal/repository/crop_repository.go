package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type CropRepository struct {
	db *gorm.DB
}

func NewCropRepository(db *gorm.DB) *CropRepository {
	return &CropRepository{db: db}
}

// Upsert replaces the crop for (farmer, name) including its discount tiers.
// Re-adding is the only mutation path for crops.
func (r *CropRepository) Upsert(ctx context.Context, crop model.Crop) (*model.Crop, error) {
	var saved model.Crop
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			ID        uuid.UUID
			CreatedAt time.Time
		}
		err := tx.Raw(`
			INSERT INTO crops (farmer_id, name, base_price)
			VALUES (?, ?, ?)
			ON CONFLICT (farmer_id, name)
			DO UPDATE SET base_price = EXCLUDED.base_price
			RETURNING id, created_at
		`, crop.FarmerID, crop.Name, crop.BasePrice).Scan(&row).Error
		if err != nil {
			return err
		}

		if err := tx.Exec(`DELETE FROM crop_discount_tiers WHERE crop_id = ?`, row.ID).Error; err != nil {
			return err
		}
		for _, tier := range crop.Tiers {
			err := tx.Exec(`
				INSERT INTO crop_discount_tiers (crop_id, min_quantity, discount_percent)
				VALUES (?, ?, ?)
			`, row.ID, tier.MinQuantity, tier.DiscountPercent).Error
			if err != nil {
				return err
			}
		}

		saved = crop
		saved.ID = row.ID
		saved.CreatedAt = row.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CropRepository) GetByFarmerAndName(ctx context.Context, farmerID uuid.UUID, name string) (*model.Crop, error) {
	var crop model.Crop
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, farmer_id, name, base_price, created_at
		FROM crops WHERE farmer_id = ? AND name = ?
	`, farmerID, name).Scan(&crop).Error
	if err != nil {
		return nil, err
	}
	if crop.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	tiers, err := r.loadTiers(ctx, crop.ID)
	if err != nil {
		return nil, err
	}
	crop.Tiers = tiers
	return &crop, nil
}

func (r *CropRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Crop, error) {
	var crops []model.Crop
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, farmer_id, name, base_price, created_at
		FROM crops WHERE farmer_id = ? ORDER BY name ASC
	`, farmerID).Scan(&crops).Error
	if err != nil {
		return nil, err
	}
	for i := range crops {
		tiers, err := r.loadTiers(ctx, crops[i].ID)
		if err != nil {
			return nil, err
		}
		crops[i].Tiers = tiers
	}
	return crops, nil
}

func (r *CropRepository) Delete(ctx context.Context, farmerID uuid.UUID, name string) error {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM crops WHERE farmer_id = ? AND name = ?
	`, farmerID, name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CropRepository) DeleteByFarmer(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM crops WHERE farmer_id = ?`, farmerID)
	return result.RowsAffected, result.Error
}

func (r *CropRepository) loadTiers(ctx context.Context, cropID uuid.UUID) ([]model.DiscountTier, error) {
	var tiers []model.DiscountTier
	err := r.db.WithContext(ctx).Raw(`
		SELECT min_quantity, discount_percent
		FROM crop_discount_tiers WHERE crop_id = ?
		ORDER BY min_quantity ASC
	`, cropID).Scan(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
