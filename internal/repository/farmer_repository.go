package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type FarmerRepository struct {
	db *gorm.DB
}

func NewFarmerRepository(db *gorm.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

func (r *FarmerRepository) Create(ctx context.Context, name string) (*model.Farmer, error) {
	var saved model.Farmer
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO farmers (name) VALUES (?)
		RETURNING id, name, created_at
	`, name).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *FarmerRepository) GetByName(ctx context.Context, name string) (*model.Farmer, error) {
	var farmer model.Farmer
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, created_at FROM farmers WHERE name = ?
	`, name).Scan(&farmer).Error
	if err != nil {
		return nil, err
	}
	if farmer.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &farmer, nil
}

func (r *FarmerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Farmer, error) {
	var farmer model.Farmer
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, created_at FROM farmers WHERE id = ?
	`, id).Scan(&farmer).Error
	if err != nil {
		return nil, err
	}
	if farmer.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &farmer, nil
}

func (r *FarmerRepository) List(ctx context.Context) ([]model.Farmer, error) {
	var farmers []model.Farmer
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, created_at FROM farmers ORDER BY name ASC
	`).Scan(&farmers).Error
	if err != nil {
		return nil, err
	}
	return farmers, nil
}

func (r *FarmerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM farmers WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
