package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

// FileRepository is a content-addressable blob store: the id of a file is the
// hex sha256 of its content, so storing identical bytes twice is a no-op.
type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Put(ctx context.Context, file model.StoredFile) (string, error) {
	sum := sha256.Sum256(file.Content)
	id := hex.EncodeToString(sum[:])

	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO files (id, name, kind, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, id, file.Name, file.Kind, file.Content).Error
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *FileRepository) Get(ctx context.Context, id string) (*model.StoredFile, error) {
	var file model.StoredFile
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, kind, content, created_at FROM files WHERE id = ?
	`, id).Scan(&file).Error
	if err != nil {
		return nil, err
	}
	if file.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &file, nil
}
