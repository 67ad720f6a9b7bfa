package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anushreddydasari/cpqagri/internal/model"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create persists the quote together with its per-role signature rows in one
// transaction.
func (r *QuoteRepository) Create(ctx context.Context, quote model.Quote, signatures []model.QuoteSignature) (*model.Quote, error) {
	var saved model.Quote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO quotes (
				quote_number,
				farmer_id,
				crop_name,
				quantity,
				base_price,
				subtotal,
				discount_percent,
				discount_amount,
				final_price,
				status,
				original_file_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING
				id,
				quote_number,
				farmer_id,
				crop_name,
				quantity,
				base_price,
				subtotal,
				discount_percent,
				discount_amount,
				final_price,
				status,
				original_file_id,
				created_at
		`,
			quote.QuoteNumber,
			quote.FarmerID,
			quote.CropName,
			quote.Quantity,
			quote.BasePrice,
			quote.Subtotal,
			quote.DiscountPercent,
			quote.DiscountAmount,
			quote.FinalPrice,
			quote.Status,
			quote.OriginalFileID,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, sig := range signatures {
			err := tx.Exec(`
				INSERT INTO quote_signatures (quote_id, role, token_hash)
				VALUES (?, ?, ?)
			`, saved.ID, sig.Role, sig.TokenHash).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *QuoteRepository) GetByNumber(ctx context.Context, number string) (*model.Quote, error) {
	return r.getOne(ctx, `WHERE quote_number = ?`, number)
}

func (r *QuoteRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Quote, error) {
	var quote model.Quote
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			quote_number,
			farmer_id,
			crop_name,
			quantity,
			base_price,
			subtotal,
			discount_percent,
			discount_amount,
			final_price,
			status,
			original_file_id,
			created_at
		FROM quotes `+where, arg).Scan(&quote).Error
	if err != nil {
		return nil, err
	}
	if quote.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &quote, nil
}

func (r *QuoteRepository) GetSignature(ctx context.Context, quoteID uuid.UUID, role model.SignerRole) (*model.QuoteSignature, error) {
	var sig model.QuoteSignature
	err := r.db.WithContext(ctx).Raw(`
		SELECT quote_id, role, token_hash, signed, signed_at, file_id
		FROM quote_signatures WHERE quote_id = ? AND role = ?
	`, quoteID, role).Scan(&sig).Error
	if err != nil {
		return nil, err
	}
	if sig.QuoteID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &sig, nil
}

func (r *QuoteRepository) FindSignatureByTokenHash(ctx context.Context, hash string) (*model.QuoteSignature, error) {
	var sig model.QuoteSignature
	err := r.db.WithContext(ctx).Raw(`
		SELECT quote_id, role, token_hash, signed, signed_at, file_id
		FROM quote_signatures WHERE token_hash = ?
	`, hash).Scan(&sig).Error
	if err != nil {
		return nil, err
	}
	if sig.QuoteID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &sig, nil
}

// MarkSigned atomically flips the role sub-state to signed and recomputes the
// overall quote status from both sub-states in the same transaction. Returns
// false when the role was already signed, in which case nothing changes; a
// concurrent duplicate submission therefore cannot clobber the first one.
func (r *QuoteRepository) MarkSigned(ctx context.Context, quoteID uuid.UUID, role model.SignerRole, fileID string, at time.Time) (bool, error) {
	marked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize competing role marks on the quote row. Without this,
		// two different-role marks update different signature rows, and
		// under READ COMMITTED the loser's recompute below joins against a
		// snapshot taken before the winner committed, leaving the status one
		// step behind fully_signed.
		var locked uuid.UUID
		if err := tx.Raw(`SELECT id FROM quotes WHERE id = ? FOR UPDATE`, quoteID).Scan(&locked).Error; err != nil {
			return err
		}

		result := tx.Exec(`
			UPDATE quote_signatures
			SET signed = TRUE, signed_at = ?, file_id = ?
			WHERE quote_id = ? AND role = ? AND signed = FALSE
		`, at, fileID, quoteID, role)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		marked = true

		return tx.Exec(`
			UPDATE quotes q
			SET status = (CASE
				WHEN s.seller AND s.buyer THEN 'fully_signed'
				WHEN s.seller THEN 'seller_signed'
				WHEN s.buyer THEN 'buyer_signed'
				ELSE 'draft'
			END)::quote_status
			FROM (
				SELECT
					BOOL_OR(role = 'seller' AND signed) AS seller,
					BOOL_OR(role = 'buyer' AND signed) AS buyer
				FROM quote_signatures
				WHERE quote_id = ?
			) s
			WHERE q.id = ?
		`, quoteID, quoteID).Error
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

func (r *QuoteRepository) ListRegister(ctx context.Context) ([]model.QuoteRegisterRow, error) {
	var rows []model.QuoteRegisterRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			q.quote_number,
			f.name AS farmer_name,
			q.crop_name,
			q.quantity,
			q.subtotal,
			q.discount_percent,
			q.final_price,
			q.status,
			q.created_at
		FROM quotes q
		JOIN farmers f ON f.id = q.farmer_id
		ORDER BY q.created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QuoteRepository) DeleteByFarmer(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM quotes WHERE farmer_id = ?`, farmerID)
	return result.RowsAffected, result.Error
}

func (r *QuoteRepository) DeleteByFarmerAndCrop(ctx context.Context, farmerID uuid.UUID, cropName string) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM quotes WHERE farmer_id = ? AND crop_name = ?
	`, farmerID, cropName)
	return result.RowsAffected, result.Error
}
