package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'quote_status') THEN
			CREATE TYPE quote_status AS ENUM ('draft', 'seller_signed', 'buyer_signed', 'fully_signed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS farmers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_farmers_name ON farmers (name);`,
	`CREATE TABLE IF NOT EXISTS crops (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		farmer_id UUID NOT NULL REFERENCES farmers(id),
		name TEXT NOT NULL,
		base_price NUMERIC(18,2) NOT NULL CHECK (base_price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_crops_farmer_name ON crops (farmer_id, name);`,
	`CREATE INDEX IF NOT EXISTS idx_crops_name ON crops (name);`,
	`CREATE TABLE IF NOT EXISTS crop_discount_tiers (
		crop_id UUID NOT NULL REFERENCES crops(id) ON DELETE CASCADE,
		min_quantity INTEGER NOT NULL CHECK (min_quantity >= 0),
		discount_percent NUMERIC(5,2) NOT NULL CHECK (discount_percent >= 0 AND discount_percent <= 100)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_crop_discount_tiers_crop_id ON crop_discount_tiers (crop_id);`,
	`CREATE TABLE IF NOT EXISTS files (
		id CHAR(64) PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		content BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		quote_number VARCHAR(32) NOT NULL,
		farmer_id UUID NOT NULL REFERENCES farmers(id),
		crop_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		base_price NUMERIC(18,2) NOT NULL,
		subtotal NUMERIC(18,2) NOT NULL,
		discount_percent NUMERIC(5,2) NOT NULL,
		discount_amount NUMERIC(18,2) NOT NULL,
		final_price NUMERIC(18,2) NOT NULL,
		status quote_status NOT NULL DEFAULT 'draft',
		original_file_id CHAR(64) NOT NULL REFERENCES files(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_number ON quotes (quote_number);`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_farmer_created ON quotes (farmer_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_quotes_crop ON quotes (crop_name);`,
	`CREATE TABLE IF NOT EXISTS quote_signatures (
		quote_id UUID NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
		role VARCHAR(16) NOT NULL CHECK (role IN ('seller', 'buyer')),
		token_hash CHAR(64) NOT NULL,
		signed BOOLEAN NOT NULL DEFAULT FALSE,
		signed_at TIMESTAMPTZ,
		file_id CHAR(64) REFERENCES files(id),
		PRIMARY KEY (quote_id, role)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quote_signatures_token_hash ON quote_signatures (token_hash);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
