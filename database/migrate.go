package database

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
		id SERIAL PRIMARY KEY,
		sale_date DATE NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		item_id INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sales_item_id ON sales (item_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(100) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id SERIAL PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		role_id INTEGER NOT NULL REFERENCES roles (id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, role_id)
	)`,
}

// uniqueSaleIndex is applied after duplicates are removed so older tables
// without the constraint can still be upgraded.
const uniqueSaleIndex = `CREATE UNIQUE INDEX IF NOT EXISTS unique_sale_date_item ON sales (sale_date, item_id)`

// Migrate creates the schema if it does not exist. It is safe to run on every start.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if _, err := RemoveDuplicateSales(ctx, db); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, uniqueSaleIndex); err != nil {
		return fmt.Errorf("migrate unique sale index: %w", err)
	}
	return nil
}

// RemoveDuplicateSales keeps the lowest id for each (sale_date, item_id) pair
// and deletes the rest.
func RemoveDuplicateSales(ctx context.Context, db DBTX) (int64, error) {
	tag, err := db.Exec(ctx, `
		DELETE FROM sales a
		USING sales b
		WHERE a.item_id = b.item_id
		  AND a.sale_date = b.sale_date
		  AND a.id > b.id
	`)
	if err != nil {
		return 0, fmt.Errorf("remove duplicate sales: %w", err)
	}
	return tag.RowsAffected(), nil
}
