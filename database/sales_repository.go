package database

import (
	"context"
	"errors"
	"fmt"

	"salesforecast/models"
)

// ErrDuplicateSale is returned when a sale for the same item and date exists.
var ErrDuplicateSale = errors.New("sale for this item and date already exists")

// SaleRepository reads and writes the sales table.
type SaleRepository struct {
	db DBTX
}

func NewSaleRepository(db DBTX) *SaleRepository {
	return &SaleRepository{db: db}
}

// All returns every sale in insertion order.
func (r *SaleRepository) All(ctx context.Context) ([]models.SaleRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT item_id, sale_date, quantity FROM sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []models.SaleRecord
	for rows.Next() {
		var s models.SaleRecord
		if err := rows.Scan(&s.ItemID, &s.SaleDate, &s.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Recent returns the newest sales first.
func (r *SaleRepository) Recent(ctx context.Context, limit int) ([]models.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, sale_date, quantity
		FROM sales
		ORDER BY sale_date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sales: %w", err)
	}
	defer rows.Close()

	sales := make([]models.Sale, 0, limit)
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ItemID, &s.SaleDate, &s.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Create stores a sale and returns it with its id.
func (r *SaleRepository) Create(ctx context.Context, rec models.SaleRecord) (models.Sale, error) {
	sale := models.Sale{SaleRecord: rec}
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales (sale_date, quantity, item_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, rec.SaleDate, rec.Quantity, rec.ItemID).Scan(&sale.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Sale{}, ErrDuplicateSale
		}
		return models.Sale{}, fmt.Errorf("failed to create sale: %w", err)
	}
	return sale, nil
}

// Count returns the number of stored sales.
func (r *SaleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return n, nil
}
