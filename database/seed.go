package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"salesforecast/models"
	"salesforecast/utils"
)

// Copier is implemented by *pgxpool.Pool and pgx.Conn.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var sampleQuantities = map[int64][]int{
	1: {4, 2, 7, 11, 5, 7, 3, 2, 1, 9, 10, 7, 6, 1, 3, 2, 4, 12, 8, 6, 3, 2},
	2: {6, 4, 8, 5, 3, 5, 8, 2, 9, 5, 2, 7, 2, 5, 2, 8, 10, 2, 4, 3, 1, 9},
}

var sampleStart = time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

// SampleSales is the demo dataset: daily sales of items 1 and 2 from
// 2024-12-31 to 2025-01-21.
func SampleSales() []models.SaleRecord {
	var out []models.SaleRecord
	for _, item := range []int64{1, 2} {
		for i, q := range sampleQuantities[item] {
			out = append(out, models.SaleRecord{
				ItemID:   item,
				SaleDate: sampleStart.AddDate(0, 0, i),
				Quantity: q,
			})
		}
	}
	return out
}

// SeedSampleSales loads SampleSales when the sales table is empty and
// returns the number of rows inserted.
func SeedSampleSales(ctx context.Context, db Copier, sales *SaleRepository, log *zap.Logger) (int64, error) {
	count, err := sales.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info("sales table already has data, skipping sample seed", zap.Int("rows", count))
		return 0, nil
	}

	records := SampleSales()
	n, err := db.CopyFrom(ctx,
		pgx.Identifier{"sales"},
		[]string{"sale_date", "quantity", "item_id"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.SaleDate, r.Quantity, r.ItemID}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to seed sample sales: %w", err)
	}
	log.Info("sample sales seeded", zap.Int64("rows", n))
	return n, nil
}

// EnsureAdmin creates the bootstrap admin account if it is missing and makes
// sure it holds the admin role.
func EnsureAdmin(ctx context.Context, users *UserRepository, username, email, password string, log *zap.Logger) error {
	user, err := users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		user, err = users.Create(ctx, username, email, string(hash))
		if err != nil {
			return err
		}
		log.Info("admin user created", zap.String("username", username))
	case err != nil:
		return err
	default:
		log.Info("admin user already exists", zap.String("username", username))
	}
	return users.AssignRole(ctx, user.ID, utils.RoleAdmin)
}
