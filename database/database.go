package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB is a global variable to hold the database connection pool.
var DB *pgxpool.Pool

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// Connect sets up the database connection pool and waits until the server
// answers a ping, retrying once per second up to retries times.
func Connect(ctx context.Context, databaseURL string, retries int, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt >= max(retries, 1) {
			pool.Close()
			return nil, fmt.Errorf("database ping failed after %d attempts: %w", attempt, err)
		}
		log.Info("waiting for database", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	DB = pool
	log.Info("successfully connected to the database")
	return pool, nil
}

// Close closes the database connection pool.
func Close(log *zap.Logger) {
	if DB != nil {
		DB.Close()
		DB = nil
		log.Info("database connection pool closed")
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
