package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Repository is the behavior shared by every repository in this package.
type Repository interface {
	// Transaction runs fn inside a database transaction. The transaction is
	// rolled back when fn returns an error or panics, committed otherwise.
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// BaseRepository holds the shared connection pool and implements Repository.
// Concrete repositories embed it.
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository wraps the given pool.
func NewBaseRepository(db *sqlx.DB) *BaseRepository {
	return &BaseRepository{db: db}
}

// Transaction implements Repository.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// GetDB exposes the underlying pool for single-statement queries.
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}
