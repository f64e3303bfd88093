// Package postgres implements the repository interfaces against a
// Postgres database via sqlx, using a generic BaseRepository for the
// CRUD operations shared by every entity table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wodbooker-go/internal/store"
)

// HandleSQLError converts sql.ErrNoRows to store.ErrorNotFound and
// passes everything else through unchanged.
func HandleSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrorNotFound
	}
	return err
}

// BaseRepository provides common CRUD operations embeddable in any
// entity-specific repository via Go generics.
type BaseRepository[T any] struct {
	db        *sqlx.DB
	tableName string
}

// NewBaseRepository creates a new base repository instance.
func NewBaseRepository[T any](db *sqlx.DB, tableName string) BaseRepository[T] {
	return BaseRepository[T]{db: db, tableName: tableName}
}

// GenerateID generates a new UUID for entity IDs.
func (r *BaseRepository[T]) GenerateID() string {
	return uuid.New().String()
}

// Get retrieves a single entity by ID. Returns store.ErrorNotFound if
// it doesn't exist.
func (r *BaseRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var entity T
	query := fmt.Sprintf("SELECT * FROM %s WHERE id=$1", r.tableName)
	err := r.db.GetContext(ctx, &entity, query, id)
	return entity, HandleSQLError(err)
}

// List retrieves all entities ordered by id.
func (r *BaseRepository[T]) List(ctx context.Context) ([]T, error) {
	return r.ListWithOrder(ctx, "id")
}

// ListWithOrder retrieves all entities with a custom ORDER BY clause.
func (r *BaseRepository[T]) ListWithOrder(ctx context.Context, orderBy string) ([]T, error) {
	var entities []T
	if orderBy == "" {
		orderBy = "id"
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", r.tableName, orderBy)
	err := r.db.SelectContext(ctx, &entities, query)
	return entities, err
}

// Delete removes an entity by ID. Returns store.ErrorNotFound if it
// doesn't exist.
func (r *BaseRepository[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1 RETURNING id", r.tableName)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&id)
	return HandleSQLError(err)
}

// Exists checks if an entity with the given ID exists.
func (r *BaseRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id=$1)", r.tableName)
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, id)
	return exists, err
}

// Count returns the total number of rows in the table.
func (r *BaseRepository[T]) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.tableName)
	var count int64
	err := r.db.GetContext(ctx, &count, query)
	return count, err
}

// GetDB returns the underlying database connection, for repositories
// that need to run entity-specific queries beyond the generic ones.
func (r *BaseRepository[T]) GetDB() *sqlx.DB {
	return r.db
}

// GetTableName returns the table name for this repository.
func (r *BaseRepository[T]) GetTableName() string {
	return r.tableName
}

// BatchGet retrieves multiple entities by ID, in no particular order
// relative to the input (ordered by id). Missing IDs are omitted.
func (r *BaseRepository[T]) BatchGet(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = ANY($1) ORDER BY id`, r.tableName)
	var entities []T
	err := r.db.SelectContext(ctx, &entities, query, ids)
	return entities, HandleSQLError(err)
}

// Transaction executes fn within a database transaction, rolling back
// on error and committing otherwise.
func (r *BaseRepository[T]) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
