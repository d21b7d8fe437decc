// Package cache keeps a local sqlite copy of the user's document
// collection so the list views stay usable while the server is
// unreachable. It is a read cache: the server remains the source of
// truth and every successful fetch replaces the cached collection.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"inkpad/internal/client/cache/migrations"
	"inkpad/internal/dbx"
	"inkpad/internal/document"
)

// Cache is a sqlite-backed snapshot of the document collection.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at dsn and migrates its schema.
func Open(ctx context.Context, dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (c *Cache) Close() error { return c.db.Close() }

// ReplaceAll swaps the cached collection for docs in one transaction.
func (c *Cache) ReplaceAll(ctx context.Context, docs []document.Document) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `delete from documents`); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		for _, d := range docs {
			if err := upsert(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put upserts a single document, keeping the cache close to the server's
// state between full refreshes.
func (c *Cache) Put(ctx context.Context, d document.Document) error {
	return upsert(ctx, c.db, d)
}

func upsert(ctx context.Context, db dbx.DBTX, d document.Document) error {
	query := `insert into documents (id, title, content, user_id, is_starred, created_at, updated_at)
			values (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				content = excluded.content,
				is_starred = excluded.is_starred,
				updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		d.ID, d.Title, d.Content, d.UserID, d.IsStarred, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Remove deletes one document from the cache. Missing ids are not an error.
func (c *Cache) Remove(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `delete from documents where id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// List returns the cached collection ordered by updated_at descending.
func (c *Cache) List(ctx context.Context) ([]document.Document, error) {
	query := `select id, title, content, user_id, is_starred, created_at, updated_at
			from documents order by updated_at desc`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []document.Document
	for rows.Next() {
		var d document.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.UserID, &d.IsStarred, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
