package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"inkpad/internal/common"
	"inkpad/internal/dbx"
	"inkpad/internal/document"
	"inkpad/internal/server/repository/migrations"
)

const pgUniqueViolation = "23505"

// Postgres implements Manager on top of a PostgreSQL pool.
type Postgres struct {
	db *sql.DB

	users  *postgresUsers
	tokens *postgresRefreshTokens
	docs   *postgresDocuments
}

// NewPostgres opens a pool for the given DSN and pings it.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging db: %w", err)
	}
	return NewPostgresFromDB(db), nil
}

// NewPostgresFromDB wraps an existing pool. Used by tests with sqlmock.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{
		db:     db,
		users:  &postgresUsers{db: db},
		tokens: &postgresRefreshTokens{db: db},
		docs:   &postgresDocuments{db: db},
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate runs the embedded schema migrations against the pool.
func (p *Postgres) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, p.db, ".")
}

func (p *Postgres) Users() Users { return p.users }

func (p *Postgres) RefreshTokens() RefreshTokens { return p.tokens }

func (p *Postgres) Documents() Documents { return p.docs }

func (p *Postgres) Close() error { return p.db.Close() }

type postgresUsers struct {
	db dbx.DBTX
}

func (r *postgresUsers) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, u.Username, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *postgresUsers) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, password_hash, created_at FROM users
		WHERE username = $1
	`
	u := &User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

type postgresRefreshTokens struct {
	db dbx.DBTX
}

func (r *postgresRefreshTokens) Save(ctx context.Context, t *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokens) Get(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at FROM refresh_tokens
		WHERE token = $1
	`
	t := &RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *postgresRefreshTokens) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type postgresDocuments struct {
	db dbx.DBTX
}

const documentColumns = `id, title, content, user_id, is_starred, created_at, updated_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (document.Document, error) {
	var d document.Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.UserID, &d.IsStarred, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *postgresDocuments) List(ctx context.Context, userID, id string) ([]document.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documents
		WHERE user_id = $1
	`
	args := []any{userID}
	if id != "" {
		query += ` AND id = $2`
		args = append(args, id)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if id != "" && len(result) == 0 {
		return nil, common.ErrNotFound
	}
	return result, nil
}

func (r *postgresDocuments) Create(ctx context.Context, d document.Document) (document.Document, error) {
	query := `
		INSERT INTO documents (title, content, user_id, is_starred)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + documentColumns + `
	`
	stored, err := scanDocument(r.db.QueryRowContext(ctx, query,
		d.Title, d.Content, d.UserID, d.IsStarred))
	if err != nil {
		return document.Document{}, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

func (r *postgresDocuments) Update(ctx context.Context, userID, id string, p document.Patch) (document.Document, error) {
	sets := []string{"updated_at = now()"}
	args := []any{userID, id}
	next := 3
	if p.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", next))
		args = append(args, *p.Title)
		next++
	}
	if p.Content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", next))
		args = append(args, *p.Content)
		next++
	}
	if p.IsStarred != nil {
		sets = append(sets, fmt.Sprintf("is_starred = $%d", next))
		args = append(args, *p.IsStarred)
	}

	query := `
		UPDATE documents SET ` + strings.Join(sets, ", ") + `
		WHERE user_id = $1 AND id = $2
		RETURNING ` + documentColumns + `
	`
	stored, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Document{}, common.ErrNotFound
		}
		return document.Document{}, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

func (r *postgresDocuments) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM documents
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// PurgeExpiredTokens removes refresh tokens whose expiry is in the past.
// Intended to be run periodically by the server.
func (p *Postgres) PurgeExpiredTokens(ctx context.Context, now time.Time) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
	if _, err := p.db.ExecContext(ctx, query, now); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
