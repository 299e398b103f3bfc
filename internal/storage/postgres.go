package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quantumnous/docsite/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            id UUID PRIMARY KEY,
            locale VARCHAR(35) NOT NULL,
            slug_key VARCHAR(2048) NOT NULL,
            slugs TEXT[] NOT NULL,
            title TEXT,
            description TEXT,
            last_modified TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (locale, slug_key)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_pages_locale ON pages(locale)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) UpsertPage(ctx context.Context, page *models.PageRecord) error {
	query := `
        INSERT INTO pages (id, locale, slug_key, slugs, title, description, last_modified, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (locale, slug_key) DO UPDATE SET
            slugs = EXCLUDED.slugs,
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            last_modified = EXCLUDED.last_modified,
            updated_at = EXCLUDED.updated_at
    `

	_, err := s.db.ExecContext(ctx, query,
		page.ID,
		page.Locale,
		page.SlugKey,
		pq.Array(nonNilSlugs(page.Slugs)),
		page.Title,
		page.Description,
		page.LastModified,
		page.CreatedAt,
		page.UpdatedAt,
	)

	return err
}

func (s *PostgresStore) ListPages(ctx context.Context, locale string, limit, offset int) ([]*models.PageRecord, error) {
	// "C" collation keeps byte order, matching the filesystem source.
	query := `
        SELECT id, locale, slug_key, slugs, title, description, last_modified, created_at, updated_at
        FROM pages
        WHERE locale = $1
        ORDER BY slug_key COLLATE "C"
    `
	if limit <= 0 {
		return s.queryPages(ctx, query, locale)
	}
	return s.queryPages(ctx, query+" LIMIT $2 OFFSET $3", locale, limit, offset)
}

func (s *PostgresStore) CountPages(ctx context.Context, locale string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE locale = $1`, locale).Scan(&n)
	return n, err
}

func (s *PostgresStore) DeletePagesExcept(ctx context.Context, locale string, keep []uuid.UUID) (int64, error) {
	ids := make([]string, len(keep))
	for i, id := range keep {
		ids[i] = id.String()
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pages WHERE locale = $1 AND NOT (id = ANY($2::uuid[]))`,
		locale, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStore) queryPages(ctx context.Context, query string, args ...interface{}) ([]*models.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.PageRecord
	for rows.Next() {
		page := &models.PageRecord{}
		var slugs []string
		var title, description sql.NullString
		var lastModified sql.NullTime

		err := rows.Scan(
			&page.ID,
			&page.Locale,
			&page.SlugKey,
			pq.Array(&slugs),
			&title,
			&description,
			&lastModified,
			&page.CreatedAt,
			&page.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		page.Slugs = nonNilSlugs(slugs)
		page.Title = title.String
		page.Description = description.String
		if lastModified.Valid {
			t := lastModified.Time
			page.LastModified = &t
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
