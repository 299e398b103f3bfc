package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/quantumnous/docsite/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	// A single writer avoids "database is locked" during re-indexing.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            id TEXT PRIMARY KEY,
            locale TEXT NOT NULL,
            slug_key TEXT NOT NULL,
            slugs TEXT NOT NULL,
            title TEXT,
            description TEXT,
            last_modified DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(locale, slug_key)
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

func (s *SQLiteStore) UpsertPage(ctx context.Context, page *models.PageRecord) error {
	query := `
        INSERT INTO pages (id, locale, slug_key, slugs, title, description, last_modified, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(locale, slug_key) DO UPDATE SET
            slugs = excluded.slugs,
            title = excluded.title,
            description = excluded.description,
            last_modified = excluded.last_modified,
            updated_at = excluded.updated_at
    `

	slugsJSON, err := json.Marshal(nonNilSlugs(page.Slugs))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		page.ID.String(),
		page.Locale,
		page.SlugKey,
		string(slugsJSON),
		page.Title,
		page.Description,
		page.LastModified,
		page.CreatedAt,
		page.UpdatedAt,
	)

	return err
}

func (s *SQLiteStore) ListPages(ctx context.Context, locale string, limit, offset int) ([]*models.PageRecord, error) {
	query := `
        SELECT id, locale, slug_key, slugs, title, description, last_modified, created_at, updated_at
        FROM pages
        WHERE locale = ?
        ORDER BY slug_key
    `
	if limit <= 0 {
		return s.queryPages(ctx, query, locale)
	}
	return s.queryPages(ctx, query+" LIMIT ? OFFSET ?", locale, limit, offset)
}

func (s *SQLiteStore) CountPages(ctx context.Context, locale string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE locale = ?`, locale).Scan(&n)
	return n, err
}

func (s *SQLiteStore) DeletePagesExcept(ctx context.Context, locale string, keep []uuid.UUID) (int64, error) {
	query := `DELETE FROM pages WHERE locale = ?`
	args := []interface{}{locale}
	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, id := range keep {
			placeholders[i] = "?"
			args = append(args, id.String())
		}
		query += " AND id NOT IN (" + strings.Join(placeholders, ", ") + ")"
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) queryPages(ctx context.Context, query string, args ...interface{}) ([]*models.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.PageRecord
	for rows.Next() {
		var page models.PageRecord
		var idStr, slugsJSON string
		var title, description sql.NullString
		var lastModified sql.NullTime

		err := rows.Scan(
			&idStr,
			&page.Locale,
			&page.SlugKey,
			&slugsJSON,
			&title,
			&description,
			&lastModified,
			&page.CreatedAt,
			&page.UpdatedAt,
		)

		if err != nil {
			return nil, err
		}

		page.ID, _ = uuid.Parse(idStr)
		page.Title = title.String
		page.Description = description.String
		if lastModified.Valid {
			t := lastModified.Time
			page.LastModified = &t
		}
		if err := json.Unmarshal([]byte(slugsJSON), &page.Slugs); err != nil {
			return nil, fmt.Errorf("invalid slugs for %s: %w", idStr, err)
		}

		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNilSlugs(slugs []string) []string {
	if slugs == nil {
		return []string{}
	}
	return slugs
}
