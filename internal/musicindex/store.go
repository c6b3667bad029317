package musicindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mikey-austin/socos/internal/core"
	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// FileName is the index file created in the socos config directory.
const FileName = "music_index.db"

// PageSize is the number of catalog items fetched and committed at a time.
const PageSize = 1000

// Store is the sqlite copy of a player's catalog. The database is opened on
// first use and kept open until Close.
type Store struct {
	path string
	log  *zap.Logger
	db   *sql.DB
}

// NewStore creates a store for the file at path.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

// Close closes the database if it was opened.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) open() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	s.log.Debug("music index opened", zap.String("path", s.path))
	s.db = db
	return db, nil
}

// Rebuild replaces the index with the catalog's current contents. Work
// happens while the returned sequence is consumed; it yields one progress
// line per page.
func (s *Store) Rebuild(ctx context.Context, catalog ports.Catalog) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		db, err := s.open()
		if err != nil {
			yield("", err)
			return
		}
		if err := s.resetTables(ctx, db); err != nil {
			yield("", err)
			return
		}
		for _, t := range tables {
			if !s.indexCategory(ctx, db, catalog, t, yield) {
				return
			}
		}
	}
}

func (s *Store) resetTables(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, t.dropSQL()); err != nil {
			return fmt.Errorf("drop %s: %w", t.category, err)
		}
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("create %s: %w", t.category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// indexCategory pages one category into its table. It reports whether the
// caller should continue.
func (s *Store) indexCategory(ctx context.Context, db *sql.DB, catalog ports.Catalog, t table,
	yield func(string, error) bool) bool {
	fetched := 0
	for {
		page, err := catalog.LibraryItems(ctx, t.category, fetched, PageSize)
		if err != nil {
			yield("", fmt.Errorf("library %s at %d: %w", t.category, fetched, err))
			return false
		}
		total := page.TotalMatches
		if len(page.Items) == 0 {
			if fetched < total {
				yield("", fmt.Errorf("library %s: empty page at %d of %d", t.category, fetched, total))
				return false
			}
			if total == 0 {
				return yield(progressLine(t.category, 0, 0), nil)
			}
			return true
		}
		if err := s.insertPage(ctx, db, t, page.Items); err != nil {
			yield("", err)
			return false
		}
		fetched += len(page.Items)
		s.log.Debug("indexed page",
			zap.String("category", t.category),
			zap.Int("fetched", fetched),
			zap.Int("total", total))
		if !yield(progressLine(t.category, fetched, total), nil) {
			return false
		}
		if fetched >= total {
			return true
		}
	}
}

func progressLine(category string, fetched, total int) string {
	pct := 100
	if total > 0 {
		pct = fetched * 100 / total
	}
	return fmt.Sprintf("%s: %d%% (%d of %d)", category, pct, fetched, total)
}

func (s *Store) insertPage(ctx context.Context, db *sql.DB, t table, items []zone.LibraryItem) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s page: %w", t.category, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, t.insertSQL())
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", t.category, err)
	}
	defer stmt.Close()

	for _, item := range items {
		content, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s: %w", item.ItemID, err)
		}
		args := make([]any, 0, len(t.columns)+1)
		for _, c := range t.columns {
			args = append(args, c.value(item))
		}
		args = append(args, string(content))
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", t.category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s page: %w", t.category, err)
	}
	return nil
}

// Search returns the rows of category whose field contains pattern.
func (s *Store) Search(ctx context.Context, category, field, pattern string) ([]ports.IndexRecord, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := s.requireIndexed(ctx, db); err != nil {
		return nil, err
	}
	t, ok := tableFor(category)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if !t.hasField(field) {
		return nil, core.Errorf(core.ErrUnknownField, "Unknown field %q for %s. Valid fields: %s",
			field, category, strings.Join(t.fieldNames(), ", "))
	}

	rows, err := db.QueryContext(ctx, t.selectSQL(field), "%"+pattern+"%")
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", category, err)
	}
	defer rows.Close()

	out := make([]ports.IndexRecord, 0)
	for rows.Next() {
		values := make([]sql.NullString, len(t.columns))
		var content string
		dest := make([]any, 0, len(values)+1)
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &content)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", category, err)
		}

		rec := ports.IndexRecord{Content: json.RawMessage(content)}
		for i, c := range t.columns {
			switch c.name {
			case titleColumn.name:
				rec.Title = values[i].String
			case albumColumn.name:
				rec.Album = values[i].String
			case artistColumn.name:
				rec.Artist = values[i].String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", category, err)
	}
	return out, nil
}

// Counts returns the number of rows per category.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := s.requireIndexed(ctx, db); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.category).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.category, err)
		}
		out[t.category] = n
	}
	return out, nil
}

func (s *Store) requireIndexed(ctx context.Context, db *sql.DB) error {
	names := make([]any, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.category)
	}
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"
	var n int
	if err := db.QueryRowContext(ctx, query, names...).Scan(&n); err != nil {
		return fmt.Errorf("inspect index: %w", err)
	}
	if n != len(tables) {
		return core.Errorf(core.ErrNotIndexed, "The music library is not indexed. Run 'ml_index' first.")
	}
	return nil
}
