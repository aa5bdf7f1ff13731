package source

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/theimaginaryfoundation/review-digest/digest"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteCollector reads ratings and posts from a SQLite database. It never writes during Collect.
type SQLiteCollector struct {
	db *sql.DB
}

var _ digest.Collector = (*SQLiteCollector)(nil)

// OpenSQLite opens an existing database at path and ensures the schema exists. A missing file is
// an error wrapping fs.ErrNotExist, so a mistyped path is not served as an empty corpus.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCollector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return openSQLite(ctx, path)
}

// CreateSQLite opens the database at path, creating the file and schema when missing.
func CreateSQLite(ctx context.Context, path string) (*SQLiteCollector, error) {
	return openSQLite(ctx, path)
}

func openSQLite(ctx context.Context, path string) (*SQLiteCollector, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c := &SQLiteCollector{db: db}
	if err := c.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Migrate creates the ratings and posts tables when missing.
func (c *SQLiteCollector) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (c *SQLiteCollector) Close() error {
	return c.db.Close()
}

// Collect returns the subject's ratings then its posts, each ordered by id.
func (c *SQLiteCollector) Collect(ctx context.Context, subjectID string) ([]digest.SourceItem, error) {
	ratings, err := c.ratings(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	posts, err := c.posts(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return append(ratings, posts...), nil
}

func (c *SQLiteCollector) ratings(ctx context.Context, subjectID string) ([]digest.SourceItem, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, stars, comment, votes, tags, created_at FROM ratings WHERE subject_id = ? ORDER BY id`,
		subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying ratings: %w", err)
	}
	defer rows.Close()

	var out []digest.SourceItem
	for rows.Next() {
		it := digest.SourceItem{Kind: digest.KindRating}
		var tags string
		if err := rows.Scan(&it.ID, &it.Stars, &it.Text, &it.Votes, &tags, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
				return nil, fmt.Errorf("rating %s: decoding tags: %w", it.ID, err)
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (c *SQLiteCollector) posts(ctx context.Context, subjectID string) ([]digest.SourceItem, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, content, created_at FROM posts WHERE subject_id = ? ORDER BY id`,
		subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var out []digest.SourceItem
	for rows.Next() {
		it := digest.SourceItem{Kind: digest.KindPost}
		if err := rows.Scan(&it.ID, &it.Text, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Import upserts items for subjectID in one transaction. It backs fixtures and corpus imports.
func (c *SQLiteCollector) Import(ctx context.Context, subjectID string, items []digest.SourceItem) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, it := range items {
		switch it.Kind {
		case digest.KindRating:
			tags := it.Tags
			if tags == nil {
				tags = []string{}
			}
			b, mErr := json.Marshal(tags)
			if mErr != nil {
				return fmt.Errorf("rating %s: encoding tags: %w", it.ID, mErr)
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO ratings (id, subject_id, stars, comment, votes, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				it.ID, subjectID, it.Stars, it.Text, it.Votes, string(b), it.CreatedAt); err != nil {
				return fmt.Errorf("inserting rating %s: %w", it.ID, err)
			}
		default:
			if _, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO posts (id, subject_id, content, created_at) VALUES (?, ?, ?, ?)`,
				it.ID, subjectID, it.Text, it.CreatedAt); err != nil {
				return fmt.Errorf("inserting post %s: %w", it.ID, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}
