package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository"
	_ "github.com/mattn/go-sqlite3"
)

const initScript = `
	CREATE TABLE IF NOT EXISTS gallery_item (
		position INTEGER PRIMARY KEY,
		item_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		images TEXT NOT NULL);`

type row struct {
	Position int    `db:"position"`
	ItemID   int    `db:"item_id"`
	Title    string `db:"title"`
	Category string `db:"category"`
	Images   string `db:"images"`
}

// Store keeps a snapshot of the gallery in a SQLite database, one row per
// item in document order.
type Store struct {
	db *sqlx.DB
	sync.Mutex
}

var _ repository.Repository = (*Store)(nil)

func Open(dbName string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dbName)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %v: %w", dbName, err)
	}
	if _, err := db.Exec(initScript); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating gallery schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Fetch(ctx context.Context) (*gallery.Database, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, "SELECT position, item_id, title, category, images FROM gallery_item ORDER BY position;"); err != nil {
		return nil, fmt.Errorf("querying gallery items: %w", err)
	}
	db := &gallery.Database{Images: make([]*gallery.Item, 0, len(rows))}
	for _, r := range rows {
		it := &gallery.Item{ID: r.ItemID, Title: r.Title, Category: r.Category}
		if err := json.Unmarshal([]byte(r.Images), &it.Images); err != nil {
			return nil, fmt.Errorf("decoding images of %q: %w", r.Title, err)
		}
		db.Images = append(db.Images, it)
	}
	return db, nil
}

// Flush replaces the stored snapshot in a single transaction.
func (s *Store) Flush(ctx context.Context, db gallery.Database) error {
	s.Lock()
	defer s.Unlock()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM gallery_item;"); err != nil {
		return fmt.Errorf("clearing gallery items: %w", err)
	}
	for i, it := range db.Images {
		images := it.Images
		if images == nil {
			images = []gallery.ImageRef{}
		}
		b, err := json.Marshal(images)
		if err != nil {
			return fmt.Errorf("encoding images of %q: %w", it.Title, err)
		}
		r := row{Position: i, ItemID: it.ID, Title: it.Title, Category: it.Category, Images: string(b)}
		if _, err := tx.NamedExecContext(ctx, "INSERT INTO gallery_item (position, item_id, title, category, images) VALUES (:position, :item_id, :title, :category, :images)", r); err != nil {
			return fmt.Errorf("inserting %q: %w", it.Title, err)
		}
	}
	return tx.Commit()
}
