package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

// LayoutRepository persists the serialized split tree. A single row
// holds the whole layout; saving overwrites it.
type LayoutRepository struct {
	db *sql.DB
}

// NewLayoutRepository creates a repository over an open library database.
func NewLayoutRepository(db *sql.DB) *LayoutRepository {
	return &LayoutRepository{db: db}
}

// Save stores the serialized tree, replacing any previous layout.
func (r *LayoutRepository) Save(tree []byte) error {
	_, err := r.db.Exec(
		`INSERT INTO layout (id, tree, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET tree = excluded.tree, updated_at = CURRENT_TIMESTAMP`,
		string(tree),
	)
	if err != nil {
		return fmt.Errorf("saving layout: %w", err)
	}
	return nil
}

// Load returns the saved serialized tree, or nil when no layout has been
// saved yet.
func (r *LayoutRepository) Load() ([]byte, error) {
	var tree string
	err := r.db.QueryRow(`SELECT tree FROM layout WHERE id = 1`).Scan(&tree)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}
	return []byte(tree), nil
}
