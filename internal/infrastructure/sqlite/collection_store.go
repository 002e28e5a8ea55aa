package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/log"
)

// DefaultPageSize bounds FetchPage result sizes.
const DefaultPageSize = 200

// CollectionStore implements collection.Service over the local library
// database. Cursors are plain row offsets; version tokens are "v<n>"
// where n is the playlist's version counter, bumped on every mutation.
type CollectionStore struct {
	db       *sql.DB
	pageSize int
}

// NewCollectionStore creates a store over an open library database.
func NewCollectionStore(db *sql.DB) *CollectionStore {
	return &CollectionStore{db: db, pageSize: DefaultPageSize}
}

var _ collection.Service = (*CollectionStore)(nil)

func token(version int64) string {
	return "v" + strconv.FormatInt(version, 10)
}

// playlistVersion returns the playlist's version counter, or
// collection.ErrNotFound for unknown playlists.
func playlistVersion(q interface {
	QueryRow(string, ...any) *sql.Row
}, collectionID string) (int64, error) {
	var version int64
	err := q.QueryRow(`SELECT version FROM playlists WHERE id = ?`, collectionID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, collection.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reading playlist version: %w", err)
	}
	return version, nil
}

func (s *CollectionStore) FetchPage(ctx context.Context, collectionID, cursor string) (collection.Page, error) {
	version, err := playlistVersion(s.db, collectionID)
	if err != nil {
		return collection.Page{}, err
	}

	offset := 0
	if cursor != "" {
		offset, err = strconv.Atoi(cursor)
		if err != nil || offset < 0 {
			return collection.Page{}, fmt.Errorf("malformed cursor %q", cursor)
		}
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlist_items WHERE playlist_id = ?`, collectionID,
	).Scan(&total); err != nil {
		return collection.Page{}, fmt.Errorf("counting items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.title, t.artist, t.duration_ms
		 FROM playlist_items pi JOIN tracks t ON t.id = pi.track_id
		 WHERE pi.playlist_id = ?
		 ORDER BY pi.position LIMIT ? OFFSET ?`,
		collectionID, s.pageSize, offset,
	)
	if err != nil {
		return collection.Page{}, fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []collection.Item
	for rows.Next() {
		var item collection.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Artist, &item.DurationMS); err != nil {
			return collection.Page{}, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return collection.Page{}, fmt.Errorf("iterating items: %w", err)
	}

	next := ""
	if offset+len(items) < total {
		next = strconv.Itoa(offset + len(items))
	}
	return collection.Page{
		Items:        items,
		NextCursor:   next,
		Total:        total,
		VersionToken: token(version),
	}, nil
}

// trackIDs reads a playlist's track ids in position order, inside tx.
func trackIDs(tx *sql.Tx, collectionID string) ([]string, error) {
	rows, err := tx.Query(
		`SELECT track_id FROM playlist_items WHERE playlist_id = ? ORDER BY position`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading playlist order: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning track id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rewriteOrder replaces a playlist's rows with the given ordering and
// bumps its version. Returns the new version token.
func rewriteOrder(tx *sql.Tx, collectionID string, ids []string) (string, error) {
	if _, err := tx.Exec(`DELETE FROM playlist_items WHERE playlist_id = ?`, collectionID); err != nil {
		return "", fmt.Errorf("clearing playlist: %w", err)
	}
	for pos, id := range ids {
		if _, err := tx.Exec(
			`INSERT INTO playlist_items (playlist_id, position, track_id) VALUES (?, ?, ?)`,
			collectionID, pos, id,
		); err != nil {
			return "", fmt.Errorf("writing position %d: %w", pos, err)
		}
	}
	if _, err := tx.Exec(`UPDATE playlists SET version = version + 1 WHERE id = ?`, collectionID); err != nil {
		return "", fmt.Errorf("bumping version: %w", err)
	}
	version, err := playlistVersion(tx, collectionID)
	if err != nil {
		return "", err
	}
	return token(version), nil
}

func (s *CollectionStore) mutate(ctx context.Context, collectionID string, fn func(*sql.Tx, []string) ([]string, error)) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := playlistVersion(tx, collectionID); err != nil {
		return "", err
	}
	ids, err := trackIDs(tx, collectionID)
	if err != nil {
		return "", err
	}
	ids, err = fn(tx, ids)
	if err != nil {
		return "", err
	}
	tok, err := rewriteOrder(tx, collectionID, ids)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return tok, nil
}

func (s *CollectionStore) AddItems(ctx context.Context, collectionID string, itemIDs []string, position int) (string, error) {
	return s.mutate(ctx, collectionID, func(tx *sql.Tx, ids []string) ([]string, error) {
		// Every added track must exist in the catalog; refetch needs its
		// metadata.
		for _, id := range itemIDs {
			var exists int
			err := tx.QueryRow(`SELECT 1 FROM tracks WHERE id = ?`, id).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("track %s: %w", id, collection.ErrNotFound)
			}
			if err != nil {
				return nil, fmt.Errorf("checking track %s: %w", id, err)
			}
		}

		if position == collection.AppendPosition || position > len(ids) {
			position = len(ids)
		}
		if position < 0 {
			position = 0
		}
		out := make([]string, 0, len(ids)+len(itemIDs))
		out = append(out, ids[:position]...)
		out = append(out, itemIDs...)
		out = append(out, ids[position:]...)
		log.Debug(log.CatDB, "items added", "playlist", collectionID, "count", len(itemIDs), "position", position)
		return out, nil
	})
}

func (s *CollectionStore) RemoveItems(ctx context.Context, collectionID string, refs []collection.ItemRef) (string, error) {
	return s.mutate(ctx, collectionID, func(tx *sql.Tx, ids []string) ([]string, error) {
		drop := make(map[int]struct{})
		for _, ref := range refs {
			if len(ref.Positions) == 0 {
				for i, id := range ids {
					if id == ref.ID {
						drop[i] = struct{}{}
					}
				}
				continue
			}
			for _, pos := range ref.Positions {
				if pos >= 0 && pos < len(ids) && ids[pos] == ref.ID {
					drop[pos] = struct{}{}
				}
			}
		}
		out := make([]string, 0, len(ids))
		for i, id := range ids {
			if _, gone := drop[i]; !gone {
				out = append(out, id)
			}
		}
		log.Debug(log.CatDB, "items removed", "playlist", collectionID, "count", len(drop))
		return out, nil
	})
}

func (s *CollectionStore) Reorder(ctx context.Context, collectionID string, fromIndex, toIndex, rangeLength int, versionToken string) (string, error) {
	return s.mutate(ctx, collectionID, func(tx *sql.Tx, ids []string) ([]string, error) {
		version, err := playlistVersion(tx, collectionID)
		if err != nil {
			return nil, err
		}
		if versionToken != "" && versionToken != token(version) {
			return nil, fmt.Errorf("playlist %s at %s, caller sent %s: %w",
				collectionID, token(version), versionToken, collection.ErrVersionConflict)
		}
		if rangeLength <= 0 || fromIndex < 0 || fromIndex+rangeLength > len(ids) {
			return nil, fmt.Errorf("reorder range [%d,%d) out of bounds", fromIndex, fromIndex+rangeLength)
		}
		if toIndex < 0 {
			toIndex = 0
		}
		if toIndex > len(ids) {
			toIndex = len(ids)
		}

		moved := append([]string(nil), ids[fromIndex:fromIndex+rangeLength]...)
		rest := append([]string(nil), ids[:fromIndex]...)
		rest = append(rest, ids[fromIndex+rangeLength:]...)
		insert := toIndex
		if toIndex > fromIndex {
			insert = toIndex - rangeLength
		}
		if insert > len(rest) {
			insert = len(rest)
		}
		out := append([]string(nil), rest[:insert]...)
		out = append(out, moved...)
		out = append(out, rest[insert:]...)
		return out, nil
	})
}

func (s *CollectionStore) CheckEditable(ctx context.Context, collectionID string) (bool, error) {
	var editable bool
	err := s.db.QueryRowContext(ctx,
		`SELECT editable FROM playlists WHERE id = ?`, collectionID,
	).Scan(&editable)
	if errors.Is(err, sql.ErrNoRows) {
		return false, collection.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("checking editability: %w", err)
	}
	return editable, nil
}

func (s *CollectionStore) ListCollections(ctx context.Context) ([]collection.Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.version,
		        (SELECT COUNT(*) FROM playlist_items pi WHERE pi.playlist_id = p.id)
		 FROM playlists p ORDER BY p.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []collection.Info
	for rows.Next() {
		var info collection.Info
		var version int64
		if err := rows.Scan(&info.ID, &info.Name, &version, &info.Total); err != nil {
			return nil, fmt.Errorf("scanning playlist: %w", err)
		}
		info.VersionToken = token(version)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// CreatePlaylist inserts an empty editable playlist.
func (s *CollectionStore) CreatePlaylist(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, editable) VALUES (?, ?, 1)`, id, name)
	if err != nil {
		return fmt.Errorf("creating playlist %s: %w", id, err)
	}
	return nil
}

// AddTracks installs tracks into the catalog, ignoring ids already
// present.
func (s *CollectionStore) AddTracks(ctx context.Context, tracks []collection.Item) error {
	for _, tr := range tracks {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tracks (id, title, artist, duration_ms) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			tr.ID, tr.Title, tr.Artist, tr.DurationMS)
		if err != nil {
			return fmt.Errorf("adding track %s: %w", tr.ID, err)
		}
	}
	return nil
}
