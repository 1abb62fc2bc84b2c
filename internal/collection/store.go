package collection

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// Store provides access to persisted collections, membership, exclusions,
// and logs.
type Store struct {
	db *sql.DB
}

// NewStore creates a new collection store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const collectionColumns = `id, library_id, title, description, is_active, arr_action,
	media_type, manual_collection, manual_collection_name, list_exclusions,
	sync_to_media_server, delete_after_days, media_server_id, media_server_type,
	radarr_profile_id, sonarr_profile_id, total_size_bytes, handled_media_amount,
	last_duration_seconds, created_at, updated_at`

func scanCollection(row interface{ Scan(...any) error }) (*Collection, error) {
	var c Collection
	var description, manualName, mediaServerID sql.NullString
	err := row.Scan(&c.ID, &c.LibraryID, &c.Title, &description, &c.IsActive,
		&c.ArrAction, &c.MediaType, &c.ManualCollection, &manualName,
		&c.ListExclusions, &c.SyncToMediaServer, &c.DeleteAfterDays,
		&mediaServerID, &c.MediaServerType, &c.RadarrProfileID,
		&c.SonarrProfileID, &c.TotalSizeBytes, &c.HandledMediaAmount,
		&c.LastDurationInSeconds, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	c.Description = description.String
	c.ManualCollectionName = manualName.String
	c.MediaServerID = mediaServerID.String
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a collection and returns it with ID and timestamps set.
func (s *Store) Create(c *Collection) (*Collection, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO collections (library_id, title, description, is_active,
			arr_action, media_type, manual_collection, manual_collection_name,
			list_exclusions, sync_to_media_server, delete_after_days,
			media_server_id, media_server_type, radarr_profile_id,
			sonarr_profile_id, total_size_bytes, handled_media_amount,
			last_duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.LibraryID, c.Title, nullString(c.Description), c.IsActive,
		c.ArrAction, c.MediaType, c.ManualCollection,
		nullString(c.ManualCollectionName), c.ListExclusions,
		c.SyncToMediaServer, c.DeleteAfterDays, nullString(c.MediaServerID),
		c.MediaServerType, c.RadarrProfileID, c.SonarrProfileID,
		c.TotalSizeBytes, c.HandledMediaAmount, c.LastDurationInSeconds,
		now, now)
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("collection id: %w", err)
	}
	return s.Get(id)
}

// Get fetches one collection by ID.
func (s *Store) Get(id int64) (*Collection, error) {
	row := s.db.QueryRow(
		`SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	c, err := scanCollection(row)
	if err != nil {
		return nil, fmt.Errorf("get collection %d: %w", id, err)
	}
	return c, nil
}

// List returns all collections, active ones first by title.
func (s *Store) List() ([]*Collection, error) {
	rows, err := s.db.Query(
		`SELECT `+collectionColumns+` FROM collections ORDER BY is_active DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update persists mutable collection fields.
func (s *Store) Update(c *Collection) error {
	res, err := s.db.Exec(`
		UPDATE collections SET library_id = ?, title = ?, description = ?,
			is_active = ?, arr_action = ?, media_type = ?,
			manual_collection = ?, manual_collection_name = ?,
			list_exclusions = ?, sync_to_media_server = ?,
			delete_after_days = ?, media_server_id = ?, media_server_type = ?,
			radarr_profile_id = ?, sonarr_profile_id = ?, total_size_bytes = ?,
			handled_media_amount = ?, last_duration_seconds = ?, updated_at = ?
		WHERE id = ?`,
		c.LibraryID, c.Title, nullString(c.Description), c.IsActive,
		c.ArrAction, c.MediaType, c.ManualCollection,
		nullString(c.ManualCollectionName), c.ListExclusions,
		c.SyncToMediaServer, c.DeleteAfterDays, nullString(c.MediaServerID),
		c.MediaServerType, c.RadarrProfileID, c.SonarrProfileID,
		c.TotalSizeBytes, c.HandledMediaAmount, c.LastDurationInSeconds,
		time.Now().UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("update collection %d: %w", c.ID, mapSQLiteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update collection %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// SetMediaServerID records (or clears, with an empty id) the mirror link.
func (s *Store) SetMediaServerID(id int64, mediaServerID string) error {
	_, err := s.db.Exec(
		`UPDATE collections SET media_server_id = ?, updated_at = ? WHERE id = ?`,
		nullString(mediaServerID), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set media server id on collection %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// Delete removes a collection; membership and logs cascade. Deleting a
// collection that doesn't exist is not an error.
func (s *Store) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collection %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// AddMedia inserts a membership row. Adding an item that is already a
// member is not an error.
func (s *Store) AddMedia(m *Media) error {
	_, err := s.db.Exec(`
		INSERT INTO collection_media (collection_id, media_server_id, tmdb_id,
			add_date, image_path, is_manual)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.CollectionID, m.MediaServerID, m.TMDBID, m.AddDate,
		nullString(m.ImagePath), m.IsManual)
	if err != nil {
		err = mapSQLiteError(err)
		if errors.Is(err, ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("add media to collection %d: %w", m.CollectionID, err)
	}
	return nil
}

// RemoveMedia deletes a membership row.
func (s *Store) RemoveMedia(collectionID int64, mediaServerID string) error {
	_, err := s.db.Exec(
		`DELETE FROM collection_media WHERE collection_id = ? AND media_server_id = ?`,
		collectionID, mediaServerID)
	if err != nil {
		return fmt.Errorf("remove media from collection %d: %w", collectionID, mapSQLiteError(err))
	}
	return nil
}

// ListMedia returns a collection's membership ordered by add date.
func (s *Store) ListMedia(collectionID int64) ([]*Media, error) {
	rows, err := s.db.Query(`
		SELECT id, collection_id, media_server_id, tmdb_id, add_date,
			image_path, is_manual
		FROM collection_media WHERE collection_id = ? ORDER BY add_date`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("list media for collection %d: %w", collectionID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Media
	for rows.Next() {
		var m Media
		var imagePath sql.NullString
		if err := rows.Scan(&m.ID, &m.CollectionID, &m.MediaServerID,
			&m.TMDBID, &m.AddDate, &imagePath, &m.IsManual); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		m.ImagePath = imagePath.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

// AddExclusion records an exclusion.
func (s *Store) AddExclusion(e *Exclusion) error {
	_, err := s.db.Exec(`
		INSERT INTO exclusions (media_server_id, rule_group_id, parent_id,
			media_type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.MediaServerID, e.RuleGroupID, nullString(e.ParentID),
		nullString(e.MediaType), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add exclusion: %w", mapSQLiteError(err))
	}
	return nil
}

// RemoveExclusion deletes an exclusion by ID.
func (s *Store) RemoveExclusion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM exclusions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove exclusion %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// ExcludedIDs returns the media-server IDs excluded for one rule group:
// global exclusions plus the group's own, including parent references.
func (s *Store) ExcludedIDs(ruleGroupID int64) (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT media_server_id, parent_id FROM exclusions
		WHERE rule_group_id IS NULL OR rule_group_id = ?`, ruleGroupID)
	if err != nil {
		return nil, fmt.Errorf("load exclusions for group %d: %w", ruleGroupID, err)
	}
	defer func() { _ = rows.Close() }()

	excluded := make(map[string]bool)
	for rows.Next() {
		var mediaServerID string
		var parentID sql.NullString
		if err := rows.Scan(&mediaServerID, &parentID); err != nil {
			return nil, fmt.Errorf("scan exclusion: %w", err)
		}
		excluded[mediaServerID] = true
		if parentID.Valid {
			excluded[parentID.String] = true
		}
	}
	return excluded, rows.Err()
}

// ListExclusions returns all exclusions, group-scoped ones first.
func (s *Store) ListExclusions() ([]*Exclusion, error) {
	rows, err := s.db.Query(`
		SELECT id, media_server_id, rule_group_id, parent_id, media_type, created_at
		FROM exclusions ORDER BY rule_group_id IS NULL, id`)
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Exclusion
	for rows.Next() {
		var e Exclusion
		var parentID, mediaType sql.NullString
		if err := rows.Scan(&e.ID, &e.MediaServerID, &e.RuleGroupID,
			&parentID, &mediaType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exclusion: %w", err)
		}
		e.ParentID = parentID.String
		e.MediaType = mediaType.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

// AppendLog records one audit entry for a collection.
func (s *Store) AppendLog(l *Log) error {
	_, err := s.db.Exec(`
		INSERT INTO collection_logs (collection_id, run_id, message, meta, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.CollectionID, l.RunID, l.Message, l.Meta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append log for collection %d: %w", l.CollectionID, mapSQLiteError(err))
	}
	return nil
}

// Logs returns a page of a collection's audit entries, newest first.
func (s *Store) Logs(collectionID int64, offset, limit int) ([]*Log, error) {
	rows, err := s.db.Query(`
		SELECT id, collection_id, run_id, message, meta, created_at
		FROM collection_logs WHERE collection_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		collectionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list logs for collection %d: %w", collectionID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.CollectionID, &l.RunID, &l.Message,
			&l.Meta, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
