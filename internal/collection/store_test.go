package collection

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/curatarr/internal/migrations"
	"github.com/vmunix/curatarr/internal/rules"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return db
}

func testCollection() *Collection {
	return &Collection{
		LibraryID:         "1",
		Title:             "Leaving Soon",
		Description:       "matched by the stale-movies group",
		IsActive:          true,
		ArrAction:         ArrActionDelete,
		MediaType:         rules.MediaTypeMovie,
		SyncToMediaServer: true,
		MediaServerType:   "plex",
	}
}

func TestStoreCreateGet(t *testing.T) {
	store := NewStore(setupTestDB(t))

	created, err := store.Create(testCollection())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leaving Soon", got.Title)
	assert.True(t, got.SyncToMediaServer)
	assert.Empty(t, got.MediaServerID)
	assert.Nil(t, got.DeleteAfterDays)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.Get(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(setupTestDB(t))

	c, err := store.Create(testCollection())
	require.NoError(t, err)

	days := 14
	c.DeleteAfterDays = &days
	c.HandledMediaAmount = 7
	c.LastDurationInSeconds = 42
	require.NoError(t, store.Update(c))

	got, err := store.Get(c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeleteAfterDays)
	assert.Equal(t, 14, *got.DeleteAfterDays)
	assert.Equal(t, 7, got.HandledMediaAmount)
	assert.Equal(t, 42, got.LastDurationInSeconds)

	c.ID = 999
	assert.ErrorIs(t, store.Update(c), ErrNotFound)
}

func TestStoreSetMediaServerID(t *testing.T) {
	store := NewStore(setupTestDB(t))

	c, err := store.Create(testCollection())
	require.NoError(t, err)

	require.NoError(t, store.SetMediaServerID(c.ID, "42"))
	got, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", got.MediaServerID)

	// Clearing stores NULL, read back as empty.
	require.NoError(t, store.SetMediaServerID(c.ID, ""))
	got, err = store.Get(c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.MediaServerID)
}

func TestStoreMediaMembership(t *testing.T) {
	store := NewStore(setupTestDB(t))

	c, err := store.Create(testCollection())
	require.NoError(t, err)

	tmdb := int64(949)
	m := &Media{
		CollectionID:  c.ID,
		MediaServerID: "10",
		TMDBID:        &tmdb,
		AddDate:       time.Now().UTC(),
	}
	require.NoError(t, store.AddMedia(m))
	// Adding the same member again is a no-op.
	require.NoError(t, store.AddMedia(m))

	media, err := store.ListMedia(c.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "10", media[0].MediaServerID)
	require.NotNil(t, media[0].TMDBID)
	assert.Equal(t, int64(949), *media[0].TMDBID)

	require.NoError(t, store.RemoveMedia(c.ID, "10"))
	media, err = store.ListMedia(c.ID)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestStoreMediaCascadeDelete(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	c, err := store.Create(testCollection())
	require.NoError(t, err)
	require.NoError(t, store.AddMedia(&Media{
		CollectionID: c.ID, MediaServerID: "10", AddDate: time.Now().UTC(),
	}))

	require.NoError(t, store.Delete(c.ID))

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM collection_media WHERE collection_id = ?`, c.ID).Scan(&n))
	assert.Zero(t, n)
}

func TestStoreExclusions(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	for _, id := range []int64{5, 6} {
		_, err := db.Exec(`
			INSERT INTO rule_groups (id, name, media_type, library_id, created_at, updated_at)
			VALUES (?, ?, 'movie', '1', ?, ?)`,
			id, fmt.Sprintf("group %d", id), time.Now().UTC(), time.Now().UTC())
		require.NoError(t, err)
	}

	// Global exclusion plus one scoped to group 5 with a parent.
	require.NoError(t, store.AddExclusion(&Exclusion{MediaServerID: "10"}))
	group := int64(5)
	require.NoError(t, store.AddExclusion(&Exclusion{
		MediaServerID: "20", RuleGroupID: &group, ParentID: "21",
	}))
	other := int64(6)
	require.NoError(t, store.AddExclusion(&Exclusion{
		MediaServerID: "30", RuleGroupID: &other,
	}))

	excluded, err := store.ExcludedIDs(5)
	require.NoError(t, err)
	assert.True(t, excluded["10"], "global exclusion applies")
	assert.True(t, excluded["20"], "group exclusion applies")
	assert.True(t, excluded["21"], "parent reference applies")
	assert.False(t, excluded["30"], "other group's exclusion does not apply")

	all, err := store.ListExclusions()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStoreLogs(t *testing.T) {
	store := NewStore(setupTestDB(t))

	c, err := store.Create(testCollection())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendLog(&Log{
			CollectionID: c.ID,
			RunID:        "run-1",
			Message:      "handled item",
		}))
	}

	logs, err := store.Logs(c.ID, 0, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = store.Logs(c.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "run-1", logs[0].RunID)
}
