package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/mediaserver/mocks"
)

func setupSyncer(t *testing.T) (*Syncer, *Store, *mocks.MockClient) {
	t.Helper()
	store := NewStore(setupTestDB(t))
	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockClient(ctrl)
	return NewSyncer(store, mirror, nil), store, mirror
}

func linkedCollection(t *testing.T, store *Store, mediaServerID string) *Collection {
	t.Helper()
	c, err := store.Create(testCollection())
	require.NoError(t, err)
	if mediaServerID != "" {
		require.NoError(t, store.SetMediaServerID(c.ID, mediaServerID))
		c.MediaServerID = mediaServerID
	}
	return c
}

func TestSyncerSkipsWhenSyncingDisabled(t *testing.T) {
	syncer, store, _ := setupSyncer(t)
	c, err := store.Create(&Collection{
		LibraryID: "1", Title: "No Mirror", MediaType: "movie", MediaServerType: "plex",
	})
	require.NoError(t, err)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, got.MediaServerID)
}

func TestSyncerKeepsHealthyLink(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	mirror.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(&mediaserver.Collection{ID: "42", Title: "Leaving Soon", ChildCount: 3}, nil)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "42", got.MediaServerID)
}

func TestSyncerDeletesEmptyMirror(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	mirror.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(&mediaserver.Collection{ID: "42", Title: "Leaving Soon", ChildCount: 0}, nil)
	mirror.EXPECT().DeleteCollection(gomock.Any(), "42").Return(nil)
	// After unlinking, a title search runs and finds nothing.
	mirror.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Leaving Soon").
		Return(nil, mediaserver.ErrNotFound)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, got.MediaServerID)

	stored, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.MediaServerID)
}

func TestSyncerRelinksByTitleWhenUnlinked(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "")

	mirror.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Leaving Soon").
		Return(&mediaserver.Collection{ID: "77", Title: "Leaving Soon", ChildCount: 2}, nil)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "77", got.MediaServerID)

	stored, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "77", stored.MediaServerID)
}

func TestSyncerManualCollectionUsesConfiguredName(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c, err := store.Create(&Collection{
		LibraryID:            "1",
		Title:                "Internal Name",
		MediaType:            "movie",
		MediaServerType:      "plex",
		SyncToMediaServer:    true,
		ManualCollection:     true,
		ManualCollectionName: "Curated Picks",
	})
	require.NoError(t, err)

	mirror.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Curated Picks").
		Return(&mediaserver.Collection{ID: "88", ChildCount: 1}, nil)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "88", got.MediaServerID)
}

func TestSyncerTransportErrorKeepsLink(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	mirror.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(nil, mediaserver.ErrUnavailable)

	_, err := syncer.Reconcile(context.Background(), c)
	require.Error(t, err)

	// The link survives a transport failure.
	stored, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", stored.MediaServerID)
}

func TestSyncerUnlinksOnMirrorGone(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	mirror.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(nil, mediaserver.ErrNotFound)
	mirror.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Leaving Soon").
		Return(nil, mediaserver.ErrNotFound)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, got.MediaServerID)
}

func TestSyncerSmartMirrorTreatedAsUnusable(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	mirror.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(nil, mediaserver.ErrSmartCollection)
	mirror.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Leaving Soon").
		Return(nil, mediaserver.ErrSmartCollection)

	got, err := syncer.Reconcile(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, got.MediaServerID)
}

func TestSyncerEnsureMirrorCreates(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "")

	mirror.EXPECT().CreateCollection(gomock.Any(), mediaserver.CollectionSpec{
		LibraryID: "1",
		Title:     "Leaving Soon",
		Summary:   "matched by the stale-movies group",
		MediaType: "movie",
	}).Return(&mediaserver.Collection{ID: "99"}, nil)

	id, err := syncer.EnsureMirror(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "99", id)

	// Second call reuses the link without another create.
	id, err = syncer.EnsureMirror(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "99", id)
}

func TestSyncerDeleteWithMirror(t *testing.T) {
	syncer, store, mirror := setupSyncer(t)
	c := linkedCollection(t, store, "42")

	// Mirror failure doesn't stop the local delete.
	mirror.EXPECT().DeleteCollection(gomock.Any(), "42").Return(errors.New("boom"))

	require.NoError(t, syncer.DeleteWithMirror(context.Background(), c))
	_, err := store.Get(c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
