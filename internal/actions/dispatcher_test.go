package actions

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/curatarr/internal/arr"
	arrmocks "github.com/vmunix/curatarr/internal/arr/mocks"
	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/mediaserver"
	msmocks "github.com/vmunix/curatarr/internal/mediaserver/mocks"
	"github.com/vmunix/curatarr/internal/migrations"
	"github.com/vmunix/curatarr/internal/rules"
)

type fixture struct {
	dispatcher *Dispatcher
	movies     *arrmocks.MockManager
	shows      *arrmocks.MockEpisodicManager
	mirror     *msmocks.MockClient
	store      *collection.Store
	db         *sql.DB
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	movies := arrmocks.NewMockManager(ctrl)
	shows := arrmocks.NewMockEpisodicManager(ctrl)
	mirror := msmocks.NewMockClient(ctrl)
	store := collection.NewStore(db)
	syncer := collection.NewSyncer(store, mirror, nil)

	return &fixture{
		dispatcher: NewDispatcher(movies, shows, mirror, store, syncer, nil),
		movies:     movies,
		shows:      shows,
		mirror:     mirror,
		store:      store,
		db:         db,
	}
}

func movieItem() rules.MediaItem {
	return rules.MediaItem{ID: "10", Title: "Heat", Type: rules.MediaTypeMovie, TMDBID: 949}
}

func showItem() rules.MediaItem {
	return rules.MediaItem{ID: "20", Title: "The Wire", Type: rules.MediaTypeShow, TVDBID: 79126}
}

// createGroup persists a rule group. Exclusions carry a foreign key to it,
// so their tests need a real row.
func createGroup(t *testing.T, f *fixture, g *rules.RuleGroup) *rules.RuleGroup {
	t.Helper()
	require.NoError(t, rules.NewStore(f.db).CreateGroup(g))
	return g
}

func TestApplyDeleteMovie(t *testing.T) {
	f := setup(t)
	f.movies.EXPECT().LookupID(gomock.Any(), int64(949), int64(0)).Return(int64(7), nil)
	f.movies.EXPECT().Delete(gomock.Any(), int64(7), true).Return(nil).Times(1)

	group := &rules.RuleGroup{Name: "stale movies", Action: rules.ActionDelete}
	require.NoError(t, f.dispatcher.Apply(context.Background(), group, nil, movieItem()))
}

func TestApplyDeleteShowGranularity(t *testing.T) {
	tests := []struct {
		name      string
		arrAction collection.ArrAction
		expect    func(f *fixture)
	}{
		{
			name:      "delete removes the series",
			arrAction: collection.ArrActionDelete,
			expect: func(f *fixture) {
				f.shows.EXPECT().Delete(gomock.Any(), int64(9), true).Return(nil)
			},
		},
		{
			name:      "unmonitor keeps files",
			arrAction: collection.ArrActionUnmonitor,
			expect: func(f *fixture) {
				f.shows.EXPECT().UnmonitorSeasons(gomock.Any(), int64(9),
					arr.SeasonScope{Mode: arr.ScopeAllSeasons}, false).Return(nil)
			},
		},
		{
			name:      "unmonitor and delete all",
			arrAction: collection.ArrActionUnmonitorDeleteAll,
			expect: func(f *fixture) {
				f.shows.EXPECT().UnmonitorSeasons(gomock.Any(), int64(9),
					arr.SeasonScope{Mode: arr.ScopeAllSeasons}, true).Return(nil)
			},
		},
		{
			name:      "existing episodes only",
			arrAction: collection.ArrActionUnmonitorDeleteExisting,
			expect: func(f *fixture) {
				f.shows.EXPECT().UnmonitorSeasons(gomock.Any(), int64(9),
					arr.SeasonScope{Mode: arr.ScopeExistingEpisodes}, true).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.shows.EXPECT().LookupID(gomock.Any(), int64(0), int64(79126)).Return(int64(9), nil)
			tt.expect(f)

			group := &rules.RuleGroup{Name: "stale shows", Action: rules.ActionDelete}
			col := &collection.Collection{ID: 1, Title: "Leaving Soon", ArrAction: tt.arrAction}
			require.NoError(t, f.dispatcher.Apply(context.Background(), group, col, showItem()))
		})
	}
}

func TestApplyDeleteUnresolvedItem(t *testing.T) {
	f := setup(t)
	f.movies.EXPECT().LookupID(gomock.Any(), int64(949), int64(0)).
		Return(int64(0), arr.ErrNotFound)

	group := &rules.RuleGroup{Name: "stale movies", Action: rules.ActionDelete}
	err := f.dispatcher.Apply(context.Background(), group, nil, movieItem())
	assert.ErrorIs(t, err, arr.ErrNotFound)
}

func TestApplyExclude(t *testing.T) {
	f := setup(t)

	group := createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", MediaType: rules.MediaTypeMovie, LibraryID: "1",
		Action: rules.ActionExclude, UseRules: true,
		Sections: []rules.Section{{ID: 0, Rules: []rules.Rule{{
			Action:      rules.Equals,
			FirstValue:  rules.PropRef{Application: rules.AppRadarr, Property: 5},
			CustomValue: &rules.CustomValue{Type: rules.CustomBool, Value: "false"},
		}}}},
	})

	require.NoError(t, f.dispatcher.Apply(context.Background(), group, nil, movieItem()))

	excluded, err := f.store.ExcludedIDs(group.ID)
	require.NoError(t, err)
	assert.True(t, excluded["10"])

	// Other groups are unaffected by a group-scoped exclusion.
	excluded, err = f.store.ExcludedIDs(group.ID+1)
	require.NoError(t, err)
	assert.False(t, excluded["10"])
}

func TestApplyChangeQualityProfile(t *testing.T) {
	f := setup(t)
	f.movies.EXPECT().LookupID(gomock.Any(), int64(949), int64(0)).Return(int64(7), nil)
	f.movies.EXPECT().UpdateQualityProfile(gomock.Any(), int64(7), 4).Return(nil)

	profile := 4
	group := &rules.RuleGroup{
		Name: "downgrade", Action: rules.ActionChangeQualityProfile,
		RadarrProfileID: &profile,
	}
	require.NoError(t, f.dispatcher.Apply(context.Background(), group, nil, movieItem()))
}

func TestApplyChangeQualityProfileUnconfigured(t *testing.T) {
	f := setup(t)

	group := &rules.RuleGroup{Name: "downgrade", Action: rules.ActionChangeQualityProfile}
	err := f.dispatcher.Apply(context.Background(), group, nil, movieItem())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target quality profile")
}

func TestAddToCollectionMirrored(t *testing.T) {
	f := setup(t)
	col, err := f.store.Create(&collection.Collection{
		LibraryID: "1", Title: "Leaving Soon", MediaType: rules.MediaTypeMovie,
		MediaServerType: mediaserver.TypePlex, SyncToMediaServer: true, IsActive: true,
	})
	require.NoError(t, err)

	f.mirror.EXPECT().CreateCollection(gomock.Any(), gomock.Any()).
		Return(&mediaserver.Collection{ID: "42"}, nil)
	f.mirror.EXPECT().AddChild(gomock.Any(), "42", "10").Return(nil)

	require.NoError(t, f.dispatcher.AddToCollection(context.Background(), col, movieItem()))

	media, err := f.store.ListMedia(col.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "10", media[0].MediaServerID)
}

func TestAddToCollectionMirrorFailureIsLocalOnly(t *testing.T) {
	f := setup(t)
	col, err := f.store.Create(&collection.Collection{
		LibraryID: "1", Title: "Leaving Soon", MediaType: rules.MediaTypeMovie,
		MediaServerType: mediaserver.TypePlex, SyncToMediaServer: true, IsActive: true,
	})
	require.NoError(t, err)

	f.mirror.EXPECT().CreateCollection(gomock.Any(), gomock.Any()).
		Return(nil, mediaserver.ErrUnavailable)

	// Local membership still lands.
	require.NoError(t, f.dispatcher.AddToCollection(context.Background(), col, movieItem()))

	media, err := f.store.ListMedia(col.ID)
	require.NoError(t, err)
	assert.Len(t, media, 1)
}

func TestRemoveFromCollection(t *testing.T) {
	f := setup(t)
	col, err := f.store.Create(&collection.Collection{
		LibraryID: "1", Title: "Leaving Soon", MediaType: rules.MediaTypeMovie,
		MediaServerType: mediaserver.TypePlex, SyncToMediaServer: true, IsActive: true,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.SetMediaServerID(col.ID, "42"))
	col.MediaServerID = "42"

	// Already linked: no create, just add then remove on the mirror.
	f.mirror.EXPECT().AddChild(gomock.Any(), "42", "10").Return(nil)
	f.mirror.EXPECT().RemoveChild(gomock.Any(), "42", "10").Return(nil)

	require.NoError(t, f.dispatcher.AddToCollection(context.Background(), col, movieItem()))
	require.NoError(t, f.dispatcher.RemoveFromCollection(context.Background(), col, movieItem()))

	media, err := f.store.ListMedia(col.ID)
	require.NoError(t, err)
	assert.Empty(t, media)
}
