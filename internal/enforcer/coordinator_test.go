package enforcer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/curatarr/internal/actions"
	arrmocks "github.com/vmunix/curatarr/internal/arr/mocks"
	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/mediaserver"
	msmocks "github.com/vmunix/curatarr/internal/mediaserver/mocks"
	"github.com/vmunix/curatarr/internal/migrations"
	"github.com/vmunix/curatarr/internal/rules"
)

// stubSource resolves attributes from a fixed map keyed by
// "<itemID>/<attribute name>". Missing keys report unavailable, which the
// evaluator degrades to a false comparison.
type stubSource struct {
	mu     sync.Mutex
	values map[string]rules.Value
}

func (s *stubSource) set(itemID, name string, v rules.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]rules.Value{}
	}
	s.values[itemID+"/"+name] = v
}

func (s *stubSource) GetAttribute(_ context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[item.ID+"/"+entry.Name]
	if !ok {
		return rules.Value{}, fmt.Errorf("%s unavailable for %s", entry.Name, item.ID)
	}
	return v, nil
}

type fixture struct {
	coord  *Coordinator
	rules  *rules.Store
	cols   *collection.Store
	movies *arrmocks.MockManager
	shows  *arrmocks.MockEpisodicManager
	server *msmocks.MockClient
	source *stubSource
	db     *sql.DB
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
	server := msmocks.NewMockClient(ctrl)

	ruleStore := rules.NewStore(db)
	colStore := collection.NewStore(db)
	syncer := collection.NewSyncer(colStore, server, nil)
	dispatcher := actions.NewDispatcher(movies, shows, server, colStore, syncer, nil)
	source := &stubSource{}

	coord := New(Deps{
		Rules:       ruleStore,
		Collections: colStore,
		Catalog:     rules.DefaultCatalog(),
		Source:      source,
		Dispatcher:  dispatcher,
		Syncer:      syncer,
		Server:      server,
		PageSize:    2,
	}, nil)

	return &fixture{
		coord:  coord,
		rules:  ruleStore,
		cols:   colStore,
		movies: movies,
		shows:  shows,
		server: server,
		source: source,
		db:     db,
	}
}

// lastWatchedOver30Days matches items whose last watch is older than 30
// days. 2592000 is the day count in seconds.
func lastWatchedOver30Days() []rules.Section {
	return []rules.Section{{ID: 0, Rules: []rules.Rule{{
		Action:      rules.GreaterThan,
		FirstValue:  rules.PropRef{Application: rules.AppTautulli, Property: 1},
		CustomValue: &rules.CustomValue{Type: rules.CustomDays, Value: "2592000"},
	}}}}
}

func createGroup(t *testing.T, f *fixture, g *rules.RuleGroup) *rules.RuleGroup {
	t.Helper()
	if g.MediaType == "" {
		g.MediaType = rules.MediaTypeMovie
	}
	if g.LibraryID == "" {
		g.LibraryID = "1"
	}
	g.IsActive = true
	g.UseRules = true
	require.NoError(t, f.rules.CreateGroup(g))
	return g
}

func createCollection(t *testing.T, f *fixture, c *collection.Collection) *collection.Collection {
	t.Helper()
	if c.LibraryID == "" {
		c.LibraryID = "1"
	}
	if c.MediaType == "" {
		c.MediaType = rules.MediaTypeMovie
	}
	created, err := f.cols.Create(c)
	require.NoError(t, err)
	return created
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).
		DoAndReturn(func(context.Context, string, int, int) ([]mediaserver.Item, int, error) {
			close(entered)
			<-release
			return nil, 0, nil
		})

	var first *Summary
	var firstErr error
	done := make(chan struct{})
	go func() {
		first, firstErr = f.coord.Run(context.Background())
		close(done)
	}()
	<-entered

	_, err := f.coord.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	<-done
	require.NoError(t, firstErr)
	assert.Equal(t, 0, first.Handled)
}

func TestRunDeletesMatchExactlyOnce(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})
	f.source.set("10", "lastWatched", rules.DateValue(daysAgo(45)))
	f.source.set("11", "lastWatched", rules.DateValue(daysAgo(5)))

	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return([]mediaserver.Item{
		{ID: "10", Title: "Heat", TMDBID: 949},
		{ID: "11", Title: "Ronin", TMDBID: 8963},
	}, 2, nil)
	f.movies.EXPECT().LookupID(gomock.Any(), int64(949), int64(0)).Return(int64(7), nil)
	f.movies.EXPECT().Delete(gomock.Any(), int64(7), true).Return(nil).Times(1)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Handled)
	assert.Equal(t, 0, summary.Failures)
	assert.NotEmpty(t, summary.RunID)
}

func TestRunSkipsExcludedItems(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})
	// Global exclusion shields the item from every group.
	require.NoError(t, f.cols.AddExclusion(&collection.Exclusion{
		MediaServerID: "10", MediaType: "movie",
	}))
	f.source.set("10", "lastWatched", rules.DateValue(daysAgo(45)))

	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return([]mediaserver.Item{
		{ID: "10", Title: "Heat", TMDBID: 949},
	}, 1, nil)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Handled)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunPagesThroughLibrary(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})

	gomock.InOrder(
		f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return([]mediaserver.Item{
			{ID: "10", Title: "Heat"}, {ID: "11", Title: "Ronin"},
		}, 3, nil),
		f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 2, 2).Return([]mediaserver.Item{
			{ID: "12", Title: "Thief"},
		}, 3, nil),
	)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Handled)
}

func TestRunLibraryFailureCountsAgainstGroup(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).
		Return(nil, 0, fmt.Errorf("list: %w", mediaserver.ErrUnavailable))

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
}

func TestRunAddToCollectionLifecycle(t *testing.T) {
	f := setup(t)
	col := createCollection(t, f, &collection.Collection{
		Title: "Leaving Soon", SyncToMediaServer: true,
	})
	require.NoError(t, f.cols.SetMediaServerID(col.ID, "42"))
	// A member the rules no longer match; it should be pruned.
	require.NoError(t, f.cols.AddMedia(&collection.Media{
		CollectionID: col.ID, MediaServerID: "99", AddDate: time.Now(),
	}))

	createGroup(t, f, &rules.RuleGroup{
		Name: "leaving soon", Action: rules.ActionAddToCollection,
		CollectionID: &col.ID,
		Sections:     lastWatchedOver30Days(),
	})
	f.source.set("10", "lastWatched", rules.DateValue(daysAgo(45)))
	f.source.set("10", "fileSize", rules.NumberValue(2e9))

	f.server.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(&mediaserver.Collection{ID: "42", ChildCount: 3}, nil)
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return([]mediaserver.Item{
		{ID: "10", Title: "Heat", TMDBID: 949},
	}, 1, nil)
	f.server.EXPECT().AddChild(gomock.Any(), "42", "10").Return(nil)
	f.server.EXPECT().RemoveChild(gomock.Any(), "42", "99").Return(nil)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Handled)

	media, err := f.cols.ListMedia(col.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "10", media[0].MediaServerID)

	updated, err := f.cols.Get(col.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.HandledMediaAmount)
	require.NotNil(t, updated.TotalSizeBytes)
	assert.Equal(t, int64(2e9), *updated.TotalSizeBytes)

	logs, err := f.cols.Logs(col.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, summary.RunID, logs[0].RunID)
}

func TestRunExpiresHeldMedia(t *testing.T) {
	f := setup(t)
	days := 7
	col := createCollection(t, f, &collection.Collection{
		Title: "Leaving Soon", SyncToMediaServer: true,
		DeleteAfterDays: &days,
	})
	require.NoError(t, f.cols.SetMediaServerID(col.ID, "42"))
	tmdb := int64(949)
	require.NoError(t, f.cols.AddMedia(&collection.Media{
		CollectionID: col.ID, MediaServerID: "10", TMDBID: &tmdb,
		AddDate: daysAgo(10),
	}))

	createGroup(t, f, &rules.RuleGroup{
		Name: "leaving soon", Action: rules.ActionAddToCollection,
		CollectionID: &col.ID,
		Sections:     lastWatchedOver30Days(),
	})
	f.source.set("10", "lastWatched", rules.DateValue(daysAgo(45)))

	f.server.EXPECT().FindCollectionByID(gomock.Any(), "42").
		Return(&mediaserver.Collection{ID: "42", ChildCount: 1}, nil)
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return([]mediaserver.Item{
		{ID: "10", Title: "Heat", TMDBID: 949},
	}, 1, nil)
	f.movies.EXPECT().LookupID(gomock.Any(), int64(949), int64(0)).Return(int64(7), nil)
	f.movies.EXPECT().Delete(gomock.Any(), int64(7), true).Return(nil)
	f.server.EXPECT().RemoveChild(gomock.Any(), "42", "10").Return(nil)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Handled)

	media, err := f.cols.ListMedia(col.ID)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestRunSkipsEvaluationForManualGroups(t *testing.T) {
	f := setup(t)
	col := createCollection(t, f, &collection.Collection{
		Title: "Hand Picked", SyncToMediaServer: true, ManualCollection: true,
		ManualCollectionName: "Curated Picks",
	})
	g := &rules.RuleGroup{
		Name: "hand picked", MediaType: rules.MediaTypeMovie, LibraryID: "1",
		IsActive: true, Action: rules.ActionAddToCollection, CollectionID: &col.ID,
	}
	require.NoError(t, f.rules.CreateGroup(g))

	// The mirror is still reconciled; the library is never paged.
	f.server.EXPECT().FindCollectionByTitle(gomock.Any(), "1", "Curated Picks").
		Return(nil, mediaserver.ErrNotFound)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Handled)
}

func TestRunOneSharesSingleFlightGate(t *testing.T) {
	f := setup(t)
	g := createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).
		DoAndReturn(func(context.Context, string, int, int) ([]mediaserver.Item, int, error) {
			close(entered)
			<-release
			return nil, 0, nil
		})

	done := make(chan struct{})
	go func() {
		_, _ = f.coord.Run(context.Background())
		close(done)
	}()
	<-entered

	_, err := f.coord.RunOne(context.Background(), g.ID)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	<-done
}

func TestRunOneUnknownGroup(t *testing.T) {
	f := setup(t)
	_, err := f.coord.RunOne(context.Background(), 404)
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestLastSummary(t *testing.T) {
	f := setup(t)
	assert.Nil(t, f.coord.Last())

	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		Sections: lastWatchedOver30Days(),
	})
	f.server.EXPECT().ListLibraryItems(gomock.Any(), "1", 0, 2).Return(nil, 0, nil)

	summary, err := f.coord.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, f.coord.Last().RunID)
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	f := setup(t)
	s := NewScheduler(f.coord, f.rules, "not a schedule", nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStartStop(t *testing.T) {
	f := setup(t)
	createGroup(t, f, &rules.RuleGroup{
		Name: "stale movies", Action: rules.ActionDelete,
		CronSchedule: "@daily",
		Sections:     lastWatchedOver30Days(),
	})

	s := NewScheduler(f.coord, f.rules, "@hourly", nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	s.Stop()
}
