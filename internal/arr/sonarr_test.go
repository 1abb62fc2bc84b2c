package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sonarrFake is a minimal Sonarr API for unmonitor tests.
type sonarrFake struct {
	mu           sync.Mutex
	series       map[string]any
	episodes     []Episode
	episodePuts  []int64
	fileDeletes  []int64
	seriesPuts   []map[string]any
	failEpisodes map[int64]bool // episode IDs whose PUT returns 500
}

func (f *sonarrFake) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/series/5":
			_ = json.NewEncoder(w).Encode(f.series)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v3/series/5":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.seriesPuts = append(f.seriesPuts, body)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/episode":
			_ = json.NewEncoder(w).Encode(f.episodes)
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v3/episode/"):
			var ep Episode
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ep))
			if f.failEpisodes[ep.ID] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			f.episodePuts = append(f.episodePuts, ep.ID)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/v3/episodefile/"):
			var id int64
			_, _ = fmt.Sscanf(r.URL.Path, "/api/v3/episodefile/%d", &id)
			f.fileDeletes = append(f.fileDeletes, id)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newSonarrFake() *sonarrFake {
	return &sonarrFake{
		series: map[string]any{
			"id": 5, "title": "The Expanse", "monitored": true,
			"qualityProfileId": 3,
			"seasons": []map[string]any{
				{"seasonNumber": 1, "monitored": true},
				{"seasonNumber": 2, "monitored": true},
			},
		},
		episodes: []Episode{
			{ID: 101, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 1, Monitored: true, HasFile: true, EpisodeFileID: 201},
			{ID: 102, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 2, Monitored: true, HasFile: false},
			{ID: 103, SeriesID: 5, SeasonNumber: 2, EpisodeNumber: 1, Monitored: true, HasFile: true, EpisodeFileID: 203},
		},
		failEpisodes: map[int64]bool{},
	}
}

func TestSonarr_UnmonitorAllSeasons(t *testing.T) {
	fake := newSonarrFake()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	err := c.UnmonitorSeasons(context.Background(), 5, SeasonScope{Mode: ScopeAllSeasons}, false)
	require.NoError(t, err)

	require.Len(t, fake.seriesPuts, 1)
	put := fake.seriesPuts[0]
	assert.Equal(t, false, put["monitored"])
	seasons := put["seasons"].([]any)
	for _, s := range seasons {
		assert.Equal(t, false, s.(map[string]any)["monitored"])
	}
	assert.Empty(t, fake.fileDeletes)
}

func TestSonarr_UnmonitorOneSeason(t *testing.T) {
	fake := newSonarrFake()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	err := c.UnmonitorSeasons(context.Background(), 5, SeasonScope{Mode: ScopeOneSeason, Season: 1}, true)
	require.NoError(t, err)

	require.Len(t, fake.seriesPuts, 1)
	put := fake.seriesPuts[0]
	// Series-level monitored flag untouched for single-season scope.
	assert.Equal(t, true, put["monitored"])
	seasons := put["seasons"].([]any)
	byNumber := map[float64]bool{}
	for _, s := range seasons {
		m := s.(map[string]any)
		byNumber[m["seasonNumber"].(float64)] = m["monitored"].(bool)
	}
	assert.False(t, byNumber[1])
	assert.True(t, byNumber[2])

	// Only season 1 files deleted, and only after the series update.
	assert.Equal(t, []int64{201}, fake.fileDeletes)
}

// Existing-episodes scope: only episodes with files are unmonitored, the
// season flags stay untouched, and the file delete follows the monitor
// update per episode.
func TestSonarr_UnmonitorExistingEpisodes(t *testing.T) {
	fake := newSonarrFake()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	err := c.UnmonitorSeasons(context.Background(), 5, SeasonScope{Mode: ScopeExistingEpisodes}, true)
	require.NoError(t, err)

	assert.Empty(t, fake.seriesPuts)
	assert.Equal(t, []int64{101, 103}, fake.episodePuts)
	assert.Equal(t, []int64{201, 203}, fake.fileDeletes)
}

// A failure on one episode must not abort the remaining episodes.
func TestSonarr_UnmonitorExistingEpisodes_ContinueOnError(t *testing.T) {
	fake := newSonarrFake()
	fake.failEpisodes[101] = true
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	err := c.UnmonitorSeasons(context.Background(), 5, SeasonScope{Mode: ScopeExistingEpisodes}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 episode(s) failed")

	// Episode 103 was still processed; episode 101's file was not deleted
	// because its monitor update never persisted.
	assert.Equal(t, []int64{103}, fake.episodePuts)
	assert.Equal(t, []int64{203}, fake.fileDeletes)
}

func TestSonarr_UnmonitorEpisodes(t *testing.T) {
	fake := newSonarrFake()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	err := c.UnmonitorEpisodes(context.Background(), 5, 1, []int64{101, 102}, false)
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 102}, fake.episodePuts)
	assert.Empty(t, fake.fileDeletes)
}

func TestSonarr_DeleteMissingIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key", testLogger())
	assert.NoError(t, c.Delete(context.Background(), 5, true))
}
