package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Series is the subset of a Sonarr series record the engine reads.
type Series struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TVDBID           int64     `json:"tvdbId"`
	Monitored        bool      `json:"monitored"`
	QualityProfileID int       `json:"qualityProfileId"`
	Tags             []int     `json:"tags"`
	Added            time.Time `json:"added"`
	Status           string    `json:"status"`
	Ended            bool      `json:"ended"`
	FirstAired       time.Time `json:"firstAired"`
	Seasons          []Season  `json:"seasons"`
	Statistics       *struct {
		SizeOnDisk int64 `json:"sizeOnDisk"`
	} `json:"statistics"`
}

// Season is one season entry of a series record.
type Season struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

// Episode is the subset of a Sonarr episode record used for unmonitoring.
type Episode struct {
	ID            int64 `json:"id"`
	SeriesID      int64 `json:"seriesId"`
	SeasonNumber  int   `json:"seasonNumber"`
	EpisodeNumber int   `json:"episodeNumber"`
	Monitored     bool  `json:"monitored"`
	HasFile       bool  `json:"hasFile"`
	EpisodeFileID int64 `json:"episodeFileId"`
}

// Sonarr is a client for the show-oriented acquisition manager.
type Sonarr struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// SonarrOption configures a Sonarr client.
type SonarrOption func(*Sonarr)

// WithSonarrHTTPClient sets a custom HTTP client.
func WithSonarrHTTPClient(hc *http.Client) SonarrOption {
	return func(c *Sonarr) { c.httpClient = hc }
}

// NewSonarr creates a new Sonarr client.
func NewSonarr(baseURL, apiKey string, logger *slog.Logger, opts ...SonarrOption) *Sonarr {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Sonarr{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "sonarr"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Sonarr) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: sonarr error %s: %s", method, path, resp.Status, string(b))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetSeries fetches a series record by Sonarr ID. The raw record is kept so
// updates can write it back whole.
func (c *Sonarr) GetSeries(ctx context.Context, id int64) (*Series, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v3/series/%d", id), nil, &raw); err != nil {
		return nil, nil, err
	}
	s, err := seriesFromRaw(raw)
	if err != nil {
		return nil, nil, err
	}
	return s, raw, nil
}

// GetSeriesByTVDBID looks a series up by its TVDB identifier.
// Returns ErrNotFound when Sonarr doesn't manage the series.
func (c *Sonarr) GetSeriesByTVDBID(ctx context.Context, tvdbID int64) (*Series, error) {
	var raws []map[string]json.RawMessage
	path := "/api/v3/series?tvdbId=" + url.QueryEscape(fmt.Sprint(tvdbID))
	if err := c.do(ctx, http.MethodGet, path, nil, &raws); err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("series tvdb:%d: %w", tvdbID, ErrNotFound)
	}
	return seriesFromRaw(raws[0])
}

func seriesFromRaw(raw map[string]json.RawMessage) (*Series, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("remarshal series: %w", err)
	}
	s := &Series{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return s, nil
}

// LookupID maps a TVDB identifier to the Sonarr record ID.
func (c *Sonarr) LookupID(ctx context.Context, _, tvdbID int64) (int64, error) {
	if tvdbID == 0 {
		return 0, fmt.Errorf("no tvdb id: %w", ErrNotFound)
	}
	s, err := c.GetSeriesByTVDBID(ctx, tvdbID)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

// ListTags returns all manager-side tags.
func (c *Sonarr) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/api/v3/tag", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Delete removes the series from Sonarr, and its files when deleteFiles is
// set. A record that is already gone is not an error.
func (c *Sonarr) Delete(ctx context.Context, id int64, deleteFiles bool) error {
	path := fmt.Sprintf("/api/v3/series/%d?deleteFiles=%t", id, deleteFiles)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// UpdateQualityProfile reads the series record, sets the profile, and writes
// the full record back.
func (c *Sonarr) UpdateQualityProfile(ctx context.Context, id int64, profileID int) error {
	_, raw, err := c.GetSeries(ctx, id)
	if err != nil {
		return err
	}
	profile, err := json.Marshal(profileID)
	if err != nil {
		return fmt.Errorf("marshal profile id: %w", err)
	}
	raw["qualityProfileId"] = profile
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v3/series/%d", id), raw, nil)
}

// UnmonitorSeasons updates the monitor state of the scoped seasons. File
// deletion, when requested, happens only after the monitor update has been
// persisted, so a failed delete never leaves an episode monitored but
// fileless.
func (c *Sonarr) UnmonitorSeasons(ctx context.Context, seriesID int64, scope SeasonScope, deleteFiles bool) error {
	if scope.Mode == ScopeExistingEpisodes {
		return c.unmonitorExistingEpisodes(ctx, seriesID, deleteFiles)
	}

	series, raw, err := c.GetSeries(ctx, seriesID)
	if err != nil {
		return err
	}

	for i := range series.Seasons {
		if scope.Mode == ScopeOneSeason && series.Seasons[i].SeasonNumber != scope.Season {
			continue
		}
		series.Seasons[i].Monitored = false
	}
	seasons, err := json.Marshal(series.Seasons)
	if err != nil {
		return fmt.Errorf("marshal seasons: %w", err)
	}
	raw["seasons"] = seasons
	if scope.Mode == ScopeAllSeasons {
		raw["monitored"] = json.RawMessage("false")
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v3/series/%d", seriesID), raw, nil); err != nil {
		return err
	}

	if !deleteFiles {
		return nil
	}
	return c.deleteEpisodeFiles(ctx, seriesID, scope)
}

// unmonitorExistingEpisodes unmonitors episodes that have a file on disk
// without altering the seasons' own monitored flags. Episodes are updated
// one at a time; a failure on one is logged and the rest continue.
func (c *Sonarr) unmonitorExistingEpisodes(ctx context.Context, seriesID int64, deleteFiles bool) error {
	episodes, err := c.listEpisodes(ctx, seriesID)
	if err != nil {
		return err
	}

	var failed int
	for _, ep := range episodes {
		if !ep.HasFile || !ep.Monitored {
			continue
		}
		if err := c.unmonitorEpisode(ctx, ep, deleteFiles); err != nil {
			failed++
			c.logger.Warn("episode unmonitor failed, continuing",
				"series_id", seriesID,
				"season", ep.SeasonNumber,
				"episode", ep.EpisodeNumber,
				"error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("unmonitor series %d: %d episode(s) failed", seriesID, failed)
	}
	return nil
}

// UnmonitorEpisodes unmonitors the given episodes of one season, one at a
// time with continue-on-error.
func (c *Sonarr) UnmonitorEpisodes(ctx context.Context, seriesID int64, season int, episodeIDs []int64, deleteFiles bool) error {
	episodes, err := c.listEpisodes(ctx, seriesID)
	if err != nil {
		return err
	}
	wanted := make(map[int64]bool, len(episodeIDs))
	for _, id := range episodeIDs {
		wanted[id] = true
	}

	var failed int
	for _, ep := range episodes {
		if ep.SeasonNumber != season || !wanted[ep.ID] {
			continue
		}
		if err := c.unmonitorEpisode(ctx, ep, deleteFiles); err != nil {
			failed++
			c.logger.Warn("episode unmonitor failed, continuing",
				"series_id", seriesID,
				"season", season,
				"episode_id", ep.ID,
				"error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("unmonitor episodes of series %d: %d failed", seriesID, failed)
	}
	return nil
}

// unmonitorEpisode persists the monitor update first, then deletes the file.
func (c *Sonarr) unmonitorEpisode(ctx context.Context, ep Episode, deleteFiles bool) error {
	ep.Monitored = false
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v3/episode/%d", ep.ID), ep, nil); err != nil {
		return err
	}
	if deleteFiles && ep.EpisodeFileID > 0 {
		path := fmt.Sprintf("/api/v3/episodefile/%d", ep.EpisodeFileID)
		if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

func (c *Sonarr) listEpisodes(ctx context.Context, seriesID int64) ([]Episode, error) {
	var episodes []Episode
	path := fmt.Sprintf("/api/v3/episode?seriesId=%d", seriesID)
	if err := c.do(ctx, http.MethodGet, path, nil, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// deleteEpisodeFiles removes episode files for the scoped seasons.
func (c *Sonarr) deleteEpisodeFiles(ctx context.Context, seriesID int64, scope SeasonScope) error {
	episodes, err := c.listEpisodes(ctx, seriesID)
	if err != nil {
		return err
	}
	var failed int
	for _, ep := range episodes {
		if scope.Mode == ScopeOneSeason && ep.SeasonNumber != scope.Season {
			continue
		}
		if ep.EpisodeFileID == 0 {
			continue
		}
		path := fmt.Sprintf("/api/v3/episodefile/%d", ep.EpisodeFileID)
		if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil && !errors.Is(err, ErrNotFound) {
			failed++
			c.logger.Warn("episode file delete failed, continuing",
				"series_id", seriesID,
				"episode_file_id", ep.EpisodeFileID,
				"error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("delete files of series %d: %d failed", seriesID, failed)
	}
	return nil
}
