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

const defaultTimeout = 10 * time.Second

// Movie is the subset of a Radarr movie record the engine reads.
type Movie struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TMDBID           int64     `json:"tmdbId"`
	Monitored        bool      `json:"monitored"`
	QualityProfileID int       `json:"qualityProfileId"`
	Tags             []int     `json:"tags"`
	Added            time.Time `json:"added"`
	SizeOnDisk       int64     `json:"sizeOnDisk"`
	Runtime          int       `json:"runtime"`
	InCinemas        time.Time `json:"inCinemas"`
	PhysicalRelease  time.Time `json:"physicalRelease"`
	HasFile          bool      `json:"hasFile"`
	MovieFile        *struct {
		DateAdded time.Time `json:"dateAdded"`
	} `json:"movieFile"`

	raw map[string]json.RawMessage
}

// Radarr is a client for the movie-oriented acquisition manager.
type Radarr struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// RadarrOption configures a Radarr client.
type RadarrOption func(*Radarr)

// WithRadarrHTTPClient sets a custom HTTP client.
func WithRadarrHTTPClient(hc *http.Client) RadarrOption {
	return func(c *Radarr) { c.httpClient = hc }
}

// NewRadarr creates a new Radarr client.
func NewRadarr(baseURL, apiKey string, logger *slog.Logger, opts ...RadarrOption) *Radarr {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Radarr{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "radarr"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Radarr) do(ctx context.Context, method, path string, body, result any) error {
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
		return fmt.Errorf("%s %s: radarr error %s: %s", method, path, resp.Status, string(b))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetMovie fetches a movie record by Radarr ID.
func (c *Radarr) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v3/movie/%d", id), nil, &raw); err != nil {
		return nil, err
	}
	return movieFromRaw(raw)
}

// GetMovieByTMDBID looks a movie up by its TMDB identifier.
// Returns ErrNotFound when Radarr doesn't manage the movie.
func (c *Radarr) GetMovieByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	var raws []map[string]json.RawMessage
	path := "/api/v3/movie?tmdbId=" + url.QueryEscape(fmt.Sprint(tmdbID))
	if err := c.do(ctx, http.MethodGet, path, nil, &raws); err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("movie tmdb:%d: %w", tmdbID, ErrNotFound)
	}
	return movieFromRaw(raws[0])
}

func movieFromRaw(raw map[string]json.RawMessage) (*Movie, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("remarshal movie: %w", err)
	}
	m := &Movie{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode movie: %w", err)
	}
	m.raw = raw
	return m, nil
}

// LookupID maps a TMDB identifier to the Radarr record ID.
func (c *Radarr) LookupID(ctx context.Context, tmdbID, _ int64) (int64, error) {
	if tmdbID == 0 {
		return 0, fmt.Errorf("no tmdb id: %w", ErrNotFound)
	}
	m, err := c.GetMovieByTMDBID(ctx, tmdbID)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// ListTags returns all manager-side tags.
func (c *Radarr) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/api/v3/tag", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListQualityProfiles returns all quality profiles.
func (c *Radarr) ListQualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	if err := c.do(ctx, http.MethodGet, "/api/v3/qualityprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Delete removes the movie from Radarr, and its files when deleteFiles is
// set. Radarr's delete is idempotent; a missing record is not an error.
func (c *Radarr) Delete(ctx context.Context, id int64, deleteFiles bool) error {
	path := fmt.Sprintf("/api/v3/movie/%d?deleteFiles=%t&addImportExclusion=false", id, deleteFiles)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// UpdateQualityProfile reads the movie record, sets the profile, and writes
// the full record back. Radarr rejects partial updates, so the untouched
// fields ride along in raw form.
func (c *Radarr) UpdateQualityProfile(ctx context.Context, id int64, profileID int) error {
	m, err := c.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	profile, err := json.Marshal(profileID)
	if err != nil {
		return fmt.Errorf("marshal profile id: %w", err)
	}
	m.raw["qualityProfileId"] = profile
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v3/movie/%d", id), m.raw, nil)
}
