package attributes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/curatarr/internal/rules"
)

// Overseerr is a client for the request manager's v1 API.
type Overseerr struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// OverseerrOption configures an Overseerr client.
type OverseerrOption func(*Overseerr)

// WithOverseerrHTTPClient sets a custom HTTP client.
func WithOverseerrHTTPClient(hc *http.Client) OverseerrOption {
	return func(c *Overseerr) { c.httpClient = hc }
}

// NewOverseerr creates a new Overseerr client.
func NewOverseerr(baseURL, apiKey string, logger *slog.Logger, opts ...OverseerrOption) *Overseerr {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Overseerr{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "overseerr"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// overseerrRequestStatus values as Overseerr reports them.
const overseerrStatusApproved = 2

// OverseerrRequest is one media request record.
type OverseerrRequest struct {
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	RequestedBy struct {
		DisplayName string `json:"displayName"`
	} `json:"requestedBy"`
}

// OverseerrMedia is the request-manager view of one title.
type OverseerrMedia struct {
	ReleaseDate  string `json:"releaseDate"`
	FirstAirDate string `json:"firstAirDate"`
	MediaInfo    *struct {
		MediaAddedAt time.Time          `json:"mediaAddedAt"`
		Requests     []OverseerrRequest `json:"requests"`
	} `json:"mediaInfo"`
}

func (c *Overseerr) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetMovie fetches the request-manager view of a movie by TMDB id.
func (c *Overseerr) GetMovie(ctx context.Context, tmdbID int64) (*OverseerrMedia, error) {
	var media OverseerrMedia
	if err := c.get(ctx, fmt.Sprintf("/api/v1/movie/%d", tmdbID), &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// GetTV fetches the request-manager view of a show by TMDB id.
func (c *Overseerr) GetTV(ctx context.Context, tmdbID int64) (*OverseerrMedia, error) {
	var media OverseerrMedia
	if err := c.get(ctx, fmt.Sprintf("/api/v1/tv/%d", tmdbID), &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// OverseerrProvider resolves request-manager properties.
type OverseerrProvider struct {
	client *Overseerr
}

// NewOverseerrProvider creates a provider backed by an Overseerr client.
func NewOverseerrProvider(client *Overseerr) *OverseerrProvider {
	return &OverseerrProvider{client: client}
}

// GetAttribute resolves one Overseerr property. Overseerr is keyed by TMDB
// id for both media types, so items known only by TVDB id are unavailable.
func (p *OverseerrProvider) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	if item.TMDBID == 0 {
		return rules.Value{}, fmt.Errorf("no tmdb id: %w", ErrUnavailable)
	}

	var media *OverseerrMedia
	var err error
	if item.Type == rules.MediaTypeShow {
		media, err = p.client.GetTV(ctx, item.TMDBID)
	} else {
		media, err = p.client.GetMovie(ctx, item.TMDBID)
	}
	if err != nil {
		return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var requests []OverseerrRequest
	if media.MediaInfo != nil {
		requests = media.MediaInfo.Requests
	}

	switch entry.Name {
	case "addUser":
		if len(requests) == 0 {
			return rules.Value{}, fmt.Errorf("never requested: %w", ErrUnavailable)
		}
		return rules.TextValue(requests[0].RequestedBy.DisplayName), nil

	case "requestDate":
		var earliest time.Time
		for _, r := range requests {
			if earliest.IsZero() || r.CreatedAt.Before(earliest) {
				earliest = r.CreatedAt
			}
		}
		if earliest.IsZero() {
			return rules.Value{}, fmt.Errorf("never requested: %w", ErrUnavailable)
		}
		return rules.DateValue(earliest), nil

	case "releaseDate":
		raw := media.ReleaseDate
		if raw == "" {
			raw = media.FirstAirDate
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return rules.Value{}, fmt.Errorf("no release date: %w", ErrUnavailable)
		}
		return rules.DateValue(t), nil

	case "approvalDate":
		var approved time.Time
		for _, r := range requests {
			if r.Status == overseerrStatusApproved && (approved.IsZero() || r.UpdatedAt.Before(approved)) {
				approved = r.UpdatedAt
			}
		}
		if approved.IsZero() {
			return rules.Value{}, fmt.Errorf("never approved: %w", ErrUnavailable)
		}
		return rules.DateValue(approved), nil

	case "mediaAddedAt":
		if media.MediaInfo == nil || media.MediaInfo.MediaAddedAt.IsZero() {
			return rules.Value{}, fmt.Errorf("not available yet: %w", ErrUnavailable)
		}
		return rules.DateValue(media.MediaInfo.MediaAddedAt), nil

	case "amountRequested":
		return rules.NumberValue(float64(len(requests))), nil
	}
	return rules.Value{}, fmt.Errorf("property %s.%s: %w", entry.App, entry.Name, ErrUnavailable)
}
