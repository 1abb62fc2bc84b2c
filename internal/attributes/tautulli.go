package attributes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/curatarr/internal/rules"
)

const defaultTimeout = 10 * time.Second

// Tautulli is a client for Tautulli's v2 API. It supplies the watch
// statistics the media server itself does not expose per user.
type Tautulli struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// TautulliOption configures a Tautulli client.
type TautulliOption func(*Tautulli)

// WithTautulliHTTPClient sets a custom HTTP client.
func WithTautulliHTTPClient(hc *http.Client) TautulliOption {
	return func(c *Tautulli) { c.httpClient = hc }
}

// NewTautulli creates a new Tautulli client.
func NewTautulli(baseURL, apiKey string, logger *slog.Logger, opts ...TautulliOption) *Tautulli {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Tautulli{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "tautulli"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HistoryRow is one playback record for an item.
type HistoryRow struct {
	User          string  `json:"user"`
	Date          int64   `json:"date"`
	WatchedStatus float64 `json:"watched_status"`
}

type tautulliResponse struct {
	Response struct {
		Result  string          `json:"result"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

func (c *Tautulli) call(ctx context.Context, cmd string, params url.Values, data any) error {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("apikey", c.apiKey)
	q.Set("cmd", cmd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tautulli %s: %w", cmd, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tautulli %s: unexpected status %d", cmd, resp.StatusCode)
	}
	var envelope tautulliResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Response.Result != "success" {
		return fmt.Errorf("tautulli %s: %s", cmd, envelope.Response.Message)
	}
	if data != nil {
		if err := json.Unmarshal(envelope.Response.Data, data); err != nil {
			return fmt.Errorf("decode %s data: %w", cmd, err)
		}
	}
	return nil
}

// History returns the playback records for one rating key.
func (c *Tautulli) History(ctx context.Context, ratingKey string) ([]HistoryRow, error) {
	params := url.Values{}
	params.Set("rating_key", ratingKey)
	params.Set("length", "1000")
	var data struct {
		Data []HistoryRow `json:"data"`
	}
	if err := c.call(ctx, "get_history", params, &data); err != nil {
		return nil, err
	}
	return data.Data, nil
}

// WatchedBy returns the distinct users who completed a watch of the item.
func (c *Tautulli) WatchedBy(ctx context.Context, ratingKey string) ([]string, error) {
	rows, err := c.History(ctx, ratingKey)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var users []string
	for _, row := range rows {
		if row.WatchedStatus < 1 || seen[row.User] {
			continue
		}
		seen[row.User] = true
		users = append(users, row.User)
	}
	return users, nil
}

// TautulliProvider resolves watch-statistics properties from Tautulli
// history.
type TautulliProvider struct {
	client *Tautulli
}

// NewTautulliProvider creates a provider backed by a Tautulli client.
func NewTautulliProvider(client *Tautulli) *TautulliProvider {
	return &TautulliProvider{client: client}
}

// GetAttribute resolves one Tautulli property.
func (p *TautulliProvider) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	rows, err := p.client.History(ctx, item.ID)
	if err != nil {
		return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch entry.Name {
	case "seenBy":
		seen := make(map[string]bool)
		var users []string
		for _, row := range rows {
			if row.WatchedStatus < 1 || seen[row.User] {
				continue
			}
			seen[row.User] = true
			users = append(users, row.User)
		}
		return rules.TextListValue(users), nil

	case "lastWatched":
		var latest int64
		for _, row := range rows {
			if row.WatchedStatus >= 1 && row.Date > latest {
				latest = row.Date
			}
		}
		if latest == 0 {
			return rules.Value{}, fmt.Errorf("never watched: %w", ErrUnavailable)
		}
		return rules.DateValue(time.Unix(latest, 0)), nil

	case "viewCount":
		var count int
		for _, row := range rows {
			if row.WatchedStatus >= 1 {
				count++
			}
		}
		return rules.NumberValue(float64(count)), nil
	}
	return rules.Value{}, fmt.Errorf("property %s.%s: %w", entry.App, entry.Name, ErrUnavailable)
}
