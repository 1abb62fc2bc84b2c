package mediaserver

import (
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

// Jellyfin is the Client implementation for a Jellyfin server. Collections
// are BoxSet items in Jellyfin's model.
type Jellyfin struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// JellyfinOption configures a Jellyfin client.
type JellyfinOption func(*Jellyfin)

// WithJellyfinHTTPClient sets a custom HTTP client.
func WithJellyfinHTTPClient(hc *http.Client) JellyfinOption {
	return func(c *Jellyfin) { c.httpClient = hc }
}

// NewJellyfin creates a new Jellyfin client.
func NewJellyfin(baseURL, apiKey string, logger *slog.Logger, opts ...JellyfinOption) *Jellyfin {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Jellyfin{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "jellyfin"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type jellyfinItem struct {
	ID           string            `json:"Id"`
	Name         string            `json:"Name"`
	Type         string            `json:"Type"`
	Overview     string            `json:"Overview"`
	ChildCount   int               `json:"ChildCount"`
	ParentID     string            `json:"ParentId"`
	DateCreated  time.Time         `json:"DateCreated"`
	PremiereDate time.Time         `json:"PremiereDate"`
	ProviderIDs  map[string]string `json:"ProviderIds"`
	Genres       []string          `json:"Genres"`
	Rating       float64           `json:"CommunityRating"`

	// Series-level fields.
	RecursiveItemCount int       `json:"RecursiveItemCount"`
	LastMediaAdded     time.Time `json:"DateLastMediaAdded"`

	UserData *struct {
		PlayCount      int       `json:"PlayCount"`
		LastPlayedDate time.Time `json:"LastPlayedDate"`
	} `json:"UserData"`
}

type jellyfinItemsResponse struct {
	Items            []jellyfinItem `json:"Items"`
	TotalRecordCount int            `json:"TotalRecordCount"`
}

func (c *Jellyfin) do(ctx context.Context, method, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

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
		return fmt.Errorf("%s %s: jellyfin error %s: %s", method, path, resp.Status, string(b))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func collectionFromJellyfin(it jellyfinItem) *Collection {
	return &Collection{
		ID:         it.ID,
		LibraryID:  it.ParentID,
		Title:      it.Name,
		Summary:    it.Overview,
		ChildCount: it.ChildCount,
	}
}

// FindCollectionByID looks a BoxSet up by item ID.
func (c *Jellyfin) FindCollectionByID(ctx context.Context, id string) (*Collection, error) {
	var resp jellyfinItemsResponse
	path := "/Items?Ids=" + url.QueryEscape(id) + "&Fields=ChildCount,Overview"
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	for _, it := range resp.Items {
		if it.ID == id {
			if it.Type != "BoxSet" {
				return nil, fmt.Errorf("collection %s: %w", id, ErrSmartCollection)
			}
			return collectionFromJellyfin(it), nil
		}
	}
	return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
}

// FindCollectionByTitle searches BoxSets by exact name.
func (c *Jellyfin) FindCollectionByTitle(ctx context.Context, libraryID, title string) (*Collection, error) {
	var resp jellyfinItemsResponse
	path := "/Items?IncludeItemTypes=BoxSet&Recursive=true&Fields=ChildCount,Overview&SearchTerm=" +
		url.QueryEscape(title)
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	for _, it := range resp.Items {
		if strings.EqualFold(strings.TrimSpace(it.Name), strings.TrimSpace(title)) {
			return collectionFromJellyfin(it), nil
		}
	}
	return nil, fmt.Errorf("collection %q in library %s: %w", title, libraryID, ErrNotFound)
}

// CreateCollection creates an empty BoxSet.
func (c *Jellyfin) CreateCollection(ctx context.Context, spec CollectionSpec) (*Collection, error) {
	var created struct {
		ID string `json:"Id"`
	}
	path := "/Collections?Name=" + url.QueryEscape(spec.Title)
	if err := c.do(ctx, http.MethodPost, path, &created); err != nil {
		return nil, err
	}
	c.logger.Info("created mirror collection",
		"title", spec.Title,
		"library", spec.LibraryID,
		"item_id", created.ID)
	return &Collection{ID: created.ID, LibraryID: spec.LibraryID, Title: spec.Title}, nil
}

// UpdateCollection is a no-op for Jellyfin; BoxSet renames go through the
// item update API which the engine does not need.
func (c *Jellyfin) UpdateCollection(_ context.Context, _ CollectionSpec) error {
	return nil
}

// DeleteCollection removes a BoxSet. Deleting a BoxSet that is already gone
// is not an error.
func (c *Jellyfin) DeleteCollection(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/Items/"+url.PathEscape(id), nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// AddChild adds an item to a BoxSet.
func (c *Jellyfin) AddChild(ctx context.Context, collectionID, itemID string) error {
	path := "/Collections/" + url.PathEscape(collectionID) + "/Items?Ids=" + url.QueryEscape(itemID)
	return c.do(ctx, http.MethodPost, path, nil)
}

// RemoveChild removes an item from a BoxSet.
func (c *Jellyfin) RemoveChild(ctx context.Context, collectionID, itemID string) error {
	path := "/Collections/" + url.PathEscape(collectionID) + "/Items?Ids=" + url.QueryEscape(itemID)
	return c.do(ctx, http.MethodDelete, path, nil)
}

// GetChildren lists a BoxSet's items.
func (c *Jellyfin) GetChildren(ctx context.Context, collectionID string) ([]Item, error) {
	var resp jellyfinItemsResponse
	path := "/Items?ParentId=" + url.QueryEscape(collectionID) + "&Fields=ProviderIds"
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, itemFromJellyfin(it))
	}
	return items, nil
}

// ListLibraryItems pages through a library.
func (c *Jellyfin) ListLibraryItems(ctx context.Context, libraryID string, offset, limit int) ([]Item, int, error) {
	var resp jellyfinItemsResponse
	path := fmt.Sprintf("/Items?ParentId=%s&Recursive=true&IncludeItemTypes=Movie,Series&Fields=ProviderIds&StartIndex=%d&Limit=%d",
		url.QueryEscape(libraryID), offset, limit)
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, 0, err
	}
	items := make([]Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, itemFromJellyfin(it))
	}
	return items, resp.TotalRecordCount, nil
}

// GetMetadata fetches the attribute view of one item.
func (c *Jellyfin) GetMetadata(ctx context.Context, itemID string) (*Metadata, error) {
	var resp jellyfinItemsResponse
	path := "/Items?Ids=" + url.QueryEscape(itemID) +
		"&Fields=ProviderIds,Genres,Overview,DateCreated,RecursiveItemCount,DateLastMediaAdded"
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("metadata %s: %w", itemID, ErrNotFound)
	}
	it := resp.Items[0]
	md := &Metadata{
		ID:                 it.ID,
		Title:              it.Name,
		AddedAt:            it.DateCreated,
		ReleasedAt:         it.PremiereDate,
		Genres:             it.Genres,
		Rating:             it.Rating,
		LeafCount:          it.RecursiveItemCount,
		LastEpisodeAddedAt: it.LastMediaAdded,
	}
	if it.UserData != nil {
		md.ViewCount = it.UserData.PlayCount
		md.LastViewedAt = it.UserData.LastPlayedDate
	}
	return md, nil
}

func itemFromJellyfin(it jellyfinItem) Item {
	item := Item{ID: it.ID, Title: it.Name, AddedAt: it.DateCreated}
	if id, ok := it.ProviderIDs["Tmdb"]; ok {
		_, _ = fmt.Sscanf(id, "%d", &item.TMDBID)
	}
	if id, ok := it.ProviderIDs["Tvdb"]; ok {
		_, _ = fmt.Sscanf(id, "%d", &item.TVDBID)
	}
	return item
}
