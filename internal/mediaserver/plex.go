package mediaserver

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// Plex is the Client implementation for a Plex Media Server.
type Plex struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	machineID string
}

// PlexOption configures a Plex client.
type PlexOption func(*Plex)

// WithPlexHTTPClient sets a custom HTTP client.
func WithPlexHTTPClient(hc *http.Client) PlexOption {
	return func(c *Plex) { c.httpClient = hc }
}

// NewPlex creates a new Plex client.
func NewPlex(baseURL, token string, logger *slog.Logger, opts ...PlexOption) *Plex {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Plex{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		logger:     logger.With("component", "plex"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// plexDirectory is a collection or show entry in a MediaContainer.
type plexDirectory struct {
	RatingKey    string     `xml:"ratingKey,attr"`
	Key          string     `xml:"key,attr"`
	Title        string     `xml:"title,attr"`
	Summary      string     `xml:"summary,attr"`
	ChildCount   int        `xml:"childCount,attr"`
	Smart        int        `xml:"smart,attr"`
	LibraryID    string     `xml:"librarySectionID,attr"`
	AddedAt      int64      `xml:"addedAt,attr"`
	LastViewedAt int64      `xml:"lastViewedAt,attr"`
	ViewCount    int        `xml:"viewCount,attr"`
	Rating       float64    `xml:"audienceRating,attr"`
	Released     string     `xml:"originallyAvailableAt,attr"`
	LeafCount    int        `xml:"leafCount,attr"`
	ViewedLeaves int        `xml:"viewedLeafCount,attr"`
	Guids        []plexGuid `xml:"Guid"`
	Genres       []plexTag  `xml:"Genre"`
	Roles        []plexTag  `xml:"Role"`
	Labels       []plexTag  `xml:"Collection"`
}

// plexVideo is an item entry in a MediaContainer.
type plexVideo struct {
	RatingKey    string      `xml:"ratingKey,attr"`
	Title        string      `xml:"title,attr"`
	AddedAt      int64       `xml:"addedAt,attr"`
	LastViewedAt int64       `xml:"lastViewedAt,attr"`
	ViewCount    int         `xml:"viewCount,attr"`
	Rating       float64     `xml:"audienceRating,attr"`
	Released     string      `xml:"originallyAvailableAt,attr"`
	LeafCount    int         `xml:"leafCount,attr"`
	ViewedLeaves int         `xml:"viewedLeafCount,attr"`
	Guids        []plexGuid  `xml:"Guid"`
	Genres       []plexTag   `xml:"Genre"`
	Roles        []plexTag   `xml:"Role"`
	Labels       []plexTag   `xml:"Collection"`
	Media        []plexMedia `xml:"Media"`
}

type plexGuid struct {
	ID string `xml:"id,attr"`
}

type plexTag struct {
	Tag string `xml:"tag,attr"`
}

type plexMedia struct {
	VideoResolution string `xml:"videoResolution,attr"`
	Bitrate         int    `xml:"bitrate,attr"`
}

type plexContainer struct {
	XMLName     xml.Name        `xml:"MediaContainer"`
	TotalSize   int             `xml:"totalSize,attr"`
	Size        int             `xml:"size,attr"`
	MachineID   string          `xml:"machineIdentifier,attr"`
	Directories []plexDirectory `xml:"Directory"`
	Videos      []plexVideo     `xml:"Video"`
}

func (c *Plex) get(ctx context.Context, path string, result *plexContainer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %w", path, ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := xml.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Plex) send(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return nil
}

// machineIdentifier fetches and caches the server's machine identifier,
// which item URIs embed.
func (c *Plex) machineIdentifier(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machineID != "" {
		return c.machineID, nil
	}
	var container plexContainer
	if err := c.get(ctx, "/identity", &container); err != nil {
		return "", err
	}
	c.machineID = container.MachineID
	return c.machineID, nil
}

func collectionFromDirectory(d plexDirectory) *Collection {
	return &Collection{
		ID:         d.RatingKey,
		LibraryID:  d.LibraryID,
		Title:      d.Title,
		Summary:    d.Summary,
		ChildCount: d.ChildCount,
		Smart:      d.Smart == 1,
	}
}

// FindCollectionByID looks a collection up by rating key. A smart collection
// is reported as ErrSmartCollection since the engine cannot manage it.
func (c *Plex) FindCollectionByID(ctx context.Context, id string) (*Collection, error) {
	var container plexContainer
	if err := c.get(ctx, "/library/collections/"+url.PathEscape(id), &container); err != nil {
		return nil, err
	}
	if len(container.Directories) == 0 {
		return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	col := collectionFromDirectory(container.Directories[0])
	if col.Smart {
		return nil, fmt.Errorf("collection %s: %w", id, ErrSmartCollection)
	}
	return col, nil
}

// FindCollectionByTitle searches a library's collections by exact title.
func (c *Plex) FindCollectionByTitle(ctx context.Context, libraryID, title string) (*Collection, error) {
	var container plexContainer
	path := "/library/sections/" + url.PathEscape(libraryID) + "/collections"
	if err := c.get(ctx, path, &container); err != nil {
		return nil, err
	}
	for _, d := range container.Directories {
		if strings.EqualFold(strings.TrimSpace(d.Title), strings.TrimSpace(title)) {
			col := collectionFromDirectory(d)
			if col.Smart {
				return nil, fmt.Errorf("collection %q: %w", title, ErrSmartCollection)
			}
			return col, nil
		}
	}
	return nil, fmt.Errorf("collection %q in library %s: %w", title, libraryID, ErrNotFound)
}

// CreateCollection creates an empty regular collection in a library.
func (c *Plex) CreateCollection(ctx context.Context, spec CollectionSpec) (*Collection, error) {
	machineID, err := c.machineIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	itemType := "1" // movie
	if spec.MediaType == "show" {
		itemType = "2"
	}
	params := url.Values{}
	params.Set("type", itemType)
	params.Set("title", spec.Title)
	params.Set("smart", "0")
	params.Set("sectionId", spec.LibraryID)
	params.Set("uri", fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/", machineID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/library/collections?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("create collection: unexpected status %d", resp.StatusCode)
	}

	var container plexContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(container.Directories) == 0 {
		return nil, fmt.Errorf("create collection: empty response")
	}
	c.logger.Info("created mirror collection",
		"title", spec.Title,
		"library", spec.LibraryID,
		"rating_key", container.Directories[0].RatingKey)
	return collectionFromDirectory(container.Directories[0]), nil
}

// UpdateCollection updates the mirror's title and summary.
func (c *Plex) UpdateCollection(ctx context.Context, spec CollectionSpec) error {
	params := url.Values{}
	params.Set("title", spec.Title)
	params.Set("summary", spec.Summary)
	path := "/library/collections/" + url.PathEscape(spec.ID) + "?" + params.Encode()
	return c.send(ctx, http.MethodPut, path)
}

// DeleteCollection removes a mirror. Deleting a mirror that is already gone
// is not an error.
func (c *Plex) DeleteCollection(ctx context.Context, id string) error {
	err := c.send(ctx, http.MethodDelete, "/library/collections/"+url.PathEscape(id))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// AddChild adds an item to a mirror by metadata URI.
func (c *Plex) AddChild(ctx context.Context, collectionID, itemID string) error {
	machineID, err := c.machineIdentifier(ctx)
	if err != nil {
		return err
	}
	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s", machineID, itemID)
	path := "/library/collections/" + url.PathEscape(collectionID) + "/items?uri=" + url.QueryEscape(uri)
	return c.send(ctx, http.MethodPut, path)
}

// RemoveChild removes an item from a mirror.
func (c *Plex) RemoveChild(ctx context.Context, collectionID, itemID string) error {
	path := "/library/collections/" + url.PathEscape(collectionID) + "/children/" + url.PathEscape(itemID)
	return c.send(ctx, http.MethodDelete, path)
}

// GetChildren lists a mirror's items.
func (c *Plex) GetChildren(ctx context.Context, collectionID string) ([]Item, error) {
	var container plexContainer
	path := "/library/collections/" + url.PathEscape(collectionID) + "/children"
	if err := c.get(ctx, path, &container); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(container.Videos))
	for _, v := range container.Videos {
		items = append(items, itemFromVideo(v))
	}
	// Shows arrive as Directory entries rather than Video.
	for _, d := range container.Directories {
		items = append(items, Item{ID: d.RatingKey, Title: d.Title})
	}
	return items, nil
}

// ListLibraryItems pages through a library section using Plex container
// paging headers.
func (c *Plex) ListLibraryItems(ctx context.Context, libraryID string, offset, limit int) ([]Item, int, error) {
	path := fmt.Sprintf("/library/sections/%s/all?X-Plex-Container-Start=%d&X-Plex-Container-Size=%d",
		url.PathEscape(libraryID), offset, limit)
	var container plexContainer
	if err := c.get(ctx, path, &container); err != nil {
		return nil, 0, err
	}

	items := make([]Item, 0, len(container.Videos)+len(container.Directories))
	for _, v := range container.Videos {
		items = append(items, itemFromVideo(v))
	}
	for _, d := range container.Directories {
		items = append(items, Item{ID: d.RatingKey, Title: d.Title})
	}
	total := container.TotalSize
	if total == 0 {
		total = container.Size
	}
	return items, total, nil
}

// GetMetadata fetches the attribute view of one item.
func (c *Plex) GetMetadata(ctx context.Context, itemID string) (*Metadata, error) {
	var container plexContainer
	if err := c.get(ctx, "/library/metadata/"+url.PathEscape(itemID), &container); err != nil {
		return nil, err
	}
	if len(container.Videos) == 0 && len(container.Directories) == 0 {
		return nil, fmt.Errorf("metadata %s: %w", itemID, ErrNotFound)
	}

	if len(container.Videos) > 0 {
		v := container.Videos[0]
		md := &Metadata{
			ID:           v.RatingKey,
			Title:        v.Title,
			AddedAt:      time.Unix(v.AddedAt, 0),
			ViewCount:    v.ViewCount,
			Rating:       v.Rating,
			Collections:  len(v.Labels),
			LeafCount:    v.LeafCount,
			ViewedLeaves: v.ViewedLeaves,
		}
		if v.LastViewedAt > 0 {
			md.LastViewedAt = time.Unix(v.LastViewedAt, 0)
		}
		if v.Released != "" {
			if t, err := time.Parse("2006-01-02", v.Released); err == nil {
				md.ReleasedAt = t
			}
		}
		for _, g := range v.Genres {
			md.Genres = append(md.Genres, g.Tag)
		}
		for _, r := range v.Roles {
			md.People = append(md.People, r.Tag)
		}
		if len(v.Media) > 0 {
			md.Resolution = v.Media[0].VideoResolution
			md.Bitrate = v.Media[0].Bitrate
		}
		return md, nil
	}

	// Shows arrive as Directory entries.
	d := container.Directories[0]
	md := &Metadata{
		ID:           d.RatingKey,
		Title:        d.Title,
		AddedAt:      time.Unix(d.AddedAt, 0),
		ViewCount:    d.ViewCount,
		Rating:       d.Rating,
		Collections:  len(d.Labels),
		LeafCount:    d.LeafCount,
		ViewedLeaves: d.ViewedLeaves,
	}
	if d.LastViewedAt > 0 {
		md.LastViewedAt = time.Unix(d.LastViewedAt, 0)
	}
	if d.Released != "" {
		if t, err := time.Parse("2006-01-02", d.Released); err == nil {
			md.ReleasedAt = t
		}
	}
	for _, g := range d.Genres {
		md.Genres = append(md.Genres, g.Tag)
	}
	for _, r := range d.Roles {
		md.People = append(md.People, r.Tag)
	}
	if t, err := c.lastLeafAddedAt(ctx, itemID); err == nil {
		md.LastEpisodeAddedAt = t
	}
	return md, nil
}

// lastLeafAddedAt scans a show's episodes and returns the newest addedAt.
func (c *Plex) lastLeafAddedAt(ctx context.Context, itemID string) (time.Time, error) {
	var container plexContainer
	if err := c.get(ctx, "/library/metadata/"+url.PathEscape(itemID)+"/allLeaves", &container); err != nil {
		return time.Time{}, err
	}
	var latest int64
	for _, v := range container.Videos {
		if v.AddedAt > latest {
			latest = v.AddedAt
		}
	}
	if latest == 0 {
		return time.Time{}, fmt.Errorf("show %s: no episodes", itemID)
	}
	return time.Unix(latest, 0), nil
}

func itemFromVideo(v plexVideo) Item {
	item := Item{
		ID:      v.RatingKey,
		Title:   v.Title,
		AddedAt: time.Unix(v.AddedAt, 0),
	}
	for _, g := range v.Guids {
		// Guid ids look like tmdb://603 or tvdb://121361.
		if id, ok := strings.CutPrefix(g.ID, "tmdb://"); ok {
			_, _ = fmt.Sscanf(id, "%d", &item.TMDBID)
		}
		if id, ok := strings.CutPrefix(g.ID, "tvdb://"); ok {
			_, _ = fmt.Sscanf(id, "%d", &item.TVDBID)
		}
	}
	return item
}
