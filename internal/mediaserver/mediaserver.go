// Package mediaserver provides the media-server mirror capability: looking
// up, creating, and mutating the server-side collection that mirrors a local
// collection, and paging library items for enforcement runs.
package mediaserver

import (
	"context"
	"time"
)

//go:generate mockgen -source=mediaserver.go -destination=mocks/mock_client.go -package=mocks

// Type identifies the media server implementation.
type Type string

const (
	TypePlex     Type = "plex"
	TypeJellyfin Type = "jellyfin"
)

// Collection is a server-side collection (the mirror).
type Collection struct {
	ID         string
	LibraryID  string
	Title      string
	Summary    string
	ChildCount int
	Smart      bool
}

// CollectionSpec describes a mirror to create or update.
type CollectionSpec struct {
	ID        string // empty on create
	LibraryID string
	Title     string
	Summary   string
	MediaType string // "movie" or "show"
}

// Item is one library item as the media server reports it.
type Item struct {
	ID      string // rating key / item id
	Title   string
	TMDBID  int64
	TVDBID  int64
	AddedAt time.Time
}

// Metadata is the attribute view of one item, used by the rule engine.
type Metadata struct {
	ID                 string
	Title              string
	AddedAt            time.Time
	ReleasedAt         time.Time
	LastViewedAt       time.Time
	ViewCount          int
	Rating             float64
	Genres             []string
	People             []string
	Collections        int
	Resolution         string
	Bitrate            int
	LeafCount          int // episodes, for shows
	ViewedLeaves       int
	LastEpisodeAddedAt time.Time
}

// Client is the mirror capability surface. Lookups distinguish "absent"
// (ErrNotFound) from transport failure: a transport error on lookup must
// never be read as "not found".
type Client interface {
	// FindCollectionByID looks a collection up by its server-side ID.
	FindCollectionByID(ctx context.Context, id string) (*Collection, error)

	// FindCollectionByTitle searches a library's collections by exact title
	// (case-insensitive).
	FindCollectionByTitle(ctx context.Context, libraryID, title string) (*Collection, error)

	// CreateCollection creates a new mirror and returns it.
	CreateCollection(ctx context.Context, spec CollectionSpec) (*Collection, error)

	// UpdateCollection updates mirror title/summary.
	UpdateCollection(ctx context.Context, spec CollectionSpec) error

	// DeleteCollection removes a mirror.
	DeleteCollection(ctx context.Context, id string) error

	// AddChild adds an item to a mirror.
	AddChild(ctx context.Context, collectionID, itemID string) error

	// RemoveChild removes an item from a mirror.
	RemoveChild(ctx context.Context, collectionID, itemID string) error

	// GetChildren lists a mirror's items.
	GetChildren(ctx context.Context, collectionID string) ([]Item, error)

	// ListLibraryItems pages through a library. Returns the page and the
	// total item count.
	ListLibraryItems(ctx context.Context, libraryID string, offset, limit int) ([]Item, int, error)

	// GetMetadata fetches the attribute view of one item.
	GetMetadata(ctx context.Context, itemID string) (*Metadata, error)
}
