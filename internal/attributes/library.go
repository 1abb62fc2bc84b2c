package attributes

import (
	"context"
	"fmt"

	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/rules"
)

// HistorySource names users who have watched an item. Tautulli implements
// it; the media server's own metadata has no per-user history.
type HistorySource interface {
	WatchedBy(ctx context.Context, ratingKey string) ([]string, error)
}

// LibraryProvider resolves media-server properties from item metadata.
// history may be nil; user-level properties are unavailable without it.
type LibraryProvider struct {
	client  mediaserver.Client
	history HistorySource
}

// NewLibraryProvider creates a provider backed by a media server client.
func NewLibraryProvider(client mediaserver.Client, history HistorySource) *LibraryProvider {
	return &LibraryProvider{client: client, history: history}
}

// GetAttribute resolves one media-server property.
func (p *LibraryProvider) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	switch entry.Name {
	case "seenBy", "watchers":
		if p.history == nil {
			return rules.Value{}, fmt.Errorf("no history source configured: %w", ErrUnavailable)
		}
		users, err := p.history.WatchedBy(ctx, item.ID)
		if err != nil {
			return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return rules.TextListValue(users), nil
	}

	md, err := p.client.GetMetadata(ctx, item.ID)
	if err != nil {
		return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch entry.Name {
	case "addDate":
		if md.AddedAt.IsZero() {
			break
		}
		return rules.DateValue(md.AddedAt), nil
	case "releaseDate":
		if md.ReleasedAt.IsZero() {
			break
		}
		return rules.DateValue(md.ReleasedAt), nil
	case "rating":
		return rules.NumberValue(md.Rating), nil
	case "people":
		return rules.TextListValue(md.People), nil
	case "viewCount":
		return rules.NumberValue(float64(md.ViewCount)), nil
	case "collections":
		return rules.NumberValue(float64(md.Collections)), nil
	case "lastViewedAt":
		if md.LastViewedAt.IsZero() {
			break
		}
		return rules.DateValue(md.LastViewedAt), nil
	case "fileVideoResolution":
		if md.Resolution == "" {
			break
		}
		return rules.TextValue(md.Resolution), nil
	case "fileBitrate":
		return rules.NumberValue(float64(md.Bitrate)), nil
	case "genre":
		return rules.TextListValue(md.Genres), nil
	case "lastEpisodeAddedAt":
		if md.LastEpisodeAddedAt.IsZero() {
			break
		}
		return rules.DateValue(md.LastEpisodeAddedAt), nil
	case "episodes":
		return rules.NumberValue(float64(md.LeafCount)), nil
	case "viewedEpisodes":
		return rules.NumberValue(float64(md.ViewedLeaves)), nil
	}
	return rules.Value{}, fmt.Errorf("property %s.%s: %w", entry.App, entry.Name, ErrUnavailable)
}
