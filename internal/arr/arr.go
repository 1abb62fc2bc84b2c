// Package arr provides capability clients for the acquisition managers that
// own media files and their monitoring state.
package arr

import "context"

//go:generate mockgen -source=arr.go -destination=mocks/mock_manager.go -package=mocks

// Manager is the capability surface every acquisition manager provides.
// All calls are idempotent; retrying the same logical action is safe.
type Manager interface {
	// LookupID maps an item's external identifiers to the manager's own
	// record ID. Movie managers key on TMDB, show managers on TVDB.
	// Returns ErrNotFound when the manager doesn't own the item.
	LookupID(ctx context.Context, tmdbID, tvdbID int64) (int64, error)

	// Delete removes the item and, when deleteFiles is set, its files.
	Delete(ctx context.Context, id int64, deleteFiles bool) error

	// UpdateQualityProfile changes the quality profile on the item's record.
	UpdateQualityProfile(ctx context.Context, id int64, profileID int) error
}

// Tag is a manager-side tag. Item records carry tag IDs; the tag endpoint
// maps them to labels.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// QualityProfile is a manager-side quality profile.
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SeasonScopeMode selects which seasons an unmonitor operation touches.
type SeasonScopeMode int

const (
	// ScopeAllSeasons unmonitors the series and every season.
	ScopeAllSeasons SeasonScopeMode = iota

	// ScopeOneSeason unmonitors a single season.
	ScopeOneSeason

	// ScopeExistingEpisodes unmonitors only episodes that have a file on
	// disk, without touching the seasons' own monitored flags.
	ScopeExistingEpisodes
)

// SeasonScope describes the target of an UnmonitorSeasons call. Season is
// only read when Mode is ScopeOneSeason.
type SeasonScope struct {
	Mode   SeasonScopeMode
	Season int
}

// EpisodicManager extends Manager with season- and episode-granularity
// operations for show-oriented managers.
type EpisodicManager interface {
	Manager

	// UnmonitorSeasons updates the monitor state of the scoped seasons.
	// When deleteFiles is set, files are deleted only after the monitor
	// update has been persisted.
	UnmonitorSeasons(ctx context.Context, seriesID int64, scope SeasonScope, deleteFiles bool) error

	// UnmonitorEpisodes unmonitors specific episodes of one season, one at
	// a time; a failure on one episode does not abort the rest.
	UnmonitorEpisodes(ctx context.Context, seriesID int64, season int, episodeIDs []int64, deleteFiles bool) error
}
