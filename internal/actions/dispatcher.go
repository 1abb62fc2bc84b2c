// Package actions applies enforcement actions to matched media items.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/curatarr/internal/arr"
	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/rules"
)

// callTimeout bounds every remote call the dispatcher makes. A timeout is a
// per-item failure, never a run failure.
const callTimeout = 10 * time.Second

// Dispatcher routes a rule group's enforcement action to the service that
// carries it out.
type Dispatcher struct {
	movies arr.Manager
	shows  arr.EpisodicManager
	mirror mediaserver.Client
	store  *collection.Store
	syncer *collection.Syncer
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. movies and shows may be nil when the
// corresponding manager isn't configured; actions needing them fail per
// item.
func NewDispatcher(movies arr.Manager, shows arr.EpisodicManager, mirror mediaserver.Client,
	store *collection.Store, syncer *collection.Syncer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		movies: movies,
		shows:  shows,
		mirror: mirror,
		store:  store,
		syncer: syncer,
		logger: logger.With("component", "dispatcher"),
	}
}

// Apply performs the group's enforcement action on one matched item. col may
// be nil when the group has no collection attached.
func (d *Dispatcher) Apply(ctx context.Context, group *rules.RuleGroup, col *collection.Collection, item rules.MediaItem) error {
	switch group.Action {
	case rules.ActionDelete:
		return d.deleteItem(ctx, col, item)
	case rules.ActionExclude:
		return d.exclude(ctx, group, item)
	case rules.ActionAddToCollection:
		if col == nil {
			return fmt.Errorf("group %q has no collection to add %q to", group.Name, item.Title)
		}
		return d.AddToCollection(ctx, col, item)
	case rules.ActionChangeQualityProfile:
		return d.changeProfile(ctx, group, item)
	}
	return fmt.Errorf("unknown enforcement action %d", group.Action)
}

func (d *Dispatcher) deleteItem(ctx context.Context, col *collection.Collection, item rules.MediaItem) error {
	arrAction := collection.ArrActionDelete
	if col != nil {
		arrAction = col.ArrAction
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if item.Type == rules.MediaTypeShow {
		return d.deleteShow(ctx, arrAction, item)
	}

	if d.movies == nil {
		return fmt.Errorf("no movie manager configured for %q", item.Title)
	}
	id, err := d.movies.LookupID(ctx, item.TMDBID, item.TVDBID)
	if err != nil {
		return fmt.Errorf("resolve %q in movie manager: %w", item.Title, err)
	}
	if err := d.movies.Delete(ctx, id, true); err != nil {
		return fmt.Errorf("delete %q: %w", item.Title, err)
	}
	d.logger.Info("deleted movie", "title", item.Title, "manager_id", id)
	return nil
}

func (d *Dispatcher) deleteShow(ctx context.Context, arrAction collection.ArrAction, item rules.MediaItem) error {
	if d.shows == nil {
		return fmt.Errorf("no show manager configured for %q", item.Title)
	}
	id, err := d.shows.LookupID(ctx, item.TMDBID, item.TVDBID)
	if err != nil {
		return fmt.Errorf("resolve %q in show manager: %w", item.Title, err)
	}

	allSeasons := arr.SeasonScope{Mode: arr.ScopeAllSeasons}
	switch arrAction {
	case collection.ArrActionDelete:
		err = d.shows.Delete(ctx, id, true)
	case collection.ArrActionUnmonitor:
		err = d.shows.UnmonitorSeasons(ctx, id, allSeasons, false)
	case collection.ArrActionUnmonitorDeleteAll:
		err = d.shows.UnmonitorSeasons(ctx, id, allSeasons, true)
	case collection.ArrActionUnmonitorDeleteExisting:
		err = d.shows.UnmonitorSeasons(ctx, id, arr.SeasonScope{Mode: arr.ScopeExistingEpisodes}, true)
	default:
		return fmt.Errorf("unknown arr action %d", arrAction)
	}
	if err != nil {
		return fmt.Errorf("enforce on show %q: %w", item.Title, err)
	}
	d.logger.Info("enforced on show",
		"title", item.Title, "manager_id", id, "arr_action", int(arrAction))
	return nil
}

func (d *Dispatcher) exclude(ctx context.Context, group *rules.RuleGroup, item rules.MediaItem) error {
	groupID := group.ID
	err := d.store.AddExclusion(&collection.Exclusion{
		MediaServerID: item.ID,
		RuleGroupID:   &groupID,
		MediaType:     string(item.Type),
	})
	if err != nil {
		return fmt.Errorf("exclude %q from group %q: %w", item.Title, group.Name, err)
	}
	d.logger.Info("excluded item", "title", item.Title, "group", group.Name)
	return nil
}

func (d *Dispatcher) changeProfile(ctx context.Context, group *rules.RuleGroup, item rules.MediaItem) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var mgr arr.Manager
	var profileID *int
	if item.Type == rules.MediaTypeShow {
		mgr, profileID = d.shows, group.SonarrProfileID
	} else {
		mgr, profileID = d.movies, group.RadarrProfileID
	}
	if mgr == nil {
		return fmt.Errorf("no manager configured for %q", item.Title)
	}
	if profileID == nil {
		return fmt.Errorf("group %q has no target quality profile for %s", group.Name, item.Type)
	}

	id, err := mgr.LookupID(ctx, item.TMDBID, item.TVDBID)
	if err != nil {
		return fmt.Errorf("resolve %q in manager: %w", item.Title, err)
	}
	if err := mgr.UpdateQualityProfile(ctx, id, *profileID); err != nil {
		return fmt.Errorf("change profile of %q: %w", item.Title, err)
	}
	d.logger.Info("changed quality profile",
		"title", item.Title, "profile_id", *profileID)
	return nil
}

// AddToCollection records membership locally and mirrors it to the media
// server when the collection is synced. Mirror failure is a warning; the
// local membership stands.
func (d *Dispatcher) AddToCollection(ctx context.Context, col *collection.Collection, item rules.MediaItem) error {
	var tmdb *int64
	if item.TMDBID != 0 {
		id := item.TMDBID
		tmdb = &id
	}
	err := d.store.AddMedia(&collection.Media{
		CollectionID:  col.ID,
		MediaServerID: item.ID,
		TMDBID:        tmdb,
		AddDate:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("add %q to collection %q: %w", item.Title, col.Title, err)
	}

	if !col.SyncToMediaServer {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	mirrorID, err := d.syncer.EnsureMirror(ctx, col)
	if err != nil {
		d.logger.Warn("mirror unavailable, membership is local only",
			"collection", col.Title, "error", err)
		return nil
	}
	if err := d.mirror.AddChild(ctx, mirrorID, item.ID); err != nil {
		d.logger.Warn("mirror add failed, membership is local only",
			"collection", col.Title, "title", item.Title, "error", err)
	}
	return nil
}

// ExpireFromCollection applies the collection's configured manager action
// to an item whose hold period has elapsed, then drops its membership.
func (d *Dispatcher) ExpireFromCollection(ctx context.Context, col *collection.Collection, item rules.MediaItem) error {
	if err := d.deleteItem(ctx, col, item); err != nil {
		return err
	}
	return d.RemoveFromCollection(ctx, col, item)
}

// RemoveFromCollection drops membership locally and from the mirror.
func (d *Dispatcher) RemoveFromCollection(ctx context.Context, col *collection.Collection, item rules.MediaItem) error {
	if err := d.store.RemoveMedia(col.ID, item.ID); err != nil {
		return fmt.Errorf("remove %q from collection %q: %w", item.Title, col.Title, err)
	}

	if !col.SyncToMediaServer || col.MediaServerID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := d.mirror.RemoveChild(ctx, col.MediaServerID, item.ID); err != nil {
		d.logger.Warn("mirror remove failed",
			"collection", col.Title, "title", item.Title, "error", err)
	}
	return nil
}
