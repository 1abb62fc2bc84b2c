package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmunix/curatarr/internal/mediaserver"
)

// Syncer reconciles each collection's media-server mirror with the local
// model. The local model is authoritative: a failed mirror write is logged
// and reported, never rolled back into local state.
type Syncer struct {
	store  *Store
	mirror mediaserver.Client
	logger *slog.Logger
}

// NewSyncer creates a syncer over a store and a mirror client.
func NewSyncer(store *Store, mirror mediaserver.Client, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:  store,
		mirror: mirror,
		logger: logger.With("component", "syncer"),
	}
}

// Reconcile brings one collection's mirror link up to date and returns the
// collection with its current MediaServerID. Called once per collection per
// enforcement pass.
//
// A transport error on lookup leaves the link untouched: only a lookup that
// succeeds and reports the mirror absent may clear it. A mirror whose shape
// the engine cannot manage (smart collection) counts as no usable mirror.
func (s *Syncer) Reconcile(ctx context.Context, c *Collection) (*Collection, error) {
	if !c.SyncToMediaServer {
		return c, nil
	}

	if c.MediaServerID != "" {
		mirror, err := s.mirror.FindCollectionByID(ctx, c.MediaServerID)
		switch {
		case err == nil:
			return s.pruneIfEmpty(ctx, c, mirror)
		case errors.Is(err, mediaserver.ErrNotFound):
			s.logger.Info("mirror gone, unlinking",
				"collection", c.Title, "media_server_id", c.MediaServerID)
			if err := s.clearLink(ctx, c); err != nil {
				return c, err
			}
		case errors.Is(err, mediaserver.ErrSmartCollection):
			s.logger.Warn("mirror is a smart collection, unlinking",
				"collection", c.Title, "media_server_id", c.MediaServerID)
			if err := s.clearLink(ctx, c); err != nil {
				return c, err
			}
		default:
			// Transport failure. The mirror may well still exist.
			return c, fmt.Errorf("mirror lookup for %q: %w", c.Title, err)
		}
	}

	// Unlinked. Manual collections relink by their configured name;
	// automatic ones by title, but only while unlinked.
	mirror, err := s.mirror.FindCollectionByTitle(ctx, c.LibraryID, c.MirrorTitle())
	switch {
	case err == nil:
		if _, err := s.pruneIfEmpty(ctx, c, mirror); err != nil {
			return c, err
		}
		if c.MediaServerID != "" {
			s.logger.Info("relinked mirror by title",
				"collection", c.Title, "media_server_id", c.MediaServerID)
		}
		return c, nil
	case errors.Is(err, mediaserver.ErrNotFound):
		return c, nil
	case errors.Is(err, mediaserver.ErrSmartCollection):
		s.logger.Warn("collection with this title is smart, ignoring",
			"collection", c.Title)
		return c, nil
	default:
		return c, fmt.Errorf("mirror search for %q: %w", c.Title, err)
	}
}

// pruneIfEmpty links the collection to the mirror, unless the mirror has no
// children, in which case the mirror is deleted and the link cleared.
func (s *Syncer) pruneIfEmpty(ctx context.Context, c *Collection, mirror *mediaserver.Collection) (*Collection, error) {
	if mirror.ChildCount > 0 {
		if c.MediaServerID != mirror.ID {
			c.MediaServerID = mirror.ID
			if err := s.store.SetMediaServerID(c.ID, mirror.ID); err != nil {
				return c, err
			}
		}
		return c, nil
	}

	s.logger.Info("mirror is empty, deleting it",
		"collection", c.Title, "media_server_id", mirror.ID)
	if err := s.mirror.DeleteCollection(ctx, mirror.ID); err != nil {
		s.logger.Warn("mirror delete failed",
			"collection", c.Title, "error", err)
	}
	return c, s.clearLink(ctx, c)
}

func (s *Syncer) clearLink(ctx context.Context, c *Collection) error {
	c.MediaServerID = ""
	return s.store.SetMediaServerID(c.ID, "")
}

// EnsureMirror returns the ID of a live mirror for the collection, creating
// one when none exists. Used by the dispatcher before adding a child.
func (s *Syncer) EnsureMirror(ctx context.Context, c *Collection) (string, error) {
	if !c.SyncToMediaServer {
		return "", fmt.Errorf("collection %q: syncing disabled", c.Title)
	}
	if c.MediaServerID != "" {
		return c.MediaServerID, nil
	}
	mirror, err := s.mirror.CreateCollection(ctx, mediaserver.CollectionSpec{
		LibraryID: c.LibraryID,
		Title:     c.MirrorTitle(),
		Summary:   c.Description,
		MediaType: string(c.MediaType),
	})
	if err != nil {
		return "", fmt.Errorf("create mirror for %q: %w", c.Title, err)
	}
	c.MediaServerID = mirror.ID
	if err := s.store.SetMediaServerID(c.ID, mirror.ID); err != nil {
		return "", err
	}
	return mirror.ID, nil
}

// DeleteWithMirror removes a collection and, when it is synced and not
// manual, attempts to remove its mirror. Mirror failure is logged, not
// raised; the local delete always proceeds.
func (s *Syncer) DeleteWithMirror(ctx context.Context, c *Collection) error {
	if c.SyncToMediaServer && !c.ManualCollection && c.MediaServerID != "" {
		if err := s.mirror.DeleteCollection(ctx, c.MediaServerID); err != nil {
			s.logger.Warn("mirror delete failed",
				"collection", c.Title, "error", err)
		}
	}
	return s.store.Delete(c.ID)
}
