// Package enforcer drives scheduled enforcement runs: it pages media items
// out of the media server, evaluates each against the active rule groups,
// and dispatches the configured action for every match.
package enforcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/curatarr/internal/actions"
	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/rules"
)

const defaultPageSize = 50

// Deps are the collaborators a coordinator works through.
type Deps struct {
	Rules       *rules.Store
	Collections *collection.Store
	Catalog     *rules.Catalog
	Source      rules.AttributeSource
	Dispatcher  *actions.Dispatcher
	Syncer      *collection.Syncer
	Server      mediaserver.Client
	PageSize    int // items per library page, defaults to 50
}

// Summary is the aggregate outcome of one enforcement run.
type Summary struct {
	RunID    string        `json:"runId"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Handled  int           `json:"handled"`
	Skipped  int           `json:"skipped"`
	Failures int           `json:"failures"`
}

// runContext carries the counters of one run. Counters live here, never in
// package or coordinator state, so a run owns them exclusively.
type runContext struct {
	id       string
	started  time.Time
	handled  int
	skipped  int
	failures int
}

func newRunContext() *runContext {
	return &runContext{id: uuid.NewString(), started: time.Now()}
}

func (r *runContext) summary() *Summary {
	return &Summary{
		RunID:    r.id,
		Started:  r.started,
		Duration: time.Since(r.started),
		Handled:  r.handled,
		Skipped:  r.skipped,
		Failures: r.failures,
	}
}

// Coordinator owns the enforcement loop. At most one run executes at a
// time; a concurrent trigger fails fast with ErrAlreadyRunning.
type Coordinator struct {
	rules       *rules.Store
	collections *collection.Store
	catalog     *rules.Catalog
	source      rules.AttributeSource
	evaluator   *rules.Evaluator
	dispatcher  *actions.Dispatcher
	syncer      *collection.Syncer
	server      mediaserver.Client
	pageSize    int
	logger      *slog.Logger
	now         func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	last    *Summary
}

// New creates a coordinator.
func New(deps Deps, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Coordinator{
		rules:       deps.Rules,
		collections: deps.Collections,
		catalog:     deps.Catalog,
		source:      deps.Source,
		evaluator:   rules.NewEvaluator(deps.Catalog, deps.Source, logger),
		dispatcher:  deps.Dispatcher,
		syncer:      deps.Syncer,
		server:      deps.Server,
		pageSize:    pageSize,
		logger:      logger.With("component", "enforcer"),
		now:         time.Now,
	}
}

// Running reports whether a run is in flight.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Trigger starts a run in the background and returns immediately. It fails
// fast with ErrAlreadyRunning while a run is in flight.
func (c *Coordinator) Trigger(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	go func() {
		if _, err := c.Run(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			c.logger.Error("triggered run failed", "error", err)
		}
	}()
	return nil
}

// Last returns the summary of the most recently completed run, or nil when
// no run has completed yet.
func (c *Coordinator) Last() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Run executes one enforcement pass over every active rule group. A run
// already in progress rejects the trigger with ErrAlreadyRunning and no
// state change. A group whose pass fails is counted and logged; the run
// carries on with the remaining groups and still yields a summary.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer c.running.Store(false)

	run := newRunContext()
	c.logger.Info("run started", "run_id", run.id)

	active := true
	groups, err := c.rules.ListGroups(rules.GroupFilter{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("list rule groups: %w", err)
	}
	for _, g := range groups {
		if err := c.runGroup(ctx, run, g); err != nil {
			c.logger.Error("rule group pass failed", "group", g.Name, "error", err)
			run.failures++
		}
	}

	s := run.summary()
	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
	c.logger.Info("run complete", "run_id", run.id,
		"handled", s.Handled, "skipped", s.Skipped, "failures", s.Failures,
		"duration", s.Duration)
	return s, nil
}

// RunOne executes a pass over a single rule group, for per-group schedules
// and manual triggers. It shares the single-flight gate with Run.
func (c *Coordinator) RunOne(ctx context.Context, groupID int64) (*Summary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer c.running.Store(false)

	g, err := c.rules.GetGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("load rule group %d: %w", groupID, err)
	}

	run := newRunContext()
	c.logger.Info("run started", "run_id", run.id, "group", g.Name)
	if err := c.runGroup(ctx, run, g); err != nil {
		c.logger.Error("rule group pass failed", "group", g.Name, "error", err)
		run.failures++
	}

	s := run.summary()
	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
	return s, nil
}

// runGroup processes one rule group: reconcile its collection's mirror,
// page through the library, evaluate, dispatch. Item-level failures are
// counted and logged; only pre-item failures (store, library listing)
// abort the pass.
func (c *Coordinator) runGroup(ctx context.Context, run *runContext, g *rules.RuleGroup) error {
	log := c.logger.With("group", g.Name)

	var col *collection.Collection
	if g.CollectionID != nil {
		var err error
		col, err = c.collections.Get(*g.CollectionID)
		if err != nil {
			return fmt.Errorf("load collection %d: %w", *g.CollectionID, err)
		}
		if col, err = c.syncer.Reconcile(ctx, col); err != nil {
			// The mirror may be unreachable; the local model still works.
			log.Warn("mirror reconcile failed", "error", err)
		}
	}

	if !g.UseRules {
		// Manually curated; nothing to evaluate.
		return nil
	}

	excluded, err := c.collections.ExcludedIDs(g.ID)
	if err != nil {
		return fmt.Errorf("load exclusions for group %q: %w", g.Name, err)
	}

	members := map[string]*collection.Media{}
	if col != nil && g.Action == rules.ActionAddToCollection {
		list, err := c.collections.ListMedia(col.ID)
		if err != nil {
			return fmt.Errorf("load members of %q: %w", col.Title, err)
		}
		for _, m := range list {
			members[m.MediaServerID] = m
		}
	}

	start := c.now()
	handled := 0
	var totalSize int64
	matched := map[string]bool{}

	offset := 0
	for {
		items, total, err := c.server.ListLibraryItems(ctx, g.LibraryID, offset, c.pageSize)
		if err != nil {
			return fmt.Errorf("list library %q: %w", g.LibraryID, err)
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			if excluded[it.ID] {
				run.skipped++
				continue
			}
			item := rules.MediaItem{
				ID:     it.ID,
				Title:  it.Title,
				Type:   g.MediaType,
				TMDBID: it.TMDBID,
				TVDBID: it.TVDBID,
			}

			if m, ok := members[it.ID]; ok && c.holdExpired(col, m) {
				if err := c.dispatcher.ExpireFromCollection(ctx, col, item); err != nil {
					log.Warn("expiry failed", "item", it.Title, "error", err)
					run.failures++
				} else {
					log.Info("hold expired, enforced", "item", it.Title)
					run.handled++
					handled++
					delete(members, it.ID)
				}
				continue
			}

			stats := c.evaluator.Evaluate(ctx, g, item)
			if !stats.Result {
				continue
			}
			matched[it.ID] = true
			if err := c.dispatcher.Apply(ctx, g, col, item); err != nil {
				log.Warn("action failed", "item", it.Title, "error", err)
				run.failures++
				continue
			}
			run.handled++
			handled++
			if col != nil && g.Action == rules.ActionAddToCollection {
				totalSize += c.itemSize(ctx, item)
			}
		}
		offset += len(items)
		if offset >= total {
			break
		}
	}

	// Members the rules no longer match leave the collection. Manual
	// members stay regardless of rule outcomes.
	for id, m := range members {
		if matched[id] || m.IsManual {
			continue
		}
		item := rules.MediaItem{ID: id, Type: g.MediaType}
		if m.TMDBID != nil {
			item.TMDBID = *m.TMDBID
		}
		if err := c.dispatcher.RemoveFromCollection(ctx, col, item); err != nil {
			log.Warn("collection prune failed", "item", id, "error", err)
			run.failures++
		}
	}

	if col != nil {
		col.HandledMediaAmount = handled
		col.LastDurationInSeconds = int(c.now().Sub(start).Seconds())
		if g.Action == rules.ActionAddToCollection {
			col.TotalSizeBytes = &totalSize
		}
		if err := c.collections.Update(col); err != nil {
			return fmt.Errorf("update collection %q: %w", col.Title, err)
		}
		logEntry := &collection.Log{
			CollectionID: col.ID,
			RunID:        run.id,
			Message:      fmt.Sprintf("handled %d items", handled),
			Meta:         handled,
		}
		if err := c.collections.AppendLog(logEntry); err != nil {
			log.Warn("append collection log failed", "error", err)
		}
	}
	return nil
}

// holdExpired reports whether a member has outlived the collection's
// configured hold period.
func (c *Coordinator) holdExpired(col *collection.Collection, m *collection.Media) bool {
	if col == nil || col.DeleteAfterDays == nil || *col.DeleteAfterDays <= 0 {
		return false
	}
	window := time.Duration(*col.DeleteAfterDays) * 24 * time.Hour
	return c.now().Sub(m.AddDate) > window
}

// itemSize resolves the item's on-disk size through its acquisition
// manager. Unavailable sizes count as zero rather than failing the pass.
func (c *Coordinator) itemSize(ctx context.Context, item rules.MediaItem) int64 {
	ident := "radarr.fileSize"
	if item.Type == rules.MediaTypeShow {
		ident = "sonarr.diskSizeEntireShow"
	}
	entry, err := c.catalog.ResolveIdentifier(ident)
	if err != nil {
		return 0
	}
	v, err := c.source.GetAttribute(ctx, item, entry)
	if err != nil {
		return 0
	}
	return int64(v.Number)
}
