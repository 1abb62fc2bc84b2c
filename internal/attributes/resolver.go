// Package attributes resolves rule properties to concrete values by fanning
// out to the services that own them.
package attributes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmunix/curatarr/internal/rules"
)

// Provider supplies attribute values for one application's properties.
type Provider interface {
	GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error)
}

// Resolver routes attribute lookups to the provider registered for the
// property's application. It satisfies the evaluator's attribute source.
type Resolver struct {
	providers map[int]Provider
	logger    *slog.Logger
}

// NewResolver creates an empty resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		providers: make(map[int]Provider),
		logger:    logger.With("component", "attributes"),
	}
}

// Register installs a provider for an application. Later registrations for
// the same application replace earlier ones.
func (r *Resolver) Register(application int, p Provider) {
	r.providers[application] = p
}

// GetAttribute resolves one property for one item.
func (r *Resolver) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	p, ok := r.providers[entry.Application]
	if !ok {
		return rules.Value{}, fmt.Errorf("no provider for application %s: %w", entry.App, ErrUnavailable)
	}
	v, err := p.GetAttribute(ctx, item, entry)
	if err != nil {
		return rules.Value{}, fmt.Errorf("%s.%s for %q: %w", entry.App, entry.Name, item.Title, err)
	}
	return v, nil
}
