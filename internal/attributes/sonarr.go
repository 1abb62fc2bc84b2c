package attributes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vmunix/curatarr/internal/arr"
	"github.com/vmunix/curatarr/internal/rules"
)

// SonarrProvider resolves show-manager properties.
type SonarrProvider struct {
	client *arr.Sonarr

	mu   sync.Mutex
	tags map[int]string
}

// NewSonarrProvider creates a provider backed by a Sonarr client.
func NewSonarrProvider(client *arr.Sonarr) *SonarrProvider {
	return &SonarrProvider{client: client}
}

func (p *SonarrProvider) tagLabels(ctx context.Context, ids []int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tags == nil {
		tags, err := p.client.ListTags(ctx)
		if err != nil {
			return nil, err
		}
		p.tags = make(map[int]string, len(tags))
		for _, t := range tags {
			p.tags[t.ID] = t.Label
		}
	}
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := p.tags[id]; ok {
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// GetAttribute resolves one Sonarr property.
func (p *SonarrProvider) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	if item.TVDBID == 0 {
		return rules.Value{}, fmt.Errorf("no tvdb id: %w", ErrUnavailable)
	}
	series, err := p.client.GetSeriesByTVDBID(ctx, item.TVDBID)
	if err != nil {
		if errors.Is(err, arr.ErrNotFound) {
			return rules.Value{}, fmt.Errorf("not managed: %w", ErrUnavailable)
		}
		return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch entry.Name {
	case "addDate":
		return rules.DateValue(series.Added), nil
	case "diskSizeEntireShow":
		if series.Statistics == nil {
			return rules.NumberValue(0), nil
		}
		return rules.NumberValue(float64(series.Statistics.SizeOnDisk)), nil
	case "tags":
		labels, err := p.tagLabels(ctx, series.Tags)
		if err != nil {
			return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return rules.TextListValue(labels), nil
	case "qualityProfileId":
		return rules.NumberValue(float64(series.QualityProfileID)), nil
	case "firstAirDate":
		if series.FirstAired.IsZero() {
			return rules.Value{}, fmt.Errorf("no air date: %w", ErrUnavailable)
		}
		return rules.DateValue(series.FirstAired), nil
	case "seasons":
		// Specials (season 0) don't count.
		var n int
		for _, s := range series.Seasons {
			if s.SeasonNumber > 0 {
				n++
			}
		}
		return rules.NumberValue(float64(n)), nil
	case "status":
		return rules.TextValue(series.Status), nil
	case "ended":
		return rules.BoolValue(series.Ended), nil
	case "monitored":
		return rules.BoolValue(series.Monitored), nil
	}
	return rules.Value{}, fmt.Errorf("property %s.%s: %w", entry.App, entry.Name, ErrUnavailable)
}
