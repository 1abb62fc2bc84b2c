package attributes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vmunix/curatarr/internal/arr"
	"github.com/vmunix/curatarr/internal/rules"
)

// RadarrProvider resolves movie-manager properties. Tag and profile tables
// are fetched once and cached for the provider's lifetime; both change
// rarely enough that a stale read is harmless.
type RadarrProvider struct {
	client *arr.Radarr

	mu       sync.Mutex
	tags     map[int]string
	profiles map[int]string
}

// NewRadarrProvider creates a provider backed by a Radarr client.
func NewRadarrProvider(client *arr.Radarr) *RadarrProvider {
	return &RadarrProvider{client: client}
}

func (p *RadarrProvider) tagLabels(ctx context.Context, ids []int) ([]string, error) {
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

func (p *RadarrProvider) profileName(ctx context.Context, id int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profiles == nil {
		profiles, err := p.client.ListQualityProfiles(ctx)
		if err != nil {
			return "", err
		}
		p.profiles = make(map[int]string, len(profiles))
		for _, qp := range profiles {
			p.profiles[qp.ID] = qp.Name
		}
	}
	name, ok := p.profiles[id]
	if !ok {
		return "", fmt.Errorf("unknown quality profile %d", id)
	}
	return name, nil
}

// GetAttribute resolves one Radarr property.
func (p *RadarrProvider) GetAttribute(ctx context.Context, item rules.MediaItem, entry *rules.CatalogEntry) (rules.Value, error) {
	if item.TMDBID == 0 {
		return rules.Value{}, fmt.Errorf("no tmdb id: %w", ErrUnavailable)
	}
	movie, err := p.client.GetMovieByTMDBID(ctx, item.TMDBID)
	if err != nil {
		if errors.Is(err, arr.ErrNotFound) {
			return rules.Value{}, fmt.Errorf("not managed: %w", ErrUnavailable)
		}
		return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch entry.Name {
	case "addDate":
		return rules.DateValue(movie.Added), nil
	case "fileDate":
		if movie.MovieFile == nil {
			return rules.Value{}, fmt.Errorf("no file on disk: %w", ErrUnavailable)
		}
		return rules.DateValue(movie.MovieFile.DateAdded), nil
	case "tags":
		labels, err := p.tagLabels(ctx, movie.Tags)
		if err != nil {
			return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return rules.TextListValue(labels), nil
	case "profile":
		name, err := p.profileName(ctx, movie.QualityProfileID)
		if err != nil {
			return rules.Value{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return rules.TextValue(name), nil
	case "releaseDate":
		if movie.PhysicalRelease.IsZero() {
			return rules.Value{}, fmt.Errorf("no release date: %w", ErrUnavailable)
		}
		return rules.DateValue(movie.PhysicalRelease), nil
	case "monitored":
		return rules.BoolValue(movie.Monitored), nil
	case "inCinemas":
		if movie.InCinemas.IsZero() {
			return rules.Value{}, fmt.Errorf("no cinema date: %w", ErrUnavailable)
		}
		return rules.DateValue(movie.InCinemas), nil
	case "fileSize":
		return rules.NumberValue(float64(movie.SizeOnDisk)), nil
	case "runtime":
		return rules.NumberValue(float64(movie.Runtime)), nil
	}
	return rules.Value{}, fmt.Errorf("property %s.%s: %w", entry.App, entry.Name, ErrUnavailable)
}
