package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Application identifiers. The pair (application, property) keys the catalog.
const (
	AppPlex = iota
	AppOverseerr
	AppRadarr
	AppSonarr
	AppTautulli
)

var applicationNames = map[int]string{
	AppPlex:      "plex",
	AppOverseerr: "overseerr",
	AppRadarr:    "radarr",
	AppSonarr:    "sonarr",
	AppTautulli:  "tautulli",
}

// CatalogEntry describes one rule property: its identity, value type, and
// which media types it applies to (empty means both).
type CatalogEntry struct {
	Application int
	Property    int
	App         string
	Name        string
	Type        ValueType
	MediaTypes  []MediaType
}

// AppliesTo reports whether the property is valid for the given media type.
func (e *CatalogEntry) AppliesTo(mt MediaType) bool {
	if len(e.MediaTypes) == 0 {
		return true
	}
	for _, t := range e.MediaTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Catalog is the registry of rule properties. It is built once at startup
// and injected where needed; it is never mutated afterwards.
type Catalog struct {
	byPair  map[PropRef]*CatalogEntry
	byIdent map[string]*CatalogEntry
}

// NewCatalog builds a catalog from entries. Duplicate pairs or identifiers
// are rejected.
func NewCatalog(entries []CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		byPair:  make(map[PropRef]*CatalogEntry, len(entries)),
		byIdent: make(map[string]*CatalogEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if e.App == "" {
			e.App = applicationNames[e.Application]
		}
		ref := PropRef{Application: e.Application, Property: e.Property}
		if _, ok := c.byPair[ref]; ok {
			return nil, fmt.Errorf("duplicate catalog pair (%d, %d)", e.Application, e.Property)
		}
		ident := strings.ToLower(e.App + "." + e.Name)
		if _, ok := c.byIdent[ident]; ok {
			return nil, fmt.Errorf("duplicate catalog identifier %q", ident)
		}
		c.byPair[ref] = e
		c.byIdent[ident] = e
	}
	return c, nil
}

// Resolve looks up an entry by (application, property) pair.
func (c *Catalog) Resolve(application, property int) (*CatalogEntry, error) {
	e, ok := c.byPair[PropRef{Application: application, Property: property}]
	if !ok {
		return nil, fmt.Errorf("resolve (%d, %d): %w", application, property, ErrUnknownAttribute)
	}
	return e, nil
}

// ResolveRef looks up an entry by PropRef.
func (c *Catalog) ResolveRef(ref PropRef) (*CatalogEntry, error) {
	return c.Resolve(ref.Application, ref.Property)
}

// ResolveIdentifier looks up an entry by its case-insensitive
// "application.property" identifier.
func (c *Catalog) ResolveIdentifier(ident string) (*CatalogEntry, error) {
	e, ok := c.byIdent[strings.ToLower(strings.TrimSpace(ident))]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", ident, ErrUnknownAttribute)
	}
	return e, nil
}

// Identifier returns the canonical "application.property" identifier of an
// entry.
func (c *Catalog) Identifier(e *CatalogEntry) string {
	return strings.ToLower(e.App + "." + e.Name)
}

// Entries returns all entries ordered by application then property.
func (c *Catalog) Entries() []*CatalogEntry {
	out := make([]*CatalogEntry, 0, len(c.byPair))
	for _, e := range c.byPair {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Application != out[j].Application {
			return out[i].Application < out[j].Application
		}
		return out[i].Property < out[j].Property
	})
	return out
}

var movieOnly = []MediaType{MediaTypeMovie}
var showOnly = []MediaType{MediaTypeShow}

// DefaultCatalog returns the full built-in property registry.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]CatalogEntry{
		{Application: AppPlex, Property: 0, Name: "addDate", Type: Date},
		{Application: AppPlex, Property: 1, Name: "seenBy", Type: TextList},
		{Application: AppPlex, Property: 2, Name: "releaseDate", Type: Date},
		{Application: AppPlex, Property: 3, Name: "rating", Type: Number},
		{Application: AppPlex, Property: 4, Name: "people", Type: TextList},
		{Application: AppPlex, Property: 5, Name: "viewCount", Type: Number},
		{Application: AppPlex, Property: 6, Name: "collections", Type: Number},
		{Application: AppPlex, Property: 7, Name: "lastViewedAt", Type: Date},
		{Application: AppPlex, Property: 8, Name: "fileVideoResolution", Type: Text, MediaTypes: movieOnly},
		{Application: AppPlex, Property: 9, Name: "fileBitrate", Type: Number, MediaTypes: movieOnly},
		{Application: AppPlex, Property: 10, Name: "genre", Type: TextList},
		{Application: AppPlex, Property: 11, Name: "lastEpisodeAddedAt", Type: Date, MediaTypes: showOnly},
		{Application: AppPlex, Property: 12, Name: "episodes", Type: Number, MediaTypes: showOnly},
		{Application: AppPlex, Property: 13, Name: "viewedEpisodes", Type: Number, MediaTypes: showOnly},
		{Application: AppPlex, Property: 14, Name: "watchers", Type: TextList},

		{Application: AppOverseerr, Property: 0, Name: "addUser", Type: Text},
		{Application: AppOverseerr, Property: 1, Name: "requestDate", Type: Date},
		{Application: AppOverseerr, Property: 2, Name: "releaseDate", Type: Date},
		{Application: AppOverseerr, Property: 3, Name: "approvalDate", Type: Date},
		{Application: AppOverseerr, Property: 4, Name: "mediaAddedAt", Type: Date},
		{Application: AppOverseerr, Property: 5, Name: "amountRequested", Type: Number},

		{Application: AppRadarr, Property: 0, Name: "addDate", Type: Date, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 1, Name: "fileDate", Type: Date, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 2, Name: "tags", Type: TextList, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 3, Name: "profile", Type: Text, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 4, Name: "releaseDate", Type: Date, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 5, Name: "monitored", Type: Bool, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 6, Name: "inCinemas", Type: Date, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 7, Name: "fileSize", Type: Number, MediaTypes: movieOnly},
		{Application: AppRadarr, Property: 8, Name: "runtime", Type: Number, MediaTypes: movieOnly},

		{Application: AppSonarr, Property: 0, Name: "addDate", Type: Date, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 1, Name: "diskSizeEntireShow", Type: Number, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 2, Name: "tags", Type: TextList, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 3, Name: "qualityProfileId", Type: Number, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 4, Name: "firstAirDate", Type: Date, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 5, Name: "seasons", Type: Number, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 6, Name: "status", Type: Text, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 7, Name: "ended", Type: Bool, MediaTypes: showOnly},
		{Application: AppSonarr, Property: 8, Name: "monitored", Type: Bool, MediaTypes: showOnly},

		{Application: AppTautulli, Property: 0, Name: "seenBy", Type: TextList},
		{Application: AppTautulli, Property: 1, Name: "lastWatched", Type: Date},
		{Application: AppTautulli, Property: 2, Name: "viewCount", Type: Number},
	})
	if err != nil {
		// The built-in table is static; a duplicate is a programming error.
		panic(err)
	}
	return c
}
