// Package collection holds the local collection model: the persisted
// collections, their media membership, exclusions, run logs, and the state
// machine that keeps the media-server mirror in step with the local model.
package collection

import (
	"time"

	"github.com/vmunix/curatarr/internal/mediaserver"
	"github.com/vmunix/curatarr/internal/rules"
)

// ArrAction selects what the acquisition manager does with an item that a
// rule group matched. For movies only Delete and Unmonitor apply; the rest
// select season granularity for shows.
type ArrAction int

const (
	// ArrActionDelete removes the item and its files from the manager.
	ArrActionDelete ArrAction = iota

	// ArrActionUnmonitor stops monitoring without deleting files. For
	// shows this unmonitors every season.
	ArrActionUnmonitor

	// ArrActionUnmonitorDeleteAll unmonitors every season and deletes the
	// files. Show-only.
	ArrActionUnmonitorDeleteAll

	// ArrActionUnmonitorDeleteExisting unmonitors only episodes that exist
	// on disk and deletes their files, leaving season flags alone.
	// Show-only.
	ArrActionUnmonitorDeleteExisting
)

// Collection is a locally owned collection. MediaServerID points at the
// live mirror on the media server and is empty whenever no mirror exists.
type Collection struct {
	ID                    int64
	LibraryID             string
	Title                 string
	Description           string
	IsActive              bool
	ArrAction             ArrAction
	MediaType             rules.MediaType
	ManualCollection      bool
	ManualCollectionName  string
	ListExclusions        bool
	SyncToMediaServer     bool
	DeleteAfterDays       *int
	MediaServerID         string
	MediaServerType       mediaserver.Type
	RadarrProfileID       *int
	SonarrProfileID       *int
	TotalSizeBytes        *int64
	HandledMediaAmount    int
	LastDurationInSeconds int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// MirrorTitle is the name the mirror is looked up and created under.
func (c *Collection) MirrorTitle() string {
	if c.ManualCollection && c.ManualCollectionName != "" {
		return c.ManualCollectionName
	}
	return c.Title
}

// Media is one item currently inside a collection.
type Media struct {
	ID            int64
	CollectionID  int64
	MediaServerID string
	TMDBID        *int64
	AddDate       time.Time
	ImagePath     string
	IsManual      bool
}

// Exclusion shields an item (or its parent, for episodes and seasons) from
// rule evaluation. A nil RuleGroupID means the exclusion is global.
type Exclusion struct {
	ID            int64
	MediaServerID string
	RuleGroupID   *int64
	ParentID      string
	MediaType     string
	CreatedAt     time.Time
}

// Log is one audit entry for a collection, tagged with the run that
// produced it.
type Log struct {
	ID           int64
	CollectionID int64
	RunID        string
	Message      string
	Meta         int
	CreatedAt    time.Time
}
