package v1

import (
	"time"

	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/rules"
)

// Rule sections travel through the API as portable rule documents (the
// same yaml text export produces), never as raw catalog pairs.

type ruleGroupRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	MediaType       string `json:"mediaType"`
	LibraryID       string `json:"libraryId"`
	IsActive        bool   `json:"isActive"`
	UseRules        bool   `json:"useRules"`
	Action          int    `json:"action"`
	Document        string `json:"document,omitempty"`
	RadarrProfileID *int   `json:"radarrQualityProfileId,omitempty"`
	SonarrProfileID *int   `json:"sonarrQualityProfileId,omitempty"`
	CronSchedule    string `json:"cronSchedule,omitempty"`
	CollectionID    *int64 `json:"collectionId,omitempty"`
}

type ruleGroupResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	MediaType       string    `json:"mediaType"`
	LibraryID       string    `json:"libraryId"`
	IsActive        bool      `json:"isActive"`
	UseRules        bool      `json:"useRules"`
	Action          int       `json:"action"`
	Document        string    `json:"document,omitempty"`
	RadarrProfileID *int      `json:"radarrQualityProfileId,omitempty"`
	SonarrProfileID *int      `json:"sonarrQualityProfileId,omitempty"`
	CronSchedule    string    `json:"cronSchedule,omitempty"`
	CollectionID    *int64    `json:"collectionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type importRequest struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	LibraryID string `json:"libraryId"`
	Document  string `json:"document"`
}

type collectionResponse struct {
	ID                    int64  `json:"id"`
	LibraryID             string `json:"libraryId"`
	Title                 string `json:"title"`
	Description           string `json:"description,omitempty"`
	IsActive              bool   `json:"isActive"`
	ArrAction             int    `json:"arrAction"`
	MediaType             string `json:"type"`
	ManualCollection      bool   `json:"manualCollection"`
	ManualCollectionName  string `json:"manualCollectionName,omitempty"`
	ListExclusions        bool   `json:"listExclusions"`
	SyncToMediaServer     bool   `json:"syncToMediaServer"`
	DeleteAfterDays       *int   `json:"deleteAfterDays,omitempty"`
	MediaServerID         string `json:"mediaServerId,omitempty"`
	MediaServerType       string `json:"mediaServerType"`
	TotalSizeBytes        *int64 `json:"totalSizeBytes,omitempty"`
	HandledMediaAmount    int    `json:"handledMediaAmount"`
	LastDurationInSeconds int    `json:"lastDurationInSeconds"`
}

type mediaResponse struct {
	ID            int64     `json:"id"`
	MediaServerID string    `json:"mediaServerId"`
	TMDBID        *int64    `json:"tmdbId,omitempty"`
	AddDate       time.Time `json:"addDate"`
	IsManual      bool      `json:"isManual"`
}

type exclusionRequest struct {
	MediaServerID string `json:"mediaServerId"`
	RuleGroupID   *int64 `json:"ruleGroupId,omitempty"`
	MediaType     string `json:"mediaType"`
	ParentID      string `json:"parentId,omitempty"`
}

type exclusionResponse struct {
	ID            int64  `json:"id"`
	MediaServerID string `json:"mediaServerId"`
	RuleGroupID   *int64 `json:"ruleGroupId,omitempty"`
	MediaType     string `json:"mediaType"`
	ParentID      string `json:"parentId,omitempty"`
}

func collectionToResponse(c *collection.Collection) collectionResponse {
	return collectionResponse{
		ID:                    c.ID,
		LibraryID:             c.LibraryID,
		Title:                 c.Title,
		Description:           c.Description,
		IsActive:              c.IsActive,
		ArrAction:             int(c.ArrAction),
		MediaType:             string(c.MediaType),
		ManualCollection:      c.ManualCollection,
		ManualCollectionName:  c.ManualCollectionName,
		ListExclusions:        c.ListExclusions,
		SyncToMediaServer:     c.SyncToMediaServer,
		DeleteAfterDays:       c.DeleteAfterDays,
		MediaServerID:         c.MediaServerID,
		MediaServerType:       string(c.MediaServerType),
		TotalSizeBytes:        c.TotalSizeBytes,
		HandledMediaAmount:    c.HandledMediaAmount,
		LastDurationInSeconds: c.LastDurationInSeconds,
	}
}

func (s *Server) groupToResponse(g *rules.RuleGroup) (ruleGroupResponse, error) {
	resp := ruleGroupResponse{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		MediaType:       string(g.MediaType),
		LibraryID:       g.LibraryID,
		IsActive:        g.IsActive,
		UseRules:        g.UseRules,
		Action:          int(g.Action),
		RadarrProfileID: g.RadarrProfileID,
		SonarrProfileID: g.SonarrProfileID,
		CronSchedule:    g.CronSchedule,
		CollectionID:    g.CollectionID,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	if len(g.Sections) > 0 {
		doc, err := s.codec.Encode(g.Sections, g.MediaType)
		if err != nil {
			return resp, err
		}
		resp.Document = string(doc)
	}
	return resp, nil
}
