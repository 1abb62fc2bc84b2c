package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps HTTP calls to the curatarr server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new curatarr API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) getRaw(path string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// API response types (mirror server types)

type RunSummary struct {
	RunID    string `json:"runId"`
	Started  string `json:"started"`
	Duration int64  `json:"duration"`
	Handled  int    `json:"handled"`
	Skipped  int    `json:"skipped"`
	Failures int    `json:"failures"`
}

type StatusResponse struct {
	Status  string      `json:"status"`
	Running bool        `json:"running"`
	LastRun *RunSummary `json:"lastRun,omitempty"`
}

type RuleGroupResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	MediaType    string `json:"mediaType"`
	LibraryID    string `json:"libraryId"`
	IsActive     bool   `json:"isActive"`
	UseRules     bool   `json:"useRules"`
	Action       int    `json:"action"`
	Document     string `json:"document,omitempty"`
	CronSchedule string `json:"cronSchedule,omitempty"`
	CollectionID *int64 `json:"collectionId,omitempty"`
}

type ImportGroupRequest struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	LibraryID string `json:"libraryId"`
	Document  string `json:"document"`
}

type CollectionResponse struct {
	ID                 int64  `json:"id"`
	LibraryID          string `json:"libraryId"`
	Title              string `json:"title"`
	MediaType          string `json:"type"`
	IsActive           bool   `json:"isActive"`
	ManualCollection   bool   `json:"manualCollection"`
	DeleteAfterDays    *int   `json:"deleteAfterDays,omitempty"`
	MediaServerID      string `json:"mediaServerId,omitempty"`
	TotalSizeBytes     *int64 `json:"totalSizeBytes,omitempty"`
	HandledMediaAmount int    `json:"handledMediaAmount"`
}

type MediaResponse struct {
	ID            int64  `json:"id"`
	MediaServerID string `json:"mediaServerId"`
	TMDBID        *int64 `json:"tmdbId,omitempty"`
	AddDate       string `json:"addDate"`
	IsManual      bool   `json:"isManual"`
}

type LogResponse struct {
	ID        int64  `json:"id"`
	RunID     string `json:"runId"`
	Message   string `json:"message"`
	Meta      int    `json:"meta"`
	CreatedAt string `json:"createdAt"`
}

type ExclusionResponse struct {
	ID            int64  `json:"id"`
	MediaServerID string `json:"mediaServerId"`
	RuleGroupID   *int64 `json:"ruleGroupId,omitempty"`
	MediaType     string `json:"mediaType"`
	ParentID      string `json:"parentId,omitempty"`
}

type ExclusionRequest struct {
	MediaServerID string `json:"mediaServerId"`
	RuleGroupID   *int64 `json:"ruleGroupId,omitempty"`
	MediaType     string `json:"mediaType"`
}

// API methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) TriggerRun() error {
	return c.post("/api/v1/run", nil, nil)
}

func (c *Client) RuleGroups() ([]RuleGroupResponse, error) {
	var resp []RuleGroupResponse
	if err := c.get("/api/v1/rules", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) RuleGroup(id int64) (*RuleGroupResponse, error) {
	var resp RuleGroupResponse
	if err := c.get(fmt.Sprintf("/api/v1/rules/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteRuleGroup(id int64) error {
	return c.delete(fmt.Sprintf("/api/v1/rules/%d", id))
}

// ExportRuleGroup returns the group's rules as a yaml document.
func (c *Client) ExportRuleGroup(id int64) ([]byte, error) {
	return c.getRaw(fmt.Sprintf("/api/v1/rules/%d/export", id))
}

func (c *Client) ImportRuleGroup(req *ImportGroupRequest) (*RuleGroupResponse, error) {
	var resp RuleGroupResponse
	if err := c.post("/api/v1/rules/import", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Collections() ([]CollectionResponse, error) {
	var resp []CollectionResponse
	if err := c.get("/api/v1/collections", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CollectionMedia(id int64) ([]MediaResponse, error) {
	var resp []MediaResponse
	if err := c.get(fmt.Sprintf("/api/v1/collections/%d/media", id), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CollectionLogs(id int64) ([]LogResponse, error) {
	var resp []LogResponse
	if err := c.get(fmt.Sprintf("/api/v1/collections/%d/logs", id), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Exclusions() ([]ExclusionResponse, error) {
	var resp []ExclusionResponse
	if err := c.get("/api/v1/exclusions", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AddExclusion(req *ExclusionRequest) error {
	return c.post("/api/v1/exclusions", req, nil)
}

func (c *Client) RemoveExclusion(id int64) error {
	return c.delete(fmt.Sprintf("/api/v1/exclusions/%d", id))
}
