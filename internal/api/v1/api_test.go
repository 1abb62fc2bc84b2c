package v1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/enforcer"
	"github.com/vmunix/curatarr/internal/migrations"
	"github.com/vmunix/curatarr/internal/rules"
)

type stubRunner struct {
	triggerErr error
	triggered  int
	running    bool
	last       *enforcer.Summary
}

func (r *stubRunner) Trigger(context.Context) error {
	r.triggered++
	return r.triggerErr
}

func (r *stubRunner) Running() bool { return r.running }

func (r *stubRunner) Last() *enforcer.Summary { return r.last }

func setupAPI(t *testing.T) (*httptest.Server, *stubRunner, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)

	runner := &stubRunner{}
	mux := http.NewServeMux()
	New(db, rules.DefaultCatalog(), runner, nil).RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, runner, db
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const movieDocument = `mediaType: movie
rules:
  - section: 0
    rules:
      - action: greaterThan
        firstValue: tautulli.lastWatched
        customValue:
          type: custom_days
          value: "30"
`

func TestTriggerRun(t *testing.T) {
	ts, runner, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/run", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, runner.triggered)
}

func TestTriggerRunConflict(t *testing.T) {
	ts, runner, _ := setupAPI(t)
	runner.triggerErr = enforcer.ErrAlreadyRunning

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/run", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "RUN_IN_PROGRESS", body["code"])
}

func TestStatus(t *testing.T) {
	ts, runner, _ := setupAPI(t)
	runner.running = true
	runner.last = &enforcer.Summary{RunID: "abc", Handled: 3, Started: time.Now()}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Running)
	require.NotNil(t, body.LastRun)
	assert.Equal(t, 3, body.LastRun.Handled)
}

func TestCreateGroupRoundTrip(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules", ruleGroupRequest{
		Name: "stale movies", MediaType: "movie", LibraryID: "1",
		IsActive: true, UseRules: true, Action: 0,
		Document: movieDocument,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ruleGroupResponse](t, resp)
	assert.NotZero(t, created.ID)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/rules/%d", ts.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[ruleGroupResponse](t, resp)
	assert.Equal(t, "stale movies", got.Name)
	assert.Contains(t, got.Document, "tautulli.lastWatched")
	// Day counts round-trip as day counts, not raw seconds.
	assert.Contains(t, got.Document, `"30"`)
}

func TestCreateGroupUnknownAttribute(t *testing.T) {
	ts, _, _ := setupAPI(t)

	doc := strings.Replace(movieDocument, "tautulli.lastWatched", "tautulli.nonsense", 1)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules", ruleGroupRequest{
		Name: "bad", MediaType: "movie", LibraryID: "1", Document: doc,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "UNKNOWN_ATTRIBUTE", body["code"])
}

func TestImportRejectsIncompatibleMediaType(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules/import", importRequest{
		Name: "imported", MediaType: "show", LibraryID: "2",
		Document: movieDocument,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "INCOMPATIBLE_MEDIA_TYPE", body["code"])
}

func TestImportCreatesInactiveDraft(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules/import", importRequest{
		Name: "imported", MediaType: "movie", LibraryID: "1",
		Document: movieDocument,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ruleGroupResponse](t, resp)
	assert.False(t, created.IsActive)
	assert.Contains(t, created.Document, "tautulli.lastWatched")
}

func TestExportGroup(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules", ruleGroupRequest{
		Name: "stale movies", MediaType: "movie", LibraryID: "1",
		UseRules: true, Document: movieDocument,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ruleGroupResponse](t, resp)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/rules/%d/export", ts.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "mediaType: movie")
	assert.Contains(t, buf.String(), "tautulli.lastWatched")
}

func TestGetGroupNotFound(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/rules/404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteGroup(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/rules", ruleGroupRequest{
		Name: "stale movies", MediaType: "movie", LibraryID: "1",
		UseRules: true, Document: movieDocument,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ruleGroupResponse](t, resp)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/rules/%d", ts.URL, created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/rules/%d", ts.URL, created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectionsEndpoints(t *testing.T) {
	ts, _, db := setupAPI(t)

	cols := collection.NewStore(db)
	col, err := cols.Create(&collection.Collection{
		LibraryID: "1", Title: "Leaving Soon", MediaType: rules.MediaTypeMovie,
		SyncToMediaServer: true,
	})
	require.NoError(t, err)
	tmdb := int64(949)
	require.NoError(t, cols.AddMedia(&collection.Media{
		CollectionID: col.ID, MediaServerID: "10", TMDBID: &tmdb,
		AddDate: time.Now(),
	}))
	require.NoError(t, cols.AppendLog(&collection.Log{
		CollectionID: col.ID, RunID: "run-1", Message: "handled 1 items", Meta: 1,
	}))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]collectionResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Leaving Soon", list[0].Title)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/collections/%d/media", ts.URL, col.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	media := decodeBody[[]mediaResponse](t, resp)
	require.Len(t, media, 1)
	assert.Equal(t, "10", media[0].MediaServerID)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/collections/%d/logs", ts.URL, col.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decodeBody[[]logResponse](t, resp)
	require.Len(t, logs, 1)
	assert.Equal(t, "run-1", logs[0].RunID)
}

func TestExclusionLifecycle(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/exclusions", exclusionRequest{
		MediaServerID: "10", MediaType: "movie",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/exclusions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]exclusionResponse](t, resp)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].RuleGroupID)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/exclusions/%d", ts.URL, list[0].ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/exclusions", nil)
	list = decodeBody[[]exclusionResponse](t, resp)
	assert.Empty(t, list)
}

func TestExclusionRequiresMediaServerID(t *testing.T) {
	ts, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/exclusions", exclusionRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
