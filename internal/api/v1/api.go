// Package v1 implements the native REST API.
package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/curatarr/internal/collection"
	"github.com/vmunix/curatarr/internal/enforcer"
	"github.com/vmunix/curatarr/internal/rules"
)

// Runner triggers enforcement runs and reports their state.
type Runner interface {
	Trigger(ctx context.Context) error
	Running() bool
	Last() *enforcer.Summary
}

// Server is the v1 API server.
type Server struct {
	rules  *rules.Store
	cols   *collection.Store
	codec  *rules.Codec
	runner Runner
	logger *slog.Logger
}

// New creates a new v1 API server.
func New(db *sql.DB, catalog *rules.Catalog, runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		rules:  rules.NewStore(db),
		cols:   collection.NewStore(db),
		codec:  rules.NewCodec(catalog),
		runner: runner,
		logger: logger.With("component", "api"),
	}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Runs
	mux.HandleFunc("POST /api/v1/run", s.triggerRun)
	mux.HandleFunc("GET /api/v1/status", s.getStatus)

	// Rule groups
	mux.HandleFunc("GET /api/v1/rules", s.listGroups)
	mux.HandleFunc("POST /api/v1/rules", s.createGroup)
	mux.HandleFunc("POST /api/v1/rules/import", s.importGroup)
	mux.HandleFunc("GET /api/v1/rules/{id}", s.getGroup)
	mux.HandleFunc("PUT /api/v1/rules/{id}", s.updateGroup)
	mux.HandleFunc("DELETE /api/v1/rules/{id}", s.deleteGroup)
	mux.HandleFunc("GET /api/v1/rules/{id}/export", s.exportGroup)

	// Collections
	mux.HandleFunc("GET /api/v1/collections", s.listCollections)
	mux.HandleFunc("GET /api/v1/collections/{id}", s.getCollection)
	mux.HandleFunc("GET /api/v1/collections/{id}/media", s.listCollectionMedia)
	mux.HandleFunc("GET /api/v1/collections/{id}/logs", s.listCollectionLogs)

	// Exclusions
	mux.HandleFunc("GET /api/v1/exclusions", s.listExclusions)
	mux.HandleFunc("POST /api/v1/exclusions", s.addExclusion)
	mux.HandleFunc("DELETE /api/v1/exclusions/{id}", s.removeExclusion)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// Runs

func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request; it must not die with the client.
	if err := s.runner.Trigger(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, enforcer.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "RUN_IN_PROGRESS", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "RUN_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type statusResponse struct {
	Status  string            `json:"status"`
	Running bool              `json:"running"`
	LastRun *enforcer.Summary `json:"lastRun,omitempty"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Running: s.runner.Running(),
		LastRun: s.runner.Last(),
	})
}

// Rule groups

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	var filter rules.GroupFilter
	if lib := r.URL.Query().Get("libraryId"); lib != "" {
		filter.LibraryID = &lib
	}
	groups, err := s.rules.ListGroups(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]ruleGroupResponse, 0, len(groups))
	for _, g := range groups {
		gr, err := s.groupToResponse(g)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
			return
		}
		resp = append(resp, gr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	g, err := s.rules.GetGroup(id)
	if err != nil {
		if errors.Is(err, rules.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Rule group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	gr, err := s.groupToResponse(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gr)
}

// groupFromRequest builds a rule group from a request body, decoding the
// rule document against the catalog. The document must parse completely;
// an unknown identifier rejects the whole request.
func (s *Server) groupFromRequest(req ruleGroupRequest) (*rules.RuleGroup, error) {
	mediaType, err := rules.ParseMediaType(req.MediaType)
	if err != nil {
		return nil, err
	}
	g := &rules.RuleGroup{
		Name:            req.Name,
		Description:     req.Description,
		MediaType:       mediaType,
		LibraryID:       req.LibraryID,
		IsActive:        req.IsActive,
		UseRules:        req.UseRules,
		Action:          rules.EnforcementAction(req.Action),
		RadarrProfileID: req.RadarrProfileID,
		SonarrProfileID: req.SonarrProfileID,
		CronSchedule:    req.CronSchedule,
		CollectionID:    req.CollectionID,
	}
	if req.Document != "" {
		sections, err := s.codec.Decode([]byte(req.Document), mediaType)
		if err != nil {
			return nil, err
		}
		g.Sections = sections
	}
	return g, nil
}

func codecErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, rules.ErrUnknownAttribute):
		return http.StatusBadRequest, "UNKNOWN_ATTRIBUTE"
	case errors.Is(err, rules.ErrIncompatibleMediaType):
		return http.StatusBadRequest, "INCOMPATIBLE_MEDIA_TYPE"
	case errors.Is(err, rules.ErrDuplicate):
		return http.StatusConflict, "DUPLICATE"
	default:
		return http.StatusBadRequest, "INVALID_REQUEST"
	}
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req ruleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	g, err := s.groupFromRequest(req)
	if err != nil {
		code, errCode := codecErrorStatus(err)
		writeError(w, code, errCode, err.Error())
		return
	}
	if err := s.rules.CreateGroup(g); err != nil {
		if errors.Is(err, rules.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	gr, err := s.groupToResponse(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, gr)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	var req ruleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	g, err := s.groupFromRequest(req)
	if err != nil {
		code, errCode := codecErrorStatus(err)
		writeError(w, code, errCode, err.Error())
		return
	}
	g.ID = id
	if err := s.rules.UpdateGroup(g); err != nil {
		if errors.Is(err, rules.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Rule group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	gr, err := s.groupToResponse(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gr)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.rules.DeleteGroup(id); err != nil {
		if errors.Is(err, rules.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Rule group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportGroup returns the group's rules as a portable yaml document.
func (s *Server) exportGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	g, err := s.rules.GetGroup(id)
	if err != nil {
		if errors.Is(err, rules.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Rule group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	doc, err := s.codec.Encode(g.Sections, g.MediaType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// importGroup creates an inactive draft group from a rule document.
func (s *Server) importGroup(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	mediaType, err := rules.ParseMediaType(req.MediaType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", err.Error())
		return
	}
	sections, err := s.codec.Decode([]byte(req.Document), mediaType)
	if err != nil {
		code, errCode := codecErrorStatus(err)
		writeError(w, code, errCode, err.Error())
		return
	}
	g := &rules.RuleGroup{
		Name:      req.Name,
		MediaType: mediaType,
		LibraryID: req.LibraryID,
		IsActive:  false,
		UseRules:  true,
		Sections:  sections,
	}
	if err := s.rules.CreateGroup(g); err != nil {
		if errors.Is(err, rules.ErrDuplicate) {
			writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	gr, err := s.groupToResponse(g)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, gr)
}

// Collections

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.cols.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]collectionResponse, 0, len(cols))
	for _, c := range cols {
		resp = append(resp, collectionToResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	c, err := s.cols.Get(id)
	if err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(c))
}

func (s *Server) listCollectionMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	media, err := s.cols.ListMedia(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]mediaResponse, 0, len(media))
	for _, m := range media {
		resp = append(resp, mediaResponse{
			ID:            m.ID,
			MediaServerID: m.MediaServerID,
			TMDBID:        m.TMDBID,
			AddDate:       m.AddDate,
			IsManual:      m.IsManual,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type logResponse struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	Message   string    `json:"message"`
	Meta      int       `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) listCollectionLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	logs, err := s.cols.Logs(id, queryInt(r, "offset", 0), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, logResponse{
			ID:        l.ID,
			RunID:     l.RunID,
			Message:   l.Message,
			Meta:      l.Meta,
			CreatedAt: l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Exclusions

func (s *Server) listExclusions(w http.ResponseWriter, r *http.Request) {
	exclusions, err := s.cols.ListExclusions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]exclusionResponse, 0, len(exclusions))
	for _, e := range exclusions {
		resp = append(resp, exclusionResponse{
			ID:            e.ID,
			MediaServerID: e.MediaServerID,
			RuleGroupID:   e.RuleGroupID,
			MediaType:     e.MediaType,
			ParentID:      e.ParentID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addExclusion(w http.ResponseWriter, r *http.Request) {
	var req exclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.MediaServerID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "mediaServerId is required")
		return
	}
	err := s.cols.AddExclusion(&collection.Exclusion{
		MediaServerID: req.MediaServerID,
		RuleGroupID:   req.RuleGroupID,
		MediaType:     req.MediaType,
		ParentID:      req.ParentID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) removeExclusion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.cols.RemoveExclusion(id); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
