// Package server exposes the state store over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/database"
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/migration/all"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/opml"
	"github.com/bryan-buckman/feedcolumns/internal/rss"
	"github.com/bryan-buckman/feedcolumns/internal/selectors"
	"github.com/bryan-buckman/feedcolumns/internal/state"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// refreshTimeout bounds a manual refresh.
const refreshTimeout = 5 * time.Minute

// Server is the main HTTP server.
type Server struct {
	logger  *zap.Logger
	db      database.Store
	store   *state.Store
	fetcher *rss.Fetcher
	poller  *rss.Poller
	router  chi.Router
	http    *http.Server
}

// New creates a server. poller may be nil to disable background polling.
func New(logger *zap.Logger, db database.Store, store *state.Store, fetcher *rss.Fetcher, poller *rss.Poller) *Server {
	s := &Server{
		logger:  logger.With(zap.String("component", "server")),
		db:      db,
		store:   store,
		fetcher: fetcher,
		poller:  poller,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/schema", s.handleSchema)

		r.Get("/columns", s.handleColumns)
		r.Post("/columns", s.handleAddColumn)
		r.Delete("/columns/{columnID}", s.handleRemoveColumn)
		r.Get("/columns/{columnID}/items", s.handleColumnItems)

		r.Get("/items/saved", s.handleSavedItems)
		r.Post("/items/save", s.handleSetSaved)
		r.Post("/items/read", s.handleSetRead)

		r.Post("/refresh", s.handleRefresh)
		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handleSaveSettings)
		r.Post("/import-opml", s.handleImportOPML)
		r.Get("/export-opml", s.handleExportOPML)
	})

	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the poller and serves until Stop is called.
func (s *Server) Start(addr string) error {
	if s.poller != nil {
		s.poller.Start()
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Server starting", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the listener and the poller.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.poller != nil {
		s.poller.Stop()
	}
	return err
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	data, err := document.Encode(s.store.Snapshot())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to encode state", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	log, err := s.db.MigrationLog(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to read migration log", err)
		return
	}
	if log == nil {
		log = []database.MigrationRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.store.Version(),
		"latest":     all.Latest(),
		"database":   s.db.DatabaseType(),
		"migrations": log,
	})
}

type columnView struct {
	*model.Column
	Subscriptions []*model.Subscription `json:"subscriptions"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(w, r)
	if !ok {
		return
	}
	cols := selectors.Columns(st)
	out := make([]columnView, 0, len(cols))
	for _, col := range cols {
		out = append(out, columnView{Column: col, Subscriptions: selectors.ColumnSubscriptions(st, col.ID)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string         `json:"type"`
		Subtype string         `json:"subtype"`
		Params  map[string]any `json:"params"`
		Filters map[string]any `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}
	switch req.Type {
	case model.ColumnTypeActivity, model.ColumnTypeNotifications, model.ColumnTypeIssueOrPR:
	default:
		s.writeError(w, r, http.StatusBadRequest, "Unknown column type", fmt.Errorf("column type %q", req.Type))
		return
	}
	if req.Type == model.ColumnTypeActivity && document.String(req.Params["username"]) == "" {
		username, err := s.db.GetSetting(r.Context(), database.SettingGitHubUsername)
		if err != nil && !errors.Is(err, database.ErrSettingNotFound) {
			s.writeError(w, r, http.StatusInternalServerError, "Failed to read settings", err)
			return
		}
		if username == "" {
			s.writeError(w, r, http.StatusBadRequest, "Missing username", errors.New("activity column without username"))
			return
		}
		if req.Params == nil {
			req.Params = map[string]any{}
		}
		req.Params["username"] = username
	}

	id, err := s.store.AddColumn(r.Context(), state.NewColumn{
		Type:    req.Type,
		Subtype: req.Subtype,
		Params:  req.Params,
		Filters: req.Filters,
	})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to add column", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": id})
}

func (s *Server) handleRemoveColumn(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveColumn(r.Context(), chi.URLParam(r, "columnID"))
	if errors.Is(err, state.ErrUnknownColumn) {
		s.writeError(w, r, http.StatusNotFound, "Column not found", err)
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to remove column", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type itemView struct {
	ID string `json:"id"`
	*model.DataItem
	Read bool `json:"read"`
}

func itemViews(st model.State, items []selectors.Item, unreadOnly bool) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		read := selectors.IsRead(st, it.ID)
		if unreadOnly && read {
			continue
		}
		out = append(out, itemView{ID: it.ID, DataItem: it.DataItem, Read: read})
	}
	return out
}

func (s *Server) handleColumnItems(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(w, r)
	if !ok {
		return
	}
	columnID := chi.URLParam(r, "columnID")
	if st.Columns.ByID[columnID] == nil {
		s.writeError(w, r, http.StatusNotFound, "Column not found", fmt.Errorf("%w: %s", state.ErrUnknownColumn, columnID))
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	s.writeJSON(w, http.StatusOK, itemViews(st, selectors.ColumnItems(st, columnID), unreadOnly))
}

func (s *Server) handleSavedItems(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, itemViews(st, selectors.SavedItems(st), false))
}

type itemsRequest struct {
	IDs   []string `json:"ids"`
	Saved *bool    `json:"saved"`
	Read  *bool    `json:"read"`
}

// flag treats an omitted toggle as true.
func flag(v *bool) bool {
	return v == nil || *v
}

func (s *Server) decodeItems(w http.ResponseWriter, r *http.Request) (itemsRequest, bool) {
	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid request", err)
		return req, false
	}
	return req, true
}

func (s *Server) handleSetSaved(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeItems(w, r)
	if !ok {
		return
	}
	changed, err := s.store.SetSaved(r.Context(), req.IDs, flag(req.Saved))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to save items", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ids": nonNil(changed)})
}

func (s *Server) handleSetRead(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeItems(w, r)
	if !ok {
		return
	}
	changed, err := s.store.SetRead(r.Context(), req.IDs, flag(req.Read))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to mark items", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ids": nonNil(changed)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	results, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Fetch error", err)
		return
	}

	total := 0
	for _, c := range results {
		total += c
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"items":         total,
		"subscriptions": len(results),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	interval, err := s.db.GetPollingInterval(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to read settings", err)
		return
	}
	username, err := s.db.GetSetting(r.Context(), database.SettingGitHubUsername)
	if err != nil && !errors.Is(err, database.ErrSettingNotFound) {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to read settings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"polling_interval": interval,
		"github_username":  username,
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PollingInterval *int    `json:"polling_interval"`
		GitHubUsername  *string `json:"github_username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp := map[string]any{"status": "ok"}
	if req.PollingInterval != nil {
		interval := *req.PollingInterval
		if interval < rss.MinPollingIntervalMinutes {
			interval = rss.MinPollingIntervalMinutes
		}
		if err := s.db.SetSetting(r.Context(), database.SettingPollingInterval, strconv.Itoa(interval)); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "Failed to save", err)
			return
		}
		resp["polling_interval"] = interval
	}
	if req.GitHubUsername != nil {
		if err := s.db.SetSetting(r.Context(), database.SettingGitHubUsername, *req.GitHubUsername); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "Failed to save", err)
			return
		}
		resp["github_username"] = *req.GitHubUsername
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImportOPML(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("opml")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	entries, err := opml.Parse(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Failed to parse OPML", err)
		return
	}

	added, err := opml.ImportEntries(r.Context(), s.store, s.fetcher.BaseURL(), entries)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to import OPML", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"imported": len(added),
		"total":    len(entries),
		"columns":  nonNil(added),
	})
}

func (s *Server) handleExportOPML(w http.ResponseWriter, r *http.Request) {
	st, ok := s.state(w, r)
	if !ok {
		return
	}
	data, err := opml.Export("Feed columns", opml.ColumnEntries(st, s.fetcher.BaseURL()), time.Now())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to export", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", "attachment; filename=feedcolumns.opml")
	w.Write(data)
}

// --- Helpers ---

func (s *Server) state(w http.ResponseWriter, r *http.Request) (model.State, bool) {
	st, err := s.store.State()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Failed to read state", err)
		return model.State{}, false
	}
	return st, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Error writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Debug(msg, fields...)
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("Request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
