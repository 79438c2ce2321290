package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sitewatch/internal/domain"
	"sitewatch/internal/repo"
)

const (
	defaultInterval = 300 * time.Second
	defaultLimit    = 100
	maxLimit        = 1000
)

type createSiteRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Interval int    `json:"check_interval_seconds"`
}

type createWebhookRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !isValidHTTPURL(req.URL) {
		writeError(w, http.StatusBadRequest, "url must be a valid http or https URL")
		return
	}

	interval := defaultInterval
	if req.Interval > 0 {
		interval = time.Duration(req.Interval) * time.Second
	}
	if interval < domain.MinInterval {
		interval = domain.MinInterval
	}

	site := &domain.Site{
		URL:      normalizeHTTPURL(req.URL),
		Name:     req.Name,
		Interval: domain.Duration(interval),
	}
	if err := s.Sites.Add(r.Context(), site); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeError(w, http.StatusConflict, "site with this URL already exists")
			return
		}
		s.Logger.Error("add_site_failed", zap.String("url", site.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.Monitor.Track(site)
	s.Logger.Info("site_added",
		zap.String("site_id", string(site.ID)),
		zap.String("url", site.URL))
	writeJSON(w, http.StatusCreated, site)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.List(r.Context())
	if err != nil {
		s.Logger.Error("list_sites_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sites == nil {
		sites = []domain.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	if err := s.Sites.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		s.Logger.Error("delete_site_failed", zap.String("site_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.Monitor.Forget(id)
	s.Logger.Info("site_deleted", zap.String("site_id", string(id)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	if _, err := s.Sites.Get(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		s.Logger.Error("get_site_failed", zap.String("site_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	checks, err := s.Checks.ListBySite(r.Context(), id, offset, limit)
	if err != nil {
		s.Logger.Error("list_history_failed", zap.String("site_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if checks == nil {
		checks = []domain.CheckResult{}
	}
	writeJSON(w, http.StatusOK, checks)
}

func (s *Server) handleAddWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !isValidHTTPURL(req.URL) {
		writeError(w, http.StatusBadRequest, "url must be a valid http or https URL")
		return
	}

	hook := &domain.WebhookTarget{URL: normalizeHTTPURL(req.URL), Name: req.Name}
	if err := s.Webhooks.AddWebhook(r.Context(), hook); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeError(w, http.StatusConflict, "webhook with this URL already exists")
			return
		}
		s.Logger.Error("add_webhook_failed", zap.String("url", hook.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.Logger.Info("webhook_added", zap.String("webhook_id", string(hook.ID)))
	writeJSON(w, http.StatusCreated, hook)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.Webhooks.ListWebhooks(r.Context())
	if err != nil {
		s.Logger.Error("list_webhooks_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if hooks == nil {
		hooks = []domain.WebhookTarget{}
	}
	writeJSON(w, http.StatusOK, hooks)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
