package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/app"
	"taskdeck/pkg/domain"
	"taskdeck/pkg/store"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	filter, err := parseProjectFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	projects, err := s.app.Dashboard(filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list projects failed")
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"items": projects,
		"count": len(projects),
	})
}

// handleDashboardProgress answers the derived completion percentage per
// project, under the same filters as the listing.
func (s *Server) handleDashboardProgress(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	filter, err := parseProjectFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	projects, err := s.app.Dashboard(filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list projects failed")
		return
	}
	now := time.Now()
	items := make([]projectProgress, 0, len(projects))
	for _, p := range projects {
		items = append(items, projectProgress{
			ID:       p.ID,
			Title:    p.Title,
			Progress: p.Progress(now),
		})
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// handleDashboardHistory returns the caller's conversation in chronological
// order. A user with no thread yet gets an empty list, not a 404.
func (s *Server) handleDashboardHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	history, err := s.app.History(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "load history failed")
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"items": history,
		"count": len(history),
	})
}

func (s *Server) handleDashboardCreate(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}
	created, err := s.app.CreateProjectFromQuery(r.Context(), user, req.Query, req.ParentID)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "inference failed")
		return
	}
	if !created {
		writeDeclined(w, r)
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (s *Server) handleDashboardModify(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r)
		return
	}
	var req domain.Project
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, r, http.StatusBadRequest, "u_id is required")
		return
	}
	if req.Priority != "" {
		if _, ok := domain.ParseProjectPriority(string(req.Priority)); !ok {
			writeError(w, r, http.StatusBadRequest, "invalid priority")
			return
		}
	}
	if req.Category != "" {
		if _, ok := domain.ParseProjectCategory(string(req.Category)); !ok {
			writeError(w, r, http.StatusBadRequest, "invalid category")
			return
		}
	}
	if err := s.app.ModifyProject(req); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "modify project failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (s *Server) handleDashboardDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("u_id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "u_id is required")
		return
	}
	// Deleting an absent project is not an error; the end state is the same.
	if _, err := s.app.DeleteProject(r.Context(), id); err != nil {
		writeError(w, r, http.StatusInternalServerError, "delete project failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form data")
		return
	}
	id := strings.TrimSpace(r.FormValue("u_id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "u_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.app.AttachFile(r.Context(), id, header.Filename, file, header.Size, contentType); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "upload failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("u_id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "u_id is required")
		return
	}
	rc, size, originName, err := s.app.OpenFile(r.Context(), id)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "download failed")
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	// RFC 5987 encoding keeps non-ASCII filenames intact.
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(originName)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("u_id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "u_id is required")
		return
	}
	if err := s.app.DetachFile(r.Context(), id); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "delete file failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func parseProjectFilter(r *http.Request) (store.ProjectFilter, error) {
	q := r.URL.Query()
	var filter store.ProjectFilter

	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, ok := domain.ParseProjectCategory(raw)
		if !ok {
			return store.ProjectFilter{}, errors.New("invalid category")
		}
		filter.Category = &category
	}
	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		priority, ok := domain.ParseProjectPriority(raw)
		if !ok {
			return store.ProjectFilter{}, errors.New("invalid priority")
		}
		filter.Priority = &priority
	}
	if raw := strings.TrimSpace(q.Get("date_filter")); raw != "" {
		dateFilter, ok := domain.ParseDateFilter(raw)
		if !ok {
			return store.ProjectFilter{}, errors.New("invalid date_filter")
		}
		filter.DateFilter = dateFilter
	}
	filter.Query = strings.TrimSpace(q.Get("query"))

	offset, err := parseNonNegativeInt(q.Get("offset"))
	if err != nil {
		return store.ProjectFilter{}, errors.New("invalid offset")
	}
	limit, err := parseNonNegativeInt(q.Get("limit"))
	if err != nil {
		return store.ProjectFilter{}, errors.New("invalid limit")
	}
	filter.Offset = offset
	filter.Limit = limit
	return filter, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("invalid integer")
	}
	return value, nil
}
