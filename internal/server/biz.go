package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskdeck/internal/app"
	"taskdeck/pkg/domain"
	"taskdeck/pkg/store"
)

func (s *Server) handleBiz(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		s.handleBizList(w, r)
	case http.MethodPut:
		s.handleBizSave(w, r)
	default:
		_ = user
		methodNotAllowed(w, r)
	}
}

func (s *Server) handleBizList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBizFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	clients, err := s.app.ListBizClients(filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list contacts failed")
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"items": clients,
		"count": len(clients),
	})
}

// handleBizSave upserts a contact: a request without u_id creates one, a
// request with u_id replaces that contact's card wholesale.
func (s *Server) handleBizSave(w http.ResponseWriter, r *http.Request) {
	var req bizClientRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Card.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "biz_card.name is required")
		return
	}
	client := domain.BizClient{
		ID:             strings.TrimSpace(req.ID),
		Card:           req.Card,
		Category:       req.Category,
		BlobFileName:   req.BlobFileName,
		OriginFileName: req.OriginFileName,
	}
	if err := s.app.SaveBizClient(client); err != nil {
		writeError(w, r, http.StatusInternalServerError, "save contact failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (s *Server) handleBizDetail(w http.ResponseWriter, r *http.Request, user domain.User) {
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
	client, programs, err := s.app.BizDetail(id)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "load contact failed")
		return
	}
	writeData(w, r, http.StatusOK, bizDetailResponse{
		Client:   client,
		Programs: programs,
	})
}

// handleBizProgram creates a pipeline record when u_id is absent and moves an
// existing record's stage when it is present.
func (s *Server) handleBizProgram(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r)
		return
	}
	var req programRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, ok := domain.ParseProgramStatus(strings.TrimSpace(req.Status))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid status")
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		clientID := strings.TrimSpace(req.ClientID)
		if clientID == "" {
			writeError(w, r, http.StatusBadRequest, "client_u_id is required")
			return
		}
		if err := s.app.CreateProgram(clientID, status, req.Title, req.Description); err != nil {
			if errors.Is(err, app.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "contact not found")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "create program failed")
			return
		}
		writeData(w, r, http.StatusOK, nil)
		return
	}
	if err := s.app.SetProgramStatus(id, status); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "program not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "update program failed")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func parseBizFilter(r *http.Request) (store.BizFilter, error) {
	q := r.URL.Query()
	var filter store.BizFilter

	filter.Query = strings.TrimSpace(q.Get("query"))
	switch raw := strings.TrimSpace(q.Get("order_by")); raw {
	case "":
		filter.OrderBy = store.BizOrderUpdated
	case string(store.BizOrderCreated):
		filter.OrderBy = store.BizOrderCreated
	case string(store.BizOrderUpdated):
		filter.OrderBy = store.BizOrderUpdated
	default:
		return store.BizFilter{}, errors.New("invalid order_by")
	}

	offset, err := parseNonNegativeInt(q.Get("offset"))
	if err != nil {
		return store.BizFilter{}, errors.New("invalid offset")
	}
	limit, err := parseNonNegativeInt(q.Get("limit"))
	if err != nil {
		return store.BizFilter{}, errors.New("invalid limit")
	}
	filter.Offset = offset
	filter.Limit = limit
	return filter, nil
}
