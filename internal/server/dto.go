package server

import (
	"encoding/json"
	"net/http"

	"taskdeck/internal/util"
	"taskdeck/pkg/domain"
)

// envelope is the common response wrapper. Every response carries the
// request_id so clients can correlate with server logs.
type envelope struct {
	Status    bool   `json:"status"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id"`
}

type signUpRequest struct {
	Name         string `json:"name"`
	Password     string `json:"password"`
	UserName     string `json:"user_name"`
	UserNickname string `json:"user_nickname"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createProjectRequest struct {
	Query    string `json:"query"`
	ParentID string `json:"parent_u_id,omitempty"`
}

type projectProgress struct {
	ID       string  `json:"u_id"`
	Title    string  `json:"title"`
	Progress float64 `json:"progress"`
}

type bizClientRequest struct {
	ID             string              `json:"u_id,omitempty"`
	Card           domain.BusinessCard `json:"biz_card"`
	Category       string              `json:"category"`
	BlobFileName   string              `json:"blob_file_name,omitempty"`
	OriginFileName string              `json:"origin_file_name,omitempty"`
}

type bizDetailResponse struct {
	Client   domain.BizClient `json:"client"`
	Programs []domain.Program `json:"programs"`
}

type programRequest struct {
	ID          string `json:"u_id,omitempty"`
	ClientID    string `json:"client_u_id,omitempty"`
	Status      string `json:"status"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func writeData(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	writeEnvelope(w, statusCode, envelope{
		Status:    true,
		Data:      data,
		RequestID: util.RequestIDFromRequest(r),
	})
}

// writeDeclined answers 200 with status:false, used when the model produced
// nothing usable and no entity was created.
func writeDeclined(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, envelope{
		Status:    false,
		RequestID: util.RequestIDFromRequest(r),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, msg string) {
	writeEnvelope(w, statusCode, envelope{
		Status:    false,
		Error:     msg,
		RequestID: util.RequestIDFromRequest(r),
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(env)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
