package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"docchat/pkg/gateway"
	"docchat/pkg/logger"
	"docchat/pkg/models"
	"docchat/pkg/threads"
	"docchat/pkg/utils"
	"docchat/pkg/validation"
)

type threadHandlers struct {
	store *threads.Store
	gw    gateway.Client
}

// RegisterThreads registers all thread-related HTTP routes to the
// provided router.
func RegisterThreads(r *mux.Router, st *threads.Store, gw gateway.Client) {
	h := &threadHandlers{store: st, gw: gw}

	// Collection routes
	r.HandleFunc("/threads", h.createThread).Methods(http.MethodPost)
	r.HandleFunc("/threads", h.listThreads).Methods(http.MethodGet)

	// Single resource routes
	r.HandleFunc("/threads/{id}", h.getThread).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", h.deleteThread).Methods(http.MethodDelete)

	// The send-message flow
	r.HandleFunc("/threads/{id}/messages", h.sendMessage).Methods(http.MethodPost)

	// Active-thread pointer
	r.HandleFunc("/active", h.getActive).Methods(http.MethodGet)
	r.HandleFunc("/active", h.setActive).Methods(http.MethodPut)
}

// createThread handles POST /threads: a fresh empty thread is created,
// prepended to the list and made active.
func (h *threadHandlers) createThread(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.Create()
	if err != nil {
		storeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, models.ThreadInfo{
		ID:      id,
		Preview: threads.PreviewSentinel,
		Active:  true,
	})
}

// listThreads handles GET /threads: all threads most-recent-first, each
// with its preview recomputed from persisted state.
func (h *threadHandlers) listThreads(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Threads []models.ThreadInfo `json:"threads"`
	}{Threads: h.store.Infos()})
}

// getThread handles GET /threads/{id}: the persisted message history.
func (h *threadHandlers) getThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs, err := h.store.History(id)
	if err != nil {
		storeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: id, Messages: msgs})
}

// deleteThread handles DELETE /threads/{id}. Deleting the active thread
// promotes the newest remaining one; deleting the last thread leaves a
// fresh empty active thread, never zero.
func (h *threadHandlers) deleteThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Delete(id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendMessage handles POST /threads/{id}/messages: append the user
// message, ask the gateway, then file the assistant reply under the
// thread id captured here — not whatever thread is active when the
// response lands.
func (h *threadHandlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["id"]

	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userMsg := models.Message{
		ID:      threads.GenMessageID(),
		Role:    models.RoleUser,
		Content: in.Content,
		TS:      time.Now().UTC().UnixNano(),
	}
	if err := validation.ValidateUserMessage(userMsg); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.store.Append(threadID, userMsg); err != nil {
		storeError(w, err)
		return
	}

	ans, err := h.gw.Ask(r.Context(), in.Content)
	if err != nil {
		// The user message stays appended; the failure is surfaced and
		// never retried.
		utils.JSONError(w, gatewayStatus(err), err.Error())
		return
	}

	botMsg := models.Message{
		ID:      threads.GenMessageID(),
		Role:    models.RoleAssistant,
		Answer:  ans.Answer,
		Sources: ans.Sources,
		TS:      time.Now().UTC().UnixNano(),
	}
	msgs, err := h.store.Append(threadID, botMsg)
	if err != nil {
		// The thread was deleted while the question was in flight; the
		// reply has nowhere to go.
		logger.Warn("reply_discarded", "thread", threadID, "error", err)
		utils.JSONError(w, http.StatusConflict, "thread deleted while awaiting response")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: threadID, Messages: msgs})
}

// getActive handles GET /active: the active pointer and its in-memory
// message view.
func (h *threadHandlers) getActive(w http.ResponseWriter, r *http.Request) {
	msgs := h.store.Messages()
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: h.store.Active(), Messages: msgs})
}

// setActive handles PUT /active: switch the pointer to a known thread and
// return its persisted history.
func (h *threadHandlers) setActive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Thread string `json:"thread"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	msgs, err := h.store.Switch(in.Thread)
	if err != nil {
		storeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: in.Thread, Messages: msgs})
}

// storeError maps thread-store errors onto HTTP statuses.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, threads.ErrUnknownThread):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, threads.ErrNotReady):
		utils.JSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// gatewayStatus picks the response status for a failed gateway call: the
// backend's own status when it sent one, else 502.
func gatewayStatus(err error) int {
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.Status >= 400 && ge.Status < 600 {
		return ge.Status
	}
	return http.StatusBadGateway
}
