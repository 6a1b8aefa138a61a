package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"taskhub/internal/logger"
	"taskhub/internal/server/store"
	"taskhub/internal/service"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	tasks, err := s.store.TasksByOwner(r.Context(), sess.UserID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	var draft service.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if draft.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if !draft.Priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "priority must be low, medium or high")
		return
	}

	task, err := s.store.CreateTask(r.Context(), sess.UserID, draft)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.broadcast(r, sess.UserID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": task.ID})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var patch service.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "patch changes nothing")
		return
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "priority must be low, medium or high")
		return
	}

	if err := s.store.UpdateTask(r.Context(), sess.UserID, id, patch); err != nil {
		s.taskError(w, r, err, id)
		return
	}

	s.broadcast(r, sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteTask(r.Context(), sess.UserID, id); err != nil {
		s.taskError(w, r, err, id)
		return
	}

	s.broadcast(r, sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// handleStreamTasks is the live query: a Server-Sent Events stream that
// delivers the owner's full snapshot immediately and again after every
// change to the owner's tasks.
func (s *Server) handleStreamTasks(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	ch, cancel := s.hub.Subscribe(sess.UserID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial snapshot before any change events.
	snap, err := s.store.TasksByOwner(r.Context(), sess.UserID)
	if err != nil {
		logger.FromContext(r.Context()).Error("initial snapshot query failed", "error", err)
		return
	}
	if err := writeEvent(w, flusher, snap); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, snap); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, snap []service.Task) error {
	if snap == nil {
		snap = []service.Task{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// broadcast pushes the owner's current snapshot to all live streams.
func (s *Server) broadcast(r *http.Request, ownerID string) {
	snap, err := s.store.TasksByOwner(r.Context(), ownerID)
	if err != nil {
		logger.FromContext(r.Context()).Error("snapshot query for broadcast failed", "error", err)
		return
	}
	s.hub.Publish(ownerID, snap)
}

func (s *Server) taskError(w http.ResponseWriter, r *http.Request, err error, id string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "task not found: "+id)
	case errors.Is(err, store.ErrNotOwner):
		writeError(w, http.StatusForbidden, "permission_denied", "not the task owner")
	default:
		s.internalError(w, r, err)
	}
}
