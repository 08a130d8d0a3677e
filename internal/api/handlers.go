package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"task-dispatcher/internal/auth"
	"task-dispatcher/internal/db"
	"task-dispatcher/internal/dispatcher"
	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/task"
)

// Dispatcher то, что API использует от мастера
type Dispatcher interface {
	Submit(line string) (task.Task, error)
	Stats() dispatcher.Stats
}

type Handler struct {
	Dispatcher     Dispatcher
	JournalEnabled bool
}

type SubmitRequest struct {
	Command string `json:"command"`
}

type SubmitResponse struct {
	ID   string `json:"id"`
	Task string `json:"task"`
}

// HandleSubmitTask ставит команду в очередь от имени оператора из токена
func (h *Handler) HandleSubmitTask(w http.ResponseWriter, r *http.Request) {
	operator, err := auth.RequireAuth(r)
	if err != nil {
		http.Error(w, "Не авторизован: "+err.Error(), http.StatusUnauthorized)
		return
	}

	var request SubmitRequest
	err = json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	logger.LogINFO(fmt.Sprintf("API: operator %s submitted command: %v", operator, request.Command))

	t, err := h.Dispatcher.Submit(request.Command)
	if err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrShuttingDown), errors.Is(err, dispatcher.ErrNotStarted):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	response := SubmitResponse{
		ID:   t.ID,
		Task: t.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		logger.LogERROR(fmt.Sprintf("API: failed to encode response: %v", err))
	}
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(h.Dispatcher.Stats())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	if !h.JournalEnabled {
		http.Error(w, "Журнал результатов отключен", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Неверный limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := db.GetResults(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*db.ResultRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(records)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
