package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/port"
)

// QueueService is what the handlers need from the core; implemented by
// service.QueueService.
type QueueService interface {
	Enqueue(wf domain.Workflow, sourcePath, name string, st domain.Settings) (domain.Job, error)
	Jobs(wf domain.Workflow) []domain.Job
	Get(wf domain.Workflow, id string) (domain.Job, bool)
	Cancel(wf domain.Workflow, id string) bool
	Remove(wf domain.Workflow, id string) bool
	Retry(wf domain.Workflow, id string) bool
	Clear(wf domain.Workflow) int
	StartProcessing(wf domain.Workflow)
	StopProcessing(wf domain.Workflow)
	CancelAll(wf domain.Workflow)
	Processing(wf domain.Workflow) bool
	Concurrency(wf domain.Workflow) int
	SetConcurrency(wf domain.Workflow, n int) int
}

type Handlers struct {
	queue   QueueService
	history port.History
}

func NewHandlers(queue QueueService, history port.History) *Handlers {
	return &Handlers{queue: queue, history: history}
}

type enqueueRequest struct {
	SourcePath string          `json:"source_path"`
	Name       string          `json:"name,omitempty"`
	Settings   domain.Settings `json:"settings"`
}

type workflowState struct {
	Workflow    domain.Workflow `json:"workflow"`
	Processing  bool            `json:"processing"`
	Concurrency int             `json:"concurrency"`
	Jobs        []domain.Job    `json:"jobs"`
}

func (h *Handlers) EnqueueJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}

		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SourcePath == "" {
			writeError(w, http.StatusBadRequest, "source_path is required")
			return
		}

		job, err := h.queue.Enqueue(wf, req.SourcePath, req.Name, req.Settings)
		if err != nil {
			logger.Error.Printf("enqueue %s: %v", logger.SanitizeForLog(req.SourcePath), err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, job)
	}
}

func (h *Handlers) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, workflowState{
			Workflow:    wf,
			Processing:  h.queue.Processing(wf),
			Concurrency: h.queue.Concurrency(wf),
			Jobs:        h.queue.Jobs(wf),
		})
	}
}

func (h *Handlers) GetJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		job, found := h.queue.Get(wf, r.PathValue("id"))
		if !found {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func (h *Handlers) CancelJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		cancelled := h.queue.Cancel(wf, r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
	}
}

func (h *Handlers) RetryJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		if !h.queue.Retry(wf, r.PathValue("id")) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) RemoveJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		if !h.queue.Remove(wf, r.PathValue("id")) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) StartWorkflow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		h.queue.StartProcessing(wf)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) StopWorkflow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		h.queue.StopProcessing(wf)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) CancelWorkflow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		h.queue.CancelAll(wf)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) ClearWorkflow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		removed := h.queue.Clear(wf)
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func (h *Handlers) SetConcurrency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}
		var req struct {
			Limit int `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Limit == 0 {
			writeError(w, http.StatusBadRequest, "limit is required")
			return
		}
		applied := h.queue.SetConcurrency(wf, req.Limit)
		writeJSON(w, http.StatusOK, map[string]int{"limit": applied})
	}
}

func (h *Handlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, err := domain.ParseWorkflow(r.URL.Query().Get("workflow"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown workflow")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		records, err := h.history.List(wf, limit)
		if err != nil {
			logger.Error.Printf("list history: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		if records == nil {
			records = []port.HistoryRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func pathWorkflow(w http.ResponseWriter, r *http.Request) (domain.Workflow, bool) {
	wf, err := domain.ParseWorkflow(r.PathValue("workflow"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown workflow")
		return "", false
	}
	return wf, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
