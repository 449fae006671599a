package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"discpress/internal/service"
)

// SSEHandler streams workflow events to the external GUI as
// server-sent events. Each event's data is one JSON-encoded
// service.Event.
type SSEHandler struct {
	bus   *service.EventBus
	queue QueueService
}

func NewSSEHandler(bus *service.EventBus, queue QueueService) *SSEHandler {
	return &SSEHandler{bus: bus, queue: queue}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wf, ok := pathWorkflow(w, r)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		// Snapshot first so late subscribers see the current queue.
		snapshot, err := json.Marshal(workflowState{
			Workflow:    wf,
			Processing:  h.queue.Processing(wf),
			Concurrency: h.queue.Concurrency(wf),
			Jobs:        h.queue.Jobs(wf),
		})
		if err == nil {
			sseWrite(w, "snapshot", string(snapshot))
		}

		ch := h.bus.Subscribe(wf)
		defer h.bus.Unsubscribe(wf, ch)

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, open := <-ch:
				if !open {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					continue
				}
				sseWrite(w, string(event.Type), string(data))
			}
		}
	}
}
