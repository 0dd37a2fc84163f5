package realtime

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	// Time between keepalive comments.
	pingPeriod = 30 * time.Second
)

// ServeSSE streams events to the client as server-sent events until the
// request ends or the stream closes. cancel is called on return. When allow
// is non-nil it is asked about every event just before it is written, on the
// request's goroutine, so it may consult the store.
func ServeSSE(w http.ResponseWriter, r *http.Request, events <-chan Event, cancel func(), allow func(Event) bool) {
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if allow != nil && !allow(ev) {
				continue
			}
			if _, err := w.Write(FormatSSE(ev)); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// FormatSSE renders ev as one SSE message named after its collection.
// JSON encoding never emits raw newlines, so data fits on one line.
func FormatSSE(ev Event) []byte {
	b, err := json.Marshal(ev)
	if err != nil {
		b = []byte(`{}`)
	}
	msg := make([]byte, 0, len(b)+len(ev.Collection)+32)
	msg = append(msg, "id: "+ev.ID+"\n"...)
	msg = append(msg, "event: "+ev.Collection+"\n"...)
	msg = append(msg, "data: "...)
	msg = append(msg, b...)
	msg = append(msg, "\n\n"...)
	return msg
}
