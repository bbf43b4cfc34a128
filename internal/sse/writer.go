package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HeartbeatInterval is how often an idle stream sends a keep-alive comment.
const HeartbeatInterval = 15 * time.Second

// Writer emits named Server-Sent Events. Writes are serialized so the
// heartbeat never interleaves with an event.
type Writer struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	mu        sync.Mutex
	stopHeart chan struct{}
	stopOnce  sync.Once
}

// NewWriter sets the streaming headers and starts the heartbeat.
func NewWriter(w http.ResponseWriter, heartbeat time.Duration) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	writer := &Writer{
		w:         w,
		flusher:   flusher,
		stopHeart: make(chan struct{}),
	}
	if heartbeat > 0 {
		go writer.heartbeat(heartbeat)
	}
	return writer, nil
}

func (s *Writer) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprint(s.w, ": keep-alive\n\n")
			s.flusher.Flush()
			s.mu.Unlock()
		case <-s.stopHeart:
			return
		}
	}
}

// Close stops the heartbeat. It is safe to call more than once.
func (s *Writer) Close() {
	s.stopOnce.Do(func() { close(s.stopHeart) })
}

// Send writes one event with a JSON encoded payload.
func (s *Writer) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
