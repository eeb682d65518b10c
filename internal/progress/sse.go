package progress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HandshakeMessage is sent once when a consumer connects.
const HandshakeMessage = "Monitoring download progress"

// KeepAliveInterval is how often an idle stream sends a comment line so
// proxies do not drop the connection.
var KeepAliveInterval = 15 * time.Second

type handshake struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServeSSE subscribes to session and streams its events to w as Server-Sent
// Events until the final event, a replacement subscription, or the client
// disconnecting.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, session string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := hub.Subscribe(session)
	defer hub.Unsubscribe(sub)

	if err := writeEvent(w, handshake{Type: "connected", Message: HandshakeMessage}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Done {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}
