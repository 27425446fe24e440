package monitor

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/banshee-data/ppe.watch/internal/monitoring"
)

// handleVideoFeed serves the live annotated feed as an MJPEG multipart
// stream. Each connection runs its own read loop over the frame store with
// its own pacing, so one slow or dead client affects nobody else. The loop
// ends only when the client goes away or a write fails.
func (ws *WebServer) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientID := uuid.NewString()
	monitoring.Logf("video_feed: client %s connected from %s", clientID, r.RemoteAddr)
	defer monitoring.Logf("video_feed: client %s disconnected", clientID)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		if ctx.Err() != nil {
			return
		}

		frame, ok := ws.frames.Read()
		if !ok {
			// No frame published yet; keep the connection open and retry.
			ws.clock.Sleep(ws.pollInterval)
			continue
		}

		if err := writePart(w, frame); err != nil {
			return
		}
		flusher.Flush()

		ws.clock.Sleep(ws.framePeriod)
	}
}

// writePart emits one multipart frame: boundary, part headers, payload,
// trailing CRLF.
func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
