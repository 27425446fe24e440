// Package monitor serves the dashboard: live status JSON, the MJPEG video
// feed, and a websocket status push. Every handler reads the shared stores
// only; nothing in here is called by the detection pipeline.
package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/banshee-data/ppe.watch/internal/httputil"
	"github.com/banshee-data/ppe.watch/internal/ppe"
	"github.com/banshee-data/ppe.watch/internal/timeutil"
)

// DocumentLoader supplies the dashboard HTML. It is called per request so the
// page can be edited without restarting the process.
type DocumentLoader func() ([]byte, error)

// FileDocumentLoader reads the dashboard document from path.
func FileDocumentLoader(path string) DocumentLoader {
	return func() ([]byte, error) {
		return os.ReadFile(path)
	}
}

// WebServer handles the HTTP interface for the equipment monitor.
type WebServer struct {
	address      string
	status       *ppe.StatusStore
	frames       *ppe.FrameStore
	loadDocument DocumentLoader
	hub          *Hub
	clock        timeutil.Clock
	framePeriod  time.Duration
	pollInterval time.Duration
	server       *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address      string
	Status       *ppe.StatusStore
	Frames       *ppe.FrameStore
	LoadDocument DocumentLoader
	Clock        timeutil.Clock

	// FramePeriod paces the video feed between parts; PollInterval is the
	// retry delay while no frame has been published yet. Zero values pick
	// the defaults (~30 fps, 100ms).
	FramePeriod  time.Duration
	PollInterval time.Duration
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:      config.Address,
		status:       config.Status,
		frames:       config.Frames,
		loadDocument: config.LoadDocument,
		clock:        config.Clock,
		framePeriod:  config.FramePeriod,
		pollInterval: config.PollInterval,
	}
	if ws.clock == nil {
		ws.clock = timeutil.RealClock{}
	}
	if ws.framePeriod <= 0 {
		ws.framePeriod = 33 * time.Millisecond
	}
	if ws.pollInterval <= 0 {
		ws.pollInterval = 100 * time.Millisecond
	}
	ws.hub = NewHub(ws.status, ws.clock)

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server and the websocket hub in goroutines, then
// blocks until the context is cancelled and performs a bounded graceful
// shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go ws.hub.Run(ctx)

	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// Handler exposes the route table for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/status", ws.handleStatus)
	mux.HandleFunc("/video_feed", ws.handleVideoFeed)
	mux.HandleFunc("/ws", ws.hub.handleConnect)
	mux.HandleFunc("/health", ws.handleHealth)

	return mux
}

// handleIndex serves the dashboard document on "/" and a plain 404 for every
// path no other route claimed. A document load failure degrades to an error
// body; the server stays up.
func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, "404 Not Found")
		return
	}

	doc, err := ws.loadDocument()
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "error loading dashboard document: %v\n", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

// handleStatus returns the current snapshot as JSON. The dashboard page polls
// it cross-origin, hence the permissive CORS header.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	httputil.WriteJSONOK(w, ws.status.Read())
}

// handleHealth is a liveness probe.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
