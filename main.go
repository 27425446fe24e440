// Command ppe.watch monitors a camera feed for missing safety equipment,
// serves a live dashboard (status JSON, MJPEG video, websocket push) and
// forwards status updates to an ESP32 actuator on the shop floor.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/ppe.watch/internal/capture"
	"github.com/banshee-data/ppe.watch/internal/config"
	"github.com/banshee-data/ppe.watch/internal/forward"
	"github.com/banshee-data/ppe.watch/internal/monitor"
	"github.com/banshee-data/ppe.watch/internal/ppe"
	"github.com/banshee-data/ppe.watch/internal/timeutil"
	"github.com/banshee-data/ppe.watch/internal/vision"
)

var (
	devMode = flag.Bool("dev", false, "Replay JPEG fixtures instead of opening the camera")
	listen  = flag.String("listen", "", "Listen address (overrides LISTEN_ADDR)")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	clock := timeutil.RealClock{}

	// Pick the capture and detection collaborators. Dev mode replays
	// fixtures through a passthrough detector so the whole serving path can
	// be exercised without a camera or OpenCV.
	var source capture.Source
	var detector vision.Detector
	if *devMode {
		fs, err := capture.NewFileSource(cfg.FixtureDir)
		if err != nil {
			log.Fatalf("failed to open fixture source: %v", err)
		}
		source = fs
		detector = vision.Passthrough{}
	} else {
		cam, err := capture.NewWebcamSource(cfg.CameraDevice)
		if err != nil {
			log.Fatalf("failed to open camera: %v", err)
		}
		source = cam
		dnn, err := vision.NewDNNDetector(cfg.ModelPath, cfg.ModelConfig)
		if err != nil {
			source.Close()
			log.Fatalf("failed to load detection model: %v", err)
		}
		defer dnn.Close()
		detector = dnn
	}

	status := ppe.NewStatusStore(clock.Now())
	frames := ppe.NewFrameStore()

	forwarder := forward.New(cfg.PushURL)
	forwarder.Timeout = cfg.PushTimeout

	server := monitor.NewWebServer(monitor.WebServerConfig{
		Address:      cfg.ListenAddr,
		Status:       status,
		Frames:       frames,
		LoadDocument: monitor.FileDocumentLoader(cfg.DashboardPath),
		Clock:        clock,
	})

	pipeline := &ppe.Pipeline{
		Source:       source,
		Detector:     detector,
		Status:       status,
		Frames:       frames,
		Push:         forwarder,
		PushInterval: cfg.PushInterval,
		Clock:        clock,
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine; Start blocks until ctx is cancelled, then
	// shuts down gracefully with a bounded timeout.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("server error: %v", err)
		}
	}()

	// The pipeline owns the primary thread of control: an operator signal or
	// an exhausted capture source ends it deterministically, and its exit
	// brings the server down with it.
	log.Printf("PPE detection running; pushing to %s every %s", cfg.PushURL, cfg.PushInterval)
	if err := pipeline.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("pipeline error: %v", err)
	}
	log.Print("pipeline terminated")

	stop()
	wg.Wait()
}
