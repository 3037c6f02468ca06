package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Enable pprof
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/camera"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/classify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/config"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/engine"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/metrics"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/notify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/pipeline"
)

var (
	// Command-line flags; anything not covered here comes from the config file
	configPath = flag.String("config", "doorwatch.yaml", "Path of the config file")
	cameraFlag = flag.String("camera", "", "Camera driver override (shm, serial, replay)")
	modelFlag  = flag.String("model", "", "Model artifact path override")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error, silent)")
	logColor   = flag.Bool("log-color", true, "Enable colored log output")
)

// Service ties the pipeline to its observability servers
type Service struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	cfg        *config.Config
	metrics    *metrics.Metrics
	source     camera.Source
	eng        *engine.Engine
	pipe       *pipeline.Pipeline
	sinks      notify.Fanout
	httpServer *http.Server
}

func main() {
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, *logColor)

	logger.Info("Main", "doorwatch starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *cameraFlag != "" {
		cfg.Camera.Driver = *cameraFlag
	}
	if *modelFlag != "" {
		cfg.Model.Path = *modelFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Fatal setup errors surface here, before the first cycle runs.
	svc, err := NewService(cfg)
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}

	svc.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	if err := svc.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("doorwatch stopped")
}

// NewService performs every one-time setup step: camera, model, engine,
// sinks, HTTP surface. Any error is fatal to the pipeline.
func NewService(cfg *config.Config) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	m := metrics.New()

	source, err := openSource(cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open frame source: %w", err)
	}

	model, err := engine.ReadModel(cfg.Model.Path)
	if err != nil {
		cancel()
		source.Close()
		return nil, err
	}

	eng := engine.New(engine.NewTFLite(), engine.Options{
		Width:     cfg.Camera.Width,
		Height:    cfg.Camera.Height,
		ArenaKiB:  cfg.Model.ArenaKiB,
		Threads:   cfg.Model.Threads,
		ClosedIdx: cfg.Model.ClosedIdx,
		OpenIdx:   cfg.Model.OpenIdx,
	})
	if err := eng.Setup(model); err != nil {
		cancel()
		source.Close()
		return nil, err
	}

	sinks := notify.Fanout{notify.LogSink{}}
	if cfg.MQTT.Host != "" {
		mqttSink, err := notify.NewMQTTSink(cfg.MQTT.Host, cfg.MQTT.Port, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			// The broker is an external convenience, not a pipeline
			// dependency; run without it.
			logger.Warn("Main", "MQTT sink unavailable: %v", err)
		} else {
			sinks = append(sinks, mqttSink)
		}
	}

	policy := classify.NewPolicy(cfg.Policy.ClosedThreshold)
	pipe := pipeline.New(source, eng, policy, sinks, m)

	svc := &Service{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		metrics: m,
		source:  source,
		eng:     eng,
		pipe:    pipe,
		sinks:   sinks,
	}

	mux := http.NewServeMux()
	svc.setupRoutes(mux)
	svc.httpServer = &http.Server{Addr: cfg.Serve.HTTPAddr, Handler: mux}

	return svc, nil
}

func openSource(cfg *config.Config) (camera.Source, error) {
	tuning := camera.Tuning{Gain: cfg.Camera.Gain, Exposure: cfg.Camera.Exposure}
	switch cfg.Camera.Driver {
	case "shm":
		return camera.OpenShm(cfg.Camera.ShmName, cfg.Camera.Width, cfg.Camera.Height, tuning)
	case "serial":
		return camera.OpenSerial(cfg.Camera.Port, cfg.Camera.Width, cfg.Camera.Height, tuning)
	case "replay":
		return camera.OpenReplay(cfg.Camera.Dir, cfg.Camera.Width, cfg.Camera.Height)
	default:
		return nil, fmt.Errorf("unknown camera driver %q", cfg.Camera.Driver)
	}
}

// Start launches the cycle loop and the observability servers
func (s *Service) Start() {
	logger.Info("Main", "Camera driver: %s (%dx%d)", s.cfg.Camera.Driver, s.cfg.Camera.Width, s.cfg.Camera.Height)
	logger.Info("Main", "HTTP server: %s", s.cfg.Serve.HTTPAddr)
	logger.Info("Main", "Metrics server: %s", s.cfg.Serve.MetricsAddr)
	logger.Info("Main", "pprof server: %s", s.cfg.Serve.PprofAddr)

	go func() {
		if err := http.ListenAndServe(s.cfg.Serve.PprofAddr, nil); err != nil {
			logger.Warn("Main", "pprof server error: %v", err)
		}
	}()

	go func() {
		if err := s.metrics.StartServer(s.cfg.Serve.MetricsAddr); err != nil {
			logger.Warn("Main", "Metrics server error: %v", err)
		}
	}()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Warn("Main", "HTTP server error: %v", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		interval := time.Duration(s.cfg.Policy.IntervalMs) * time.Millisecond
		s.pipe.Run(s.ctx, interval)
	}()

	logger.Info("Main", "Service started")
}

func (s *Service) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/preview.bmp", s.handlePreview)
}

// handleHealth reports liveness
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "ok",
		"cycles_run":     s.metrics.CyclesRun.Load(),
		"cycles_aborted": s.metrics.CyclesAborted.Load(),
	})
}

// handleStatus reports the latest decision with both score spaces
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest := s.pipe.LatestDecision()
	if latest == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "no completed cycle yet"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(latest)
}

// handlePreview serves the last acquired frame as BMP
func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	frame := s.pipe.LatestFrame()
	if frame == nil {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/bmp")
	if err := camera.WriteBMP(w, frame); err != nil {
		logger.Warn("HTTP", "Preview encode failed: %v", err)
	}
}

// Shutdown stops the cycle loop and releases every resource
func (s *Service) Shutdown() error {
	s.cancel()
	s.wg.Wait()

	s.sinks.Close()
	s.eng.Close()
	s.source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
