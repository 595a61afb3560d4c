package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/pickplace-simulator/internal/api"
	"github.com/sebastiankruger/pickplace-simulator/internal/config"
	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/events"
	"github.com/sebastiankruger/pickplace-simulator/internal/health"
	"github.com/sebastiankruger/pickplace-simulator/internal/metrics"
	"github.com/sebastiankruger/pickplace-simulator/internal/opcua"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
	"github.com/sebastiankruger/pickplace-simulator/internal/simulator"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
		}
	}()

	log.Info().Msg("Starting Pick and Place Arm Simulator")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("name", cfg.SimulatorName).
		Int("opcua_port", cfg.OPCUAPort).
		Int("health_port", cfg.HealthPort).
		Str("home", core.FormatPoint(cfg.Home)).
		Str("start", core.FormatPoint(cfg.Start)).
		Str("goal", core.FormatPoint(cfg.Goal)).
		Float64("speed", cfg.Speed).
		Dur("frame_interval", cfg.FrameInterval).
		Msg("Configuration loaded")

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize components
	runtimeCfg := config.NewRuntimeConfig(cfg)
	sim, err := simulator.New(cfg, runtimeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create simulator")
	}
	healthHandler := health.NewHandler(sim)
	healthHandler.SetStaleAfter(10*cfg.FrameInterval + time.Second)

	arm := sim.Arm()
	log.Info().
		Float64("link1", arm.L1()).
		Float64("link2", arm.L2()).
		Float64("min_reach", arm.MinReach()).
		Float64("max_reach", arm.MaxReach()).
		Float64("link1_inertia_cm", arm.Link1().InertiaCM).
		Float64("link2_inertia_cm", arm.Link2().InertiaCM).
		Msg("Arm geometry")

	// Create OPC UA server
	opcuaServer, err := opcua.NewServer(cfg.OPCUAPort, cfg.SimulatorName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create OPC UA server")
	}
	if err := opcuaServer.RegisterNamespace(core.NamespacePickPlace, core.FolderPickPlace,
		"Pick and place arm", simulator.NodeDefinitions()); err != nil {
		log.Fatal().Err(err).Msg("Failed to register OPC UA namespace")
	}

	eventClient := events.NewClient(cfg)
	if eventClient.Enabled() {
		log.Info().Str("url", eventClient.URL()).Msg("Event reporting enabled")
	}

	// Setup callbacks
	sim.SetCallbacks(simulator.Callbacks{
		OnMissionStart: func(f simulator.Frame) {
			eventClient.Publish(events.Event{
				Type:      events.TypeMissionStarted,
				MissionID: f.MissionID,
				Phase:     f.PhaseName,
			})
		},
		OnPhaseChange: func(from, to sequencer.Phase) {
			log.Info().
				Str("from", from.String()).
				Str("to", to.String()).
				Str("text", to.Text()).
				Msg("Phase changed")
			metrics.RecordPhaseTransition(from.String(), to.String())
		},
		OnCycleComplete: func(cycle int) {
			log.Info().Int("cycle", cycle).Msg("Cycle completed")
			metrics.RecordCycleComplete()
			eventClient.Publish(events.Event{
				Type:      events.TypeCycleCompleted,
				MissionID: sim.Snapshot().MissionID,
				Cycle:     cycle,
			})
		},
		OnError: func(err error) {
			log.Error().Err(err).Msg("Runtime reachability failure, simulation paused")
			metrics.RecordIKFailure(metrics.StageRuntime)
			f := sim.Snapshot()
			eventClient.Publish(events.Event{
				Type:      events.TypeRuntimeError,
				MissionID: f.MissionID,
				Phase:     f.PhaseName,
				Error:     err.Error(),
			})
		},
		OnFrame: func(f simulator.Frame) {
			metrics.ObserveFrame(int(f.Phase), f.Progress, f.Paused)
		},
	})

	// Start OPC UA server
	if err := opcuaServer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start OPC UA server")
	}
	healthHandler.SetOPCUAReady(opcuaServer.Ready())

	// Start HTTP server (health + API + metrics)
	router := api.NewRouter(api.NewHandler(sim), healthHandler, api.DefaultRouterConfig())
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HealthPort),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HealthPort).Msg("Starting HTTP server (health + API)")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	if cfg.AutoStart {
		if err := sim.StartDefaultMission(); err != nil {
			metrics.RecordMission(metrics.OutcomeRejected)
			log.Warn().Err(err).Msg("Default mission rejected, waiting for a mission request")
		} else {
			metrics.RecordMission(metrics.OutcomeStarted)
			log.Info().Str("missionId", sim.Snapshot().MissionID).Msg("Default mission started")
		}
	} else {
		log.Info().Msg("Simulation paused, waiting for a mission request")
	}

	var wg sync.WaitGroup

	// Frame loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Dur("interval", cfg.FrameInterval).Msg("Starting frame loop")
		if err := sim.Run(ctx, cfg.FrameInterval); err != nil {
			log.Error().Err(err).Msg("Frame loop stopped")
		}
	}()

	// Event delivery
	wg.Add(1)
	go func() {
		defer wg.Done()
		eventClient.Run(ctx)
	}()

	// OPC UA publish loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		publish(ctx, sim, opcuaServer, cfg.PublishInterval)
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")
	wg.Wait()

	log.Info().Msg("Shutting down...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := opcuaServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("OPC UA server shutdown error")
	}

	log.Info().Msg("Simulator stopped")
}

// publish pushes the current frame into the OPC UA address space every interval
func publish(ctx context.Context, sim *simulator.Simulator, srv *opcua.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Starting OPC UA publish loop")

	var lastStatus time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			frame := sim.Snapshot()
			srv.UpdateNamespaceValues(core.NamespacePickPlace, frame.ToMap())

			// Log periodic status
			if now.Sub(lastStatus) >= 10*time.Second {
				lastStatus = now
				log.Debug().
					Str("phase", frame.PhaseName).
					Float64("progress", frame.Progress).
					Str("tool", core.FormatPoint(frame.FK.Tool)).
					Int("cycles", frame.Cycles).
					Bool("paused", frame.Paused).
					Msg("Simulation tick")
			}
		}
	}
}
