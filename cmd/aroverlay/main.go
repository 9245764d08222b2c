// Command aroverlay runs the AR annotation layout engine headless: it
// loads a POI catalog, consumes simulated location and heading samples,
// and publishes view events over a websocket for a presentation frontend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/skylens/aroverlay/internal/api"
	"github.com/skylens/aroverlay/internal/catalog"
	"github.com/skylens/aroverlay/internal/config"
	"github.com/skylens/aroverlay/internal/dispatcher"
	"github.com/skylens/aroverlay/internal/engine"
	"github.com/skylens/aroverlay/internal/feed"
	"github.com/skylens/aroverlay/internal/geo"
	"github.com/skylens/aroverlay/internal/influx"
	"github.com/skylens/aroverlay/internal/logging"
	"github.com/skylens/aroverlay/internal/monitor"
	intOtel "github.com/skylens/aroverlay/internal/otel"
	"github.com/skylens/aroverlay/internal/session"
	intStream "github.com/skylens/aroverlay/internal/stream"
	"github.com/skylens/aroverlay/pkg/poi"
	"github.com/skylens/aroverlay/pkg/stream"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Version can be set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const appName = "aroverlay"

// Sensor command names routed through the dispatcher.
const (
	cmdHeadingTick      = "heading:tick"
	cmdLocationSet      = "location:set"
	cmdAnnotationsSet   = "annotations:set"
	cmdAnnotationsLoad  = "catalog:load"
	cmdAnnotationsFlush = "annotations:reload"
)

var (
	sessionStart = time.Now()

	slogManager  *logging.SlogManager
	otelProvider *intOtel.Provider
	logFile      *os.File
)

func main() {
	configDir := flag.String("config", ".", "directory containing aroverlay.cfg.json")
	fixedLocation := flag.String("fix", "", "pin the user location to \"lon,lat[,alt]\" and disable simulated fixes")
	flag.Parse()

	slogManager = logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
	} else {
		logger.Info("Loaded config", "dir", *configDir)
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		_ = os.Mkdir(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, appName, sessionStart)
	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to create/open log file", "error", err, "path", logFilePath)
	}

	// OTel provider (no-op when disabled).
	otelCfg := config.GetOTelConfig()
	otelProvider, err = intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    logFile,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
	}

	// Re-setup logging with file output and optional OTel.
	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
	}
	slogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider)
	logger = slogManager.Logger()
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "logFile", logFilePath)

	// Subcommands operate on the catalog and exit.
	if args := flag.Args(); len(args) > 0 {
		if err := runSubcommand(args); err != nil {
			logger.Error("Command failed", "command", args[0], "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(logger, *fixedLocation); err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, fixedLocation string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zlog := zerolog.New(logFile).With().Timestamp().Logger()

	// Session state with GPS acquisition watchdog.
	sess := session.New()
	sess.StartTracking()
	defer sess.StopTracking()
	sess.WatchAcquisition(30*time.Second, func(st session.AcquisitionStatus) {
		logger.Warn("No location fix yet", "elapsed", st.Elapsed)
	})

	sessionID := sessionStart.Format("20060102_150405")
	slogManager.SetContextProvider(func() []slog.Attr {
		_, _, hasFix := sess.Location()
		return []slog.Attr{
			slog.String("session", sessionID),
			slog.Bool("hasFix", hasFix),
		}
	})

	// InfluxDB telemetry, with gzipped line-protocol fallback.
	var influxManager *influx.Manager
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		backupPath := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("%s.%s.lp.gz", appName, sessionID))
		influxManager = influx.NewManager(zlog, backupPath)
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable", "error", err)
		}
		defer influxManager.Close()
	}

	// Annotation catalog.
	source, err := catalog.New(config.GetCatalogConfig(), slogManager.Logger())
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	defer source.Close()

	// Engine behind its single-goroutine service.
	engineCfg := config.GetEngineConfig()
	overlayCfg := config.GetOverlayConfig()
	eng := engine.New(engine.Config{
		MaxVisibleAnnotations:  engineCfg.MaxVisibleAnnotations,
		MaxVerticalLevel:       engineCfg.MaxVerticalLevel,
		MaxDistance:            engineCfg.MaxDistance,
		HeadingSmoothingFactor: engineCfg.HeadingSmoothingFactor,
		Projector: engine.Projector{
			PixelsPerDegree:      overlayCfg.PixelsPerDegree,
			ViewportWidth:        overlayCfg.ViewportWidth,
			ViewportHeight:       overlayCfg.ViewportHeight,
			AnnotationViewWidth:  overlayCfg.AnnotationViewWidth,
			AnnotationViewHeight: overlayCfg.AnnotationViewHeight,
			BaselineFraction:     overlayCfg.BaselineFraction,
			LevelSquareFactor:    overlayCfg.LevelSquareFactor,
		},
	}, nil, slogManager.Logger())
	engineService := engine.NewService(eng, slogManager.Logger())
	engineService.Start(ctx)
	defer engineService.Stop()

	// Dispatcher routing sensor samples and control commands.
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	registerHandlers(eventDispatcher, engineService, sess, source, influxManager)

	// Initial catalog load.
	if _, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command: cmdAnnotationsLoad, Timestamp: time.Now(),
	}); err != nil {
		logger.Warn("Initial catalog load failed", "error", err)
	}

	// A pinned location replaces the simulated walk; heading still sweeps.
	pinned := fixedLocation != ""
	if pinned {
		loc, err := geo.LocationFromString(fixedLocation)
		if err != nil {
			return fmt.Errorf("invalid -fix location: %w", err)
		}
		if _, err := eventDispatcher.Dispatch(dispatcher.Event{
			Command: cmdLocationSet, Payload: loc, Timestamp: time.Now(),
		}); err != nil {
			logger.Warn("Failed to set pinned location", "error", err)
		}
	}

	// Websocket view-event publisher.
	streamCfg := config.GetStreamConfig()
	if streamCfg.Enabled {
		publisher := intStream.NewPublisher(
			intStream.Config{URL: streamCfg.URL, Secret: streamCfg.Secret},
			stream.HelloPayload{
				Session:         sessionID,
				ViewportWidth:   overlayCfg.ViewportWidth,
				ViewportHeight:  overlayCfg.ViewportHeight,
				PixelsPerDegree: overlayCfg.PixelsPerDegree,
			},
			slogManager.Logger(),
		)
		if err := publisher.Connect(); err != nil {
			logger.Warn("View-event stream unavailable", "error", err)
		} else {
			defer publisher.Close()
			go publisher.Run(ctx, engineService.Events(), 100*time.Millisecond)
			go publishStatus(ctx, publisher, engineService, 5*time.Second)
		}
	} else {
		// Nobody consumes the journal; drain it so it can't grow unbounded.
		go drainEvents(ctx, engineService)
	}

	// Status monitor.
	monitorService := monitor.NewService(monitor.Dependencies{
		Stats:      engineService.Stats,
		Influx:     influxManager,
		LogManager: slogManager,
		StatusDir:  viper.GetString("logsDir"),
		Session:    sessionID,
	})
	if err := monitorService.Start(); err != nil {
		logger.Warn("Status monitor failed to start", "error", err)
	}
	defer monitorService.Stop()

	// POI service reachability, informational only.
	go func() {
		client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
		if err := client.Healthcheck(); err != nil {
			logger.Info("POI service is offline")
		} else {
			logger.Info("POI service is online")
		}
	}()

	// Reload the catalog when its backing file changes underneath us.
	if reloadable, ok := source.(catalog.Reloadable); ok {
		go watchCatalog(ctx, reloadable, eventDispatcher, logger)
	}

	// Simulated sensor feed.
	samples := make(chan feed.Sample, 256)
	sensorFeed := feed.New(config.GetFeedConfig(), slogManager.Logger())
	go sensorFeed.Run(ctx, samples)
	go pumpSamples(ctx, samples, eventDispatcher, pinned)

	logger.Info("aroverlay running; Ctrl-C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")
	cancel()

	if otelProvider != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = slogManager.Flush(shutdownCtx)
		_ = otelProvider.Shutdown(shutdownCtx)
	}
	return nil
}

// registerHandlers wires the dispatcher commands to the engine service and
// session state.
func registerHandlers(d *dispatcher.Dispatcher, svc *engine.Service, sess *session.State, source catalog.Source, influxManager *influx.Manager) {
	d.Register(cmdHeadingTick, func(e dispatcher.Event) (any, error) {
		raw, ok := e.Payload.(float64)
		if !ok {
			return nil, fmt.Errorf("heading payload must be float64, got %T", e.Payload)
		}
		svc.HeadingTick(raw)
		return nil, nil
	})

	d.Register(cmdLocationSet, func(e dispatcher.Event) (any, error) {
		loc, ok := e.Payload.(poi.Location)
		if !ok {
			return nil, fmt.Errorf("location payload must be poi.Location, got %T", e.Payload)
		}
		sess.SetLocation(loc.Latitude, loc.Longitude)
		svc.SetUserLocation(loc)
		return nil, nil
	}, dispatcher.Logged())

	d.Register(cmdAnnotationsSet, func(e dispatcher.Event) (any, error) {
		list, ok := e.Payload.([]poi.Annotation)
		if !ok {
			return nil, fmt.Errorf("annotations payload must be []poi.Annotation, got %T", e.Payload)
		}
		svc.SetAnnotations(list)
		return len(list), nil
	}, dispatcher.Logged())

	d.Register(cmdAnnotationsFlush, func(e dispatcher.Event) (any, error) {
		svc.ReloadAnnotations()
		return nil, nil
	}, dispatcher.Logged())

	d.Register(cmdAnnotationsLoad, func(e dispatcher.Event) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		start := time.Now()
		annotations, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog load failed: %w", err)
		}
		svc.SetAnnotations(annotations)
		if influxManager != nil {
			session := sessionStart.Format("20060102_150405")
			_ = influxManager.WriteReloadTiming(ctx, session, time.Since(start), len(annotations))
		}
		return len(annotations), nil
	}, dispatcher.Logged())
}

// publishStatus streams periodic engine health snapshots alongside the
// view-event journal.
func publishStatus(ctx context.Context, p *intStream.Publisher, svc *engine.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := svc.Stats()
			_ = p.PublishStatus(stream.StatusPayload{
				Annotations:       st.Annotations,
				ActiveAnnotations: st.ActiveAnnotations,
				BoundViews:        st.BoundViews,
				SmoothedHeading:   st.SmoothedHeading,
				Region:            st.Region,
				HasLocation:       st.HasLocation,
			})
		}
	}
}

// watchCatalog polls a reloadable source and re-dispatches a catalog load
// when the backing data changed externally.
func watchCatalog(ctx context.Context, source catalog.Reloadable, d *dispatcher.Dispatcher, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := source.Changed(ctx)
			if err != nil {
				logger.Warn("Catalog change check failed", "error", err)
				continue
			}
			if !changed {
				continue
			}
			logger.Info("Catalog changed on disk, reloading")
			if _, err := d.Dispatch(dispatcher.Event{
				Command: cmdAnnotationsLoad, Timestamp: time.Now(),
			}); err != nil {
				logger.Warn("Catalog reload failed", "error", err)
			}
		}
	}
}

// pumpSamples converts feed samples into dispatcher events. With a pinned
// location the simulated fixes are discarded.
func pumpSamples(ctx context.Context, samples <-chan feed.Sample, d *dispatcher.Dispatcher, pinned bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			if s.Location != nil && !pinned {
				_, _ = d.Dispatch(dispatcher.Event{
					Command: cmdLocationSet, Payload: *s.Location, Timestamp: s.Time,
				})
			}
			_, _ = d.Dispatch(dispatcher.Event{
				Command: cmdHeadingTick, Payload: s.Heading, Timestamp: s.Time,
			})
		}
	}
}

// drainEvents discards view events when no stream consumer is attached.
func drainEvents(ctx context.Context, svc *engine.Service) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Events().GetAndEmpty()
		}
	}
}
