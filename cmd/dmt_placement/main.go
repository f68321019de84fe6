package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to import the C code

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmt-mods/placement/internal/bridge"
	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/dispatcher"
	"github.com/dmt-mods/placement/internal/events"
	"github.com/dmt-mods/placement/internal/handlers"
	"github.com/dmt-mods/placement/internal/host"
	"github.com/dmt-mods/placement/internal/influx"
	"github.com/dmt-mods/placement/internal/logging"
	"github.com/dmt-mods/placement/internal/mode"
	"github.com/dmt-mods/placement/internal/oracle"
	intOtel "github.com/dmt-mods/placement/internal/otel"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/internal/registry"
	"github.com/dmt-mods/placement/pkg/a3interface"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "dmt_placement"
)

const registryQueueSize = 256

var (
	// ModuleFolder is the directory the library was loaded from. Relative
	// paths in the config resolve against it.
	ModuleFolder string

	LogFile *os.File

	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	OTelProvider *intOtel.Provider
	Telemetry    *influx.Manager

	SessionStartTime time.Time = time.Now()

	eventDispatcher *dispatcher.Dispatcher
	tackRegistry    *registry.Service
	modes           *mode.Registry
)

// init is run automatically when the module is loaded
func init() {
	ModuleFolder = a3interface.ModuleDir()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(ModuleFolder); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	setupLogging()

	if err := setupExtension(); err != nil {
		Logger.Error("Failed to set up extension!", "error", err)
		panic(err)
	}
	Logger.Info("Extension ready", "version", CurrentExtensionVersion)
}

func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ModuleFolder, p)
}

// setupLogging opens the session log file and rebuilds the logger with the
// optional GELF and OTel sinks.
func setupLogging() {
	var err error
	logsDir := resolvePath(config.GetString("logsDir"))
	logName := fmt.Sprintf("%s.%s.log", ExtensionName, SessionStartTime.Format("20060102_150405"))

	LogFile, err = logging.PrepareLogFile(logsDir, logName)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "dir", logsDir)
	}

	var logWriter io.Writer
	if LogFile != nil {
		logWriter = LogFile
	}

	OTelProvider, err = intOtel.New(config.GetOTelConfig(), logWriter)
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider = nil
	}

	level := config.GetString("logLevel")
	opts := logging.Options{
		File:  logWriter,
		Level: level,
		Context: func() []slog.Attr {
			if modes == nil {
				return nil
			}
			return []slog.Attr{slog.String("mode", modes.Current())}
		},
	}
	if OTelProvider != nil {
		opts.LogProvider = OTelProvider.LoggerProvider()
	}

	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGELFHandler(gl.Address, logging.HandlerOptions(level))
		if err != nil {
			Logger.Error("Failed to connect GELF sink", "address", gl.Address, "error", err)
		} else {
			opts.Extra = h
			opts.ExtraCloser = closer
		}
	}

	SlogManager.Setup(opts)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	if LogFile != nil {
		Logger.Info("Logging to file", "path", LogFile.Name())
	}
}

// dispatcherLog is the zerolog trace shared by the dispatcher and the
// telemetry writer.
func dispatcherLog() zerolog.Logger {
	var out io.Writer = os.Stdout
	if LogFile != nil {
		out = LogFile
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("extension", ExtensionName).Logger()
}

func setupExtension() (err error) {
	a3interface.SetVersion(CurrentExtensionVersion)
	a3interface.SetExtensionName(ExtensionName)

	zlog := dispatcherLog()
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	hostTransport := a3interface.Host{}

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	tackRegistry, err = registry.New(backend, hostTransport, Logger, registryQueueSize)
	if err != nil {
		return err
	}

	Telemetry = influx.NewManager(
		config.GetInfluxConfig(),
		zlog.With().Str("component", "influx").Logger(),
		filepath.Join(ModuleFolder, influx.BackupFileName(SessionStartTime)),
	)
	var recorder placement.Recorder
	if err := Telemetry.Connect(context.Background()); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up placement telemetry", "error", err)
		}
	} else {
		recorder = Telemetry
	}

	client := host.NewClient(hostTransport, Logger)
	hub := events.NewHub()
	modes = mode.NewRegistry(Logger.With("component", "mode"))
	modes.OnChange(hub.PublishModeChanged)
	modes.OnChange(client.NotifyModeChanged)

	placementCfg := config.GetPlacementConfig()
	machine, err := placement.New(placementCfg, placement.Dependencies{
		Validity:   oracle.NewValidity(hostTransport, Logger),
		Yield:      oracle.NewYield(hostTransport, Logger),
		Classifier: oracle.NewClassifier(hostTransport, Logger),
		Geometry:   oracle.NewGeometry(hostTransport, placementCfg.MapWidth, Logger),
		Events:     hub,
		Cursor:     client,
		Visibility: client,
		Input:      client,
		Overlay:    client,
		Audio:      client,
		Commit:     tackRegistry,
		Modes:      modes,
		Presenter:  bridge.New(config.GetPanelConfig(), client, Logger.With("component", "bridge")),
		Recorder:   recorder,
	}, Logger)
	if err != nil {
		return fmt.Errorf("failed to create placement mode: %w", err)
	}
	if err := modes.Register(placementCfg.ModeName, machine); err != nil {
		return err
	}

	flushers := []handlers.Flusher{
		handlers.FlushFunc(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if OTelProvider == nil {
				return nil
			}
			return OTelProvider.Flush(ctx)
		}),
	}
	if recorder != nil {
		flushers = append(flushers, Telemetry)
	}

	handlers.NewService(handlers.Dependencies{
		Hub:              hub,
		Modes:            modes,
		Machine:          machine,
		Registry:         tackRegistry,
		Flushers:         flushers,
		Logger:           Logger,
		ExtensionVersion: CurrentExtensionVersion,
		BuildDate:        BuildDate,
	}).Register(eventDispatcher)

	a3interface.SetDispatcher(eventDispatcher)
	Logger.Debug("Registered commands", "commands", eventDispatcher.Commands())

	if err := a3interface.WriteCallback(":STORAGE:OK:", storageCfg.Type); err != nil {
		Logger.Debug("STORAGE:OK callback not delivered", "error", err)
	}
	return nil
}

// main lets the library be run standalone to issue single commands, e.g.
// `dmt_placement :VERSION:`. Host callbacks are unavailable in this mode.
func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("No arguments provided.")
		return
	}

	result, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command:   args[0],
		Args:      args[1:],
		Timestamp: time.Now(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	out, err := a3interface.EncodeArgs(result)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(out)

	shutdown()
}

// shutdown drains the registry and releases every sink. The log file goes
// last so the other closers can still report errors.
func shutdown() {
	if err := tackRegistry.Close(); err != nil {
		Logger.Error("Failed to close registry", "error", err)
	}
	if err := Telemetry.Close(); err != nil {
		Logger.Error("Failed to close telemetry", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(context.Background()); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if err := SlogManager.Close(); err != nil {
		Logger.Error("Failed to close GELF sink", "error", err)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}
