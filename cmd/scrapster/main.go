package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/scrapster/internal/collector"
	"codeberg.org/mutker/scrapster/internal/config"
	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/gpu"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/pid"
	"codeberg.org/mutker/scrapster/internal/sensor"
	"codeberg.org/mutker/scrapster/internal/source"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	if cfg.JSON || cfg.Once {
		// stdout carries snapshots
		logger.InitConsole(os.Stderr, level, logger.IsService())
	} else {
		logger.Init(level, logger.IsService())
	}
	logger.Debug().Msg("Config loaded")

	if err := run(cfg); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			logger.ErrorWithCode(coded).Msg("Exiting with error")
		} else {
			logger.Error().Err(err).Msg("Exiting with error")
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	log := logger.Get()

	sensors := openSensors(cfg, log)
	defer func() {
		if err := sensors.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release fan sensors")
		}
	}()

	probe := openGPU(cfg, log)
	defer func() {
		if err := probe.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("failed to shut down NVML")
		}
	}()

	reader := source.NewProcfs(cfg.ReadTimeout)
	collectorCfg := collector.Config{
		Interval:            cfg.Interval,
		Backlog:             cfg.Backlog,
		SkipBootstrap:       cfg.SkipBootstrap,
		PulsesPerRevolution: cfg.Sensors.PulsesPerRevolution,
	}
	opts := []collector.Option{
		collector.WithSensors(sensors),
		collector.WithGPU(probe),
		collector.WithLogger(log),
	}

	if cfg.Once {
		snap, err := collector.Once(ctx, collectorCfg, reader, opts...)
		if err != nil {
			return err
		}
		writeJSON(os.Stdout, snap)
		return nil
	}

	if cfg.PIDFile != "" {
		if err := pid.Write(cfg.PIDFile); err != nil {
			return err
		}
		defer func() {
			if err := pid.Remove(cfg.PIDFile); err != nil {
				logger.Error().Err(err).Msg("failed to remove PID file")
			}
		}()
	}

	c := collector.New(collectorCfg, reader, opts...)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated. Logging snapshots...")
		sub := c.Subscribe()
		g.Go(func() error {
			monitor(sub, log.With("monitor"))
			return nil
		})
	}
	if cfg.JSON {
		sub := c.Subscribe()
		g.Go(func() error {
			stream(os.Stdout, sub)
			return nil
		})
	}
	if !cfg.Monitor && !cfg.JSON {
		logger.Info().Msg("No consumer enabled, use --monitor or --json to see snapshots")
	}

	if err := c.Start(gctx); err != nil {
		c.Stop()
		return err
	}
	g.Go(func() error {
		<-gctx.Done()
		c.Stop()
		return nil
	})

	err := g.Wait()
	logger.Info().Msg("Exiting...")

	return err
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// openSensors falls back to no sensors when the hardware cannot be
// opened; sensor fields are then omitted for the process lifetime.
func openSensors(cfg *config.Config, log logger.Logger) sensor.Sensors {
	if !cfg.Sensors.Enabled {
		return sensor.Noop()
	}

	pi, err := sensor.NewPi(sensor.PiConfig{
		PWMPin:        cfg.Sensors.PWMPin,
		TachPin:       cfg.Sensors.TachPin,
		PWMFrequency:  cfg.Sensors.PWMFrequency,
		Duty:          cfg.Sensors.Duty,
		AmbientDevice: cfg.Sensors.AmbientDevice,
	}, log.With("sensor"))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize fan sensors, continuing without them")
		return sensor.Noop()
	}

	return pi
}

func openGPU(cfg *config.Config, log logger.Logger) gpu.Probe {
	if !cfg.GPU {
		return gpu.Noop()
	}

	probe, err := gpu.New(log.With("gpu"))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize GPU, continuing without it")
		return gpu.Noop()
	}

	return probe
}
