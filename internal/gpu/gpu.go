package gpu

import (
	"sync"

	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/metrics"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVML reads the first NVIDIA device through the management library.
type NVML struct {
	ctl    nvmlController
	device device
	name   string
	logger logger.Logger

	mu sync.Mutex
}

// New initializes NVML and opens device 0.
func New(log logger.Logger) (*NVML, error) {
	return newNVML(&nvmlWrapper{}, log)
}

func newNVML(ctl nvmlController, log logger.Logger) (*NVML, error) {
	if err := ctl.Initialize(); err != nil {
		return nil, err
	}

	dev, err := ctl.GetDevice(0)
	if err != nil {
		if shutdownErr := ctl.Shutdown(); shutdownErr != nil {
			log.Debug().Err(shutdownErr).Msg("NVML shutdown after failed device lookup")
		}
		return nil, err
	}

	g := &NVML{ctl: ctl, device: dev, logger: log}

	if name, ret := dev.GetName(); ret == nvml.SUCCESS {
		g.name = name
		log.Info().Msgf("Detected GPU: %v", name)
	} else {
		log.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
	}

	return g, nil
}

// Name returns the device's marketing name, empty if NVML did not
// report one.
func (g *NVML) Name() string {
	return g.name
}

// Read queries the device once. Any failing query fails the whole read
// so a snapshot never carries a partial GPU block.
func (g *NVML) Read() (metrics.GPUMetrics, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.device == nil {
		return metrics.GPUMetrics{}, errors.New(ErrNotInitialized)
	}

	temperature, err := readTemperature(g.device)
	if err != nil {
		return metrics.GPUMetrics{}, err
	}

	fanSpeed, err := readFanSpeed(g.device)
	if err != nil {
		return metrics.GPUMetrics{}, err
	}

	power, err := readPower(g.device)
	if err != nil {
		return metrics.GPUMetrics{}, err
	}

	utilization, err := readUtilization(g.device)
	if err != nil {
		return metrics.GPUMetrics{}, err
	}

	return metrics.GPUMetrics{
		Temperature: temperature,
		FanSpeed:    fanSpeed,
		Power:       power,
		Utilization: utilization,
	}, nil
}

func (g *NVML) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.device = nil

	return g.ctl.Shutdown()
}

type noop struct{}

// Noop returns a Probe for hosts without a GPU or with GPU reporting
// disabled.
func Noop() Probe {
	return noop{}
}

func (noop) Read() (metrics.GPUMetrics, error) {
	return metrics.GPUMetrics{}, errors.New(ErrUnavailable)
}

func (noop) Shutdown() error {
	return nil
}
