package gpu

import (
	"codeberg.org/mutker/scrapster/internal/metrics"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Probe reads the state of one NVIDIA GPU.
type Probe interface {
	Read() (metrics.GPUMetrics, error)
	Shutdown() error
}

// device is the subset of nvml.Device the probe reads from.
type device interface {
	GetName() (string, nvml.Return)
	GetTemperature(sensor nvml.TemperatureSensors) (uint32, nvml.Return)
	GetNumFans() (int, nvml.Return)
	GetFanSpeed_v2(fan int) (uint32, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
}
