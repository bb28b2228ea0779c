package gpu

import (
	"testing"

	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/metrics"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	temperature uint32
	tempRet     nvml.Return
	fans        []uint32
	fanRet      nvml.Return
	power       uint32
	powerRet    nvml.Return
	util        uint32
}

func (d *fakeDevice) GetName() (string, nvml.Return) {
	return "NVIDIA GeForce RTX 4090", nvml.SUCCESS
}

func (d *fakeDevice) GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return) {
	return d.temperature, d.tempRet
}

func (d *fakeDevice) GetNumFans() (int, nvml.Return) {
	return len(d.fans), d.fanRet
}

func (d *fakeDevice) GetFanSpeed_v2(fan int) (uint32, nvml.Return) {
	return d.fans[fan], nvml.SUCCESS
}

func (d *fakeDevice) GetPowerUsage() (uint32, nvml.Return) {
	return d.power, d.powerRet
}

func (d *fakeDevice) GetUtilizationRates() (nvml.Utilization, nvml.Return) {
	return nvml.Utilization{Gpu: d.util}, nvml.SUCCESS
}

type fakeController struct {
	dev       device
	devErr    error
	shutdowns int
}

func (c *fakeController) Initialize() error { return nil }

func (c *fakeController) Shutdown() error {
	c.shutdowns++
	return nil
}

func (c *fakeController) GetDevice(int) (device, error) {
	return c.dev, c.devErr
}

func TestReadReportsDeviceState(t *testing.T) {
	dev := &fakeDevice{temperature: 61, fans: []uint32{40, 50}, power: 215500, util: 87}
	g, err := newNVML(&fakeController{dev: dev}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA GeForce RTX 4090", g.Name())

	got, err := g.Read()
	require.NoError(t, err)
	assert.Equal(t, metrics.GPUMetrics{
		Temperature: 61,
		FanSpeed:    45,
		Power:       215.5,
		Utilization: 87,
	}, got)
}

func TestReadTreatsUnsupportedAsZero(t *testing.T) {
	dev := &fakeDevice{
		temperature: 45,
		fanRet:      nvml.ERROR_NOT_SUPPORTED,
		powerRet:    nvml.ERROR_NOT_SUPPORTED,
	}
	g, err := newNVML(&fakeController{dev: dev}, logger.Nop())
	require.NoError(t, err)

	got, err := g.Read()
	require.NoError(t, err)
	assert.Equal(t, 45.0, got.Temperature)
	assert.Zero(t, got.FanSpeed)
	assert.Zero(t, got.Power)
}

func TestReadFailsWhole(t *testing.T) {
	dev := &fakeDevice{tempRet: nvml.ERROR_GPU_IS_LOST}
	g, err := newNVML(&fakeController{dev: dev}, logger.Nop())
	require.NoError(t, err)

	got, err := g.Read()
	assert.True(t, errors.HasCode(err, ErrTemperatureReadFailed))
	assert.Equal(t, metrics.GPUMetrics{}, got)
}

func TestNewShutsDownWhenNoDevice(t *testing.T) {
	ctl := &fakeController{devErr: errors.New(ErrDeviceNotFound)}

	_, err := newNVML(ctl, logger.Nop())
	assert.True(t, errors.HasCode(err, ErrDeviceNotFound))
	assert.Equal(t, 1, ctl.shutdowns)
}

func TestReadAfterShutdown(t *testing.T) {
	ctl := &fakeController{dev: &fakeDevice{}}
	g, err := newNVML(ctl, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, g.Shutdown())
	_, err = g.Read()
	assert.True(t, errors.HasCode(err, ErrNotInitialized))
}

func TestNoop(t *testing.T) {
	p := Noop()

	_, err := p.Read()
	assert.True(t, errors.HasCode(err, ErrUnavailable))
	assert.NoError(t, p.Shutdown())
}
