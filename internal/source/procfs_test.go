package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThrottled(t *testing.T) {
	tests := []struct {
		raw  string
		want uint32
		ok   bool
	}{
		{"throttled=0x50005\n", 0x50005, true},
		{"0x0", 0, true},
		{"50000\n", 0x50000, true},
		{"throttled=", 0, false},
		{"garbage", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseThrottled(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestPickTemperature(t *testing.T) {
	temps := []host.TemperatureStat{
		{SensorKey: "nvme_composite", Temperature: 38},
		{SensorKey: "coretemp_package_id_0", Temperature: 52},
		{SensorKey: "acpitz", Temperature: 27.8},
	}

	got, ok := pickTemperature(temps)
	require.True(t, ok)
	assert.InDelta(t, 52.0, got, 1e-9, "preferred key wins over order")

	got, ok = pickTemperature([]host.TemperatureStat{{SensorKey: "nvme_composite", Temperature: 38}})
	require.True(t, ok)
	assert.InDelta(t, 38.0, got, 1e-9, "falls back to the first positive reading")

	_, ok = pickTemperature(nil)
	assert.False(t, ok)
}

func TestCPUTimesToTicks(t *testing.T) {
	got := cpuTimes(cpu.TimesStat{
		User: 1234.56, Nice: 0.01, System: 78.9, Idle: 99999.99,
		Iowait: 1.5, Irq: 0, Softirq: 2.25, Steal: -1,
	})

	assert.Equal(t, CPUTimes{
		User: 123456, Nice: 1, System: 7890, Idle: 9999999,
		IOWait: 150, IRQ: 0, SoftIRQ: 225, Steal: 0,
	}, got)
	assert.Equal(t, uint64(123456+1+7890+9999999+150+225), got.Total())
}

func TestIsWholeDisk(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"sda", "nvme0n1", "loop0", "ram0"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "block", name), 0o755))
	}

	p := &Procfs{sysRoot: root}
	assert.True(t, p.isWholeDisk("sda"))
	assert.True(t, p.isWholeDisk("nvme0n1"))
	assert.False(t, p.isWholeDisk("sda1"), "partitions are not listed under /sys/block")
	assert.False(t, p.isWholeDisk("loop0"))
	assert.False(t, p.isWholeDisk("ram0"))
}

func TestReadMilli(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("48312\n"), 0o600))

	got, err := readMilli(path)
	require.NoError(t, err)
	assert.InDelta(t, 48.312, got, 1e-9)

	_, err = readMilli(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
