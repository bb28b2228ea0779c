package source

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/scrapster/internal/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

const (
	// gopsutil reports CPU time in seconds scaled by USER_HZ, which is
	// 100 on every Linux ABI we run on. Converting back gives whole ticks.
	clockTicks = 100

	defaultSysRoot  = "/sys"
	throttledSysfs  = "devices/platform/soc/soc:firmware/get_throttled"
	thermalZoneTemp = "class/thermal/thermal_zone0/temp"
	loopbackName    = "lo"
)

// Preferred CPU temperature sensors, most specific first.
var cpuSensorKeys = []string{
	"cpu_thermal",
	"coretemp_package_id_0",
	"k10temp_tctl",
	"k10temp_tdie",
	"soc_thermal",
	"acpitz",
}

// Procfs reads host counters through gopsutil and sysfs. Every read is
// bounded by the configured timeout.
type Procfs struct {
	timeout time.Duration
	sysRoot string

	vcgencmdOnce sync.Once
	vcgencmd     string
}

// NewProcfs returns a reader whose calls give up after timeout.
func NewProcfs(timeout time.Duration) *Procfs {
	return &Procfs{timeout: timeout, sysRoot: defaultSysRoot}
}

func (p *Procfs) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// CPU returns aggregate CPU times, the context switch counter and the
// number of runnable tasks.
func (p *Procfs) CPU(ctx context.Context) (CPUStat, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUStat{}, errors.Wrap(ErrReadCPU, err)
	}
	if len(times) == 0 {
		return CPUStat{}, errors.New(ErrNoCPU)
	}

	misc, err := load.MiscWithContext(ctx)
	if err != nil {
		return CPUStat{}, errors.Wrap(ErrReadCPU, err)
	}

	return CPUStat{
		Times:           cpuTimes(times[0]),
		ContextSwitches: nonNegative(misc.Ctxt),
		RunQueue:        nonNegative(misc.ProcsRunning),
	}, nil
}

func cpuTimes(t cpu.TimesStat) CPUTimes {
	return CPUTimes{
		User:    ticks(t.User),
		Nice:    ticks(t.Nice),
		System:  ticks(t.System),
		Idle:    ticks(t.Idle),
		IOWait:  ticks(t.Iowait),
		IRQ:     ticks(t.Irq),
		SoftIRQ: ticks(t.Softirq),
		Steal:   ticks(t.Steal),
	}
}

func ticks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * clockTicks))
}

func nonNegative(v int) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// Memory returns RAM totals and cumulative page faults from
// /proc/vmstat. pgfault counts every fault, so major faults are
// subtracted to get minor ones.
func (p *Procfs) Memory(ctx context.Context) (Memory, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, errors.Wrap(ErrReadMemory, err)
	}

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, errors.Wrap(ErrReadMemory, err)
	}

	minor := uint64(0)
	if swap.PgFault > swap.PgMajFault {
		minor = swap.PgFault - swap.PgMajFault
	}

	return Memory{
		Total:       vm.Total,
		Used:        vm.Used,
		MinorFaults: minor,
		MajorFaults: swap.PgMajFault,
	}, nil
}

func (p *Procfs) Load(ctx context.Context) (Load, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return Load{}, errors.Wrap(ErrReadLoad, err)
	}

	return Load{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

func (p *Procfs) Uptime(ctx context.Context) (uint64, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(ErrReadUptime, err)
	}

	return uptime, nil
}

// Disks returns cumulative bytes per whole block device. Partitions,
// loop and ram devices are skipped so nothing is counted twice.
func (p *Procfs) Disks(ctx context.Context) (map[string]IOCounter, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	stats, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrReadDisk, err)
	}

	counters := make(map[string]IOCounter, len(stats))
	for name, st := range stats {
		if !p.isWholeDisk(name) {
			continue
		}
		counters[name] = IOCounter{In: st.ReadBytes, Out: st.WriteBytes}
	}

	return counters, nil
}

func (p *Procfs) isWholeDisk(name string) bool {
	if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
		return false
	}
	_, err := os.Stat(filepath.Join(p.sysRoot, "block", name))
	return err == nil
}

// Interfaces returns cumulative bytes per network interface, loopback
// excluded.
func (p *Procfs) Interfaces(ctx context.Context) (map[string]IOCounter, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	stats, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(ErrReadNetwork, err)
	}

	counters := make(map[string]IOCounter, len(stats))
	for _, st := range stats {
		if st.Name == loopbackName {
			continue
		}
		counters[st.Name] = IOCounter{In: st.BytesRecv, Out: st.BytesSent}
	}

	return counters, nil
}

// Thermal returns the CPU temperature and the Raspberry Pi firmware
// throttle bits. A missing throttle source is not an error; it reads 0.
func (p *Procfs) Thermal(ctx context.Context) (Thermal, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	throttle := p.throttled(ctx)

	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if celsius, ok := pickTemperature(temps); ok {
		return Thermal{Temperature: celsius, Throttle: throttle}, nil
	}

	if celsius, zoneErr := readMilli(filepath.Join(p.sysRoot, thermalZoneTemp)); zoneErr == nil {
		return Thermal{Temperature: celsius, Throttle: throttle}, nil
	}

	if err == nil {
		err = errors.New(errors.ErrUnavailable).WithMessage("no temperature sensor")
	}

	return Thermal{Throttle: throttle}, errors.Wrap(ErrReadThermal, err)
}

func pickTemperature(temps []host.TemperatureStat) (float64, bool) {
	byKey := make(map[string]float64, len(temps))
	for _, t := range temps {
		byKey[t.SensorKey] = t.Temperature
	}
	for _, key := range cpuSensorKeys {
		if v, ok := byKey[key]; ok {
			return v, true
		}
	}
	for _, t := range temps {
		if t.Temperature > 0 {
			return t.Temperature, true
		}
	}

	return 0, false
}

func (p *Procfs) throttled(ctx context.Context) uint32 {
	if raw, err := os.ReadFile(filepath.Join(p.sysRoot, throttledSysfs)); err == nil {
		if v, ok := parseThrottled(string(raw)); ok {
			return v
		}
	}

	p.vcgencmdOnce.Do(func() {
		p.vcgencmd, _ = exec.LookPath("vcgencmd")
	})
	if p.vcgencmd == "" {
		return 0
	}

	out, err := exec.CommandContext(ctx, p.vcgencmd, "get_throttled").Output()
	if err != nil {
		return 0
	}

	v, _ := parseThrottled(string(out))
	return v
}

// parseThrottled accepts "throttled=0x50005", "0x50005" and "50005";
// the value is always hexadecimal.
func parseThrottled(raw string) (uint32, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "throttled=")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}

	return uint32(v), true
}

// readMilli reads a sysfs value in thousandths.
func readMilli(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, err
	}

	return v / 1000, nil
}
