package collector

import (
	"context"

	"codeberg.org/mutker/scrapster/internal/metrics"
)

// Names under which sources are tracked by health.
const (
	sourceCPU     = "cpu"
	sourceMemory  = "memory"
	sourceLoad    = "load"
	sourceUptime  = "uptime"
	sourceDisk    = "disk"
	sourceNetwork = "network"
	sourceThermal = "thermal"
	sourceFan     = "fan"
	sourceAmbient = "ambient"
	sourcePWM     = "pwm"
	sourceGPU     = "gpu"
)

// sample runs one tick: it queries every reader in turn, diffs the
// counters against st, replaces st and returns the assembled snapshot.
// A failing reader leaves its fields at zero, or absent for optional
// fields, and never aborts the tick.
func (c *Collector) sample(ctx context.Context, st *state) metrics.Snapshot {
	elapsed := c.cfg.Interval.Seconds()
	var snap metrics.Snapshot

	cpu, err := c.reader.CPU(ctx)
	if c.health.observe(sourceCPU, err) {
		if st.cpuBase != baselineLost {
			snap.CPU = CPUPercentages(st.cpu.Times, cpu.Times)
			snap.CPU.ContextSwitches = Counter(st.cpu.ContextSwitches, cpu.ContextSwitches, elapsed)
		}
		snap.CPU.RunQueue = cpu.RunQueue
		st.cpu, st.cpuBase = cpu, baselineSet
	} else {
		st.cpuBase = baselineLost
	}

	memory, err := c.reader.Memory(ctx)
	if c.health.observe(sourceMemory, err) {
		snap.Memory.Total = memory.Total
		snap.Memory.Used = memory.Used
		if st.memoryBase != baselineLost {
			snap.Memory.MinorFaults = Counter(st.memory.MinorFaults, memory.MinorFaults, elapsed)
			snap.Memory.MajorFaults = Counter(st.memory.MajorFaults, memory.MajorFaults, elapsed)
		}
		st.memory, st.memoryBase = memory, baselineSet
	} else {
		st.memoryBase = baselineLost
	}

	load, err := c.reader.Load(ctx)
	if c.health.observe(sourceLoad, err) {
		snap.Load = metrics.LoadMetrics{Load1: load.Load1, Load5: load.Load5, Load15: load.Load15}
	}

	uptime, err := c.reader.Uptime(ctx)
	if c.health.observe(sourceUptime, err) {
		snap.Uptime = uptime
	}

	disks, err := c.reader.Disks(ctx)
	if c.health.observe(sourceDisk, err) {
		snap.Disk.Read, snap.Disk.Write = IORates(st.disks, disks, st.disksBase, elapsed)
		st.disks, st.disksBase = disks, baselineSet
	} else {
		st.disksBase = baselineLost
	}

	ifaces, err := c.reader.Interfaces(ctx)
	if c.health.observe(sourceNetwork, err) {
		snap.Network.Receive, snap.Network.Transmit = IORates(st.ifaces, ifaces, st.ifacesBase, elapsed)
		st.ifaces, st.ifacesBase = ifaces, baselineSet
	} else {
		st.ifacesBase = baselineLost
	}

	// The throttle code is valid even when no temperature sensor exists.
	thermal, err := c.reader.Thermal(ctx)
	snap.CPU.Throttle = thermal.Throttle
	if c.health.observe(sourceThermal, err) {
		snap.CPU.Temperature = thermal.Temperature
	}

	snap.Sensors = c.pollSensors(elapsed)

	if reading, err := c.gpu.Read(); c.health.observe(sourceGPU, err) {
		snap.GPU = &reading
	}

	snap.Timestamp = nextTimestamp(c.clock.Now(), st.at)
	st.at = snap.Timestamp

	return snap
}

func (c *Collector) pollSensors(elapsed float64) metrics.SensorMetrics {
	var out metrics.SensorMetrics

	if pulses, err := c.sensors.TakePulses(); c.health.observe(sourceFan, err) {
		out.FanRPM = metrics.Float(RPM(pulses, c.cfg.PulsesPerRevolution, elapsed))
	}

	if ambient, err := c.sensors.ReadAmbient(); c.health.observe(sourceAmbient, err) {
		out.AmbientTemperature = metrics.Float(ambient.Temperature)
		out.AmbientHumidity = metrics.Float(ambient.Humidity)
	}

	if duty, err := c.sensors.DutyPercent(); c.health.observe(sourcePWM, err) {
		out.PWMDuty = metrics.Float(duty)
	}

	return out
}
