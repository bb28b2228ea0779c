package metrics

import "time"

// Snapshot is one fully assembled sample. Snapshots are published by
// value and must not be modified after publication; the optional
// fields point at values owned by the snapshot.
type Snapshot struct {
	Timestamp time.Time
	CPU       CPUMetrics
	Memory    MemoryMetrics
	Load      LoadMetrics
	Uptime    uint64 // seconds
	Disk      DiskMetrics
	Network   NetworkMetrics
	Sensors   SensorMetrics
	GPU       *GPUMetrics
}

// CPUMetrics holds per-interval CPU time shares in percent. The mode
// fields (User through Steal) add up to 100 within rounding.
type CPUMetrics struct {
	Usage   float64
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	IOWait  float64
	IRQ     float64
	SoftIRQ float64
	Steal   float64

	RunQueue        uint64
	ContextSwitches float64 // per second
	Temperature     float64 // celsius
	Throttle        uint32  // firmware throttle bits, 0 when unknown
}

type MemoryMetrics struct {
	Total       uint64  // bytes
	Used        uint64  // bytes
	MinorFaults float64 // per second
	MajorFaults float64 // per second
}

type LoadMetrics struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// DiskMetrics is summed over whole block devices, bytes per second.
type DiskMetrics struct {
	Read  float64
	Write float64
}

// NetworkMetrics is summed over non-loopback interfaces, bytes per second.
type NetworkMetrics struct {
	Receive  float64
	Transmit float64
}

// SensorMetrics fields are nil when the reading was not taken.
type SensorMetrics struct {
	FanRPM             *float64
	AmbientTemperature *float64
	AmbientHumidity    *float64
	PWMDuty            *float64
}

// GPUMetrics is the first NVIDIA device's state.
type GPUMetrics struct {
	Temperature float64 // celsius
	FanSpeed    float64 // percent
	Power       float64 // watts
	Utilization float64 // percent
}

// HasSensors reports whether any optional sensor field is present.
func (s SensorMetrics) HasSensors() bool {
	return s.FanRPM != nil || s.AmbientTemperature != nil || s.AmbientHumidity != nil || s.PWMDuty != nil
}
