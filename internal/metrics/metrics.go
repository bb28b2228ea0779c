package metrics

import "github.com/rs/zerolog"

// MarshalZerologObject writes the snapshot with the field names of the
// published schema.
func (s Snapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("timestamp", float64(s.Timestamp.UnixNano())/1e9).
		Float64("cpu_usage_percent", s.CPU.Usage).
		Float64("cpu_user_percent", s.CPU.User).
		Float64("cpu_nice_percent", s.CPU.Nice).
		Float64("cpu_system_percent", s.CPU.System).
		Float64("cpu_idle_percent", s.CPU.Idle).
		Float64("cpu_iowait_percent", s.CPU.IOWait).
		Float64("cpu_irq_percent", s.CPU.IRQ).
		Float64("cpu_softirq_percent", s.CPU.SoftIRQ).
		Float64("cpu_steal_percent", s.CPU.Steal).
		Uint64("run_queue_length", s.CPU.RunQueue).
		Float64("context_switches_per_sec", s.CPU.ContextSwitches).
		Float64("cpu_temp_celsius", s.CPU.Temperature).
		Uint32("throttle_status", s.CPU.Throttle).
		Uint64("mem_total_bytes", s.Memory.Total).
		Uint64("mem_used_bytes", s.Memory.Used).
		Float64("page_faults_minor_per_sec", s.Memory.MinorFaults).
		Float64("page_faults_major_per_sec", s.Memory.MajorFaults).
		Uint64("uptime_seconds", s.Uptime).
		Float64("load_avg_1", s.Load.Load1).
		Float64("load_avg_5", s.Load.Load5).
		Float64("load_avg_15", s.Load.Load15).
		Float64("disk_read_bytes_per_sec", s.Disk.Read).
		Float64("disk_write_bytes_per_sec", s.Disk.Write).
		Float64("net_rx_bytes_per_sec", s.Network.Receive).
		Float64("net_tx_bytes_per_sec", s.Network.Transmit)

	optional(e, "fan_rpm", s.Sensors.FanRPM)
	optional(e, "env_temp_celsius", s.Sensors.AmbientTemperature)
	optional(e, "env_humidity_percent", s.Sensors.AmbientHumidity)
	optional(e, "pwm_duty_percent", s.Sensors.PWMDuty)

	if s.GPU != nil {
		e.Float64("gpu_temp_celsius", s.GPU.Temperature).
			Float64("gpu_fan_percent", s.GPU.FanSpeed).
			Float64("gpu_power_watts", s.GPU.Power).
			Float64("gpu_utilization_percent", s.GPU.Utilization)
	}
}

func optional(e *zerolog.Event, key string, value *float64) {
	if value != nil {
		e.Float64(key, *value)
	}
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 {
	return &v
}
