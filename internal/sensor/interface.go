package sensor

// Sensors is the optional fan and ambient hardware. Each operation
// fails independently; a failed operation means the reading is absent
// for this tick, never that sampling should stop.
type Sensors interface {
	// TakePulses returns the tachometer pulses counted since the
	// previous call and resets the count in the same atomic step.
	TakePulses() (uint64, error)

	// ReadAmbient returns temperature and humidity together, or an
	// error and neither.
	ReadAmbient() (Ambient, error)

	// DutyPercent returns the fan PWM duty cycle, 0-100.
	DutyPercent() (float64, error)

	Close() error
}

// Ambient is one combined temperature/humidity reading.
type Ambient struct {
	Temperature float64 // celsius
	Humidity    float64 // percent relative humidity
}
