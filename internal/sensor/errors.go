package sensor

import "codeberg.org/mutker/scrapster/internal/errors"

const (
	ErrUnavailable   = errors.ErrorCode("sensor_unavailable")
	ErrHostInit      = errors.ErrorCode("sensor_host_init_failed")
	ErrPinNotFound   = errors.ErrorCode("sensor_pin_not_found")
	ErrPWMFailed     = errors.ErrorCode("sensor_pwm_failed")
	ErrTachFailed    = errors.ErrorCode("sensor_tach_failed")
	ErrAmbientRead   = errors.ErrorCode("sensor_ambient_read_failed")
	ErrAmbientAbsent = errors.ErrorCode("sensor_ambient_not_found")
	ErrClosed        = errors.ErrorCode("sensor_closed")
)
