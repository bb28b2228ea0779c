package errors

// Common error codes. Packages declare their own codes next to the code
// that raises them.
const (
	ErrInternal         ErrorCode = "internal_error"
	ErrInvalidArgument  ErrorCode = "invalid_argument"
	ErrUnavailable      ErrorCode = "service_unavailable"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Configuration
	ErrInvalidConfig       ErrorCode = "invalid_configuration"
	ErrReadConfig          ErrorCode = "read_config_failed"
	ErrBindFlags           ErrorCode = "bind_flags_failed"
	ErrInvalidInterval     ErrorCode = "invalid_interval"
	ErrInvalidLogLevel     ErrorCode = "invalid_log_level"
	ErrInvalidBacklog      ErrorCode = "invalid_backlog"
	ErrInvalidSensorConfig ErrorCode = "invalid_sensor_config"
	ErrInvalidReadTimeout  ErrorCode = "invalid_read_timeout"

	// Lifecycle
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:            "Internal error occurred",
	ErrInvalidArgument:     "Invalid argument provided",
	ErrUnavailable:         "Service unavailable",
	ErrTimeout:             "Operation timed out",
	ErrInvalidOperation:    "Invalid operation",
	ErrInvalidConfig:       "Invalid configuration",
	ErrReadConfig:          "Failed to read configuration",
	ErrBindFlags:           "Failed to bind flags",
	ErrInvalidInterval:     "Invalid interval value",
	ErrInvalidLogLevel:     "Invalid log level",
	ErrInvalidBacklog:      "Invalid subscriber backlog",
	ErrInvalidSensorConfig: "Invalid sensor configuration",
	ErrInvalidReadTimeout:  "Invalid read timeout",
	ErrInitFailed:          "Initialization failed",
	ErrShutdownFailed:      "Shutdown failed",
	ErrAlreadyRunning:      "Another instance is already running",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
