package collector

import (
	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/gpu"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/sensor"
)

// health logs each source's failures once. Repeats go to debug and a
// recovery is logged at info.
type health struct {
	logger  logger.Logger
	failing map[string]bool
}

func newHealth(log logger.Logger) *health {
	return &health{logger: log, failing: map[string]bool{}}
}

// observe records the outcome of reading name and reports whether the
// reading can be used.
func (h *health) observe(name string, err error) bool {
	if err == nil {
		if h.failing[name] {
			delete(h.failing, name)
			h.logger.Info().Str("source", name).Msg("Source recovered")
		}
		return true
	}

	if h.failing[name] {
		h.logger.Debug().Str("source", name).Err(err).Msg("Source still failing")
		return false
	}
	h.failing[name] = true

	if isAbsent(err) {
		h.logger.Info().Str("source", name).Msg("Source not available, field omitted")
		return false
	}

	h.logger.Warn().
		Str("source", name).
		Str("error_code", string(errors.CodeOf(err))).
		Err(err).
		Msg("Source read failed")

	return false
}

func isAbsent(err error) bool {
	return errors.HasCode(err, sensor.ErrUnavailable) ||
		errors.HasCode(err, sensor.ErrAmbientAbsent) ||
		errors.HasCode(err, gpu.ErrUnavailable)
}
