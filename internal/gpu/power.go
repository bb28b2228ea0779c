package gpu

import "codeberg.org/mutker/scrapster/internal/errors"

const milliWattsToWatts = 1000

// readPower returns the board power draw in watts, 0 where the board
// does not meter it.
func readPower(dev device) (float64, error) {
	usage, ret := dev.GetPowerUsage()
	if isNotSupported(ret) {
		return 0, nil
	}
	if !IsNVMLSuccess(ret) {
		return 0, errors.Wrap(ErrPowerUsageFailed, newNVMLError(ret))
	}

	return float64(usage) / milliWattsToWatts, nil
}

func readUtilization(dev device) (float64, error) {
	util, ret := dev.GetUtilizationRates()
	if isNotSupported(ret) {
		return 0, nil
	}
	if !IsNVMLSuccess(ret) {
		return 0, errors.Wrap(ErrUtilizationFailed, newNVMLError(ret))
	}

	return float64(util.Gpu), nil
}
