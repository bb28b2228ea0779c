package gpu

import (
	"codeberg.org/mutker/scrapster/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// readFanSpeed returns the mean duty of all fans in percent. Boards
// without fans report 0.
func readFanSpeed(dev device) (float64, error) {
	errFactory := errors.NewFactory()

	count, ret := dev.GetNumFans()
	if isNotSupported(ret) {
		return 0, nil
	}
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrFanCountFailed, newNVMLError(ret))
	}
	if count == 0 {
		return 0, nil
	}

	var total uint32
	for i := 0; i < count; i++ {
		speed, ret := dev.GetFanSpeed_v2(i)
		if !IsNVMLSuccess(ret) {
			return 0, errFactory.Wrap(ErrGetFanSpeedFailed, newNVMLError(ret)).WithData(i)
		}
		total += speed
	}

	return float64(total) / float64(count), nil
}

func readTemperature(dev device) (float64, error) {
	temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return 0, errors.Wrap(ErrTemperatureReadFailed, newNVMLError(ret))
	}

	return float64(temp), nil
}
