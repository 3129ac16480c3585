package blebox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColorMode is the wire encoding a light unit uses. The values match the
// "colorMode" field reported by wLightBox firmware.
type ColorMode int

// Colour modes.
const (
	ColorModeRGBW   ColorMode = 1
	ColorModeRGB    ColorMode = 2
	ColorModeMono   ColorMode = 3
	ColorModeRGBorW ColorMode = 4 // RGBW with white priority
	ColorModeCT     ColorMode = 5
	ColorModeCTx2   ColorMode = 6 // two CT instances on one wire string
	ColorModeRGBWW  ColorMode = 7 // R, G, B, warm, cold
)

const (
	channelMax       = 255
	temperatureMid   = 128
	temperatureSpan  = 127
	temperatureSteps = 2
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeRGBW:
		return "RGBW"
	case ColorModeRGB:
		return "RGB"
	case ColorModeMono:
		return "MONO"
	case ColorModeRGBorW:
		return "RGBorW"
	case ColorModeCT:
		return "CT"
	case ColorModeCTx2:
		return "CTx2"
	case ColorModeRGBWW:
		return "RGBWW"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
}

// Channels returns how many one-byte channels one instance owns in this mode.
func (m ColorMode) Channels() int {
	switch m {
	case ColorModeMono:
		return 1
	case ColorModeCT, ColorModeCTx2:
		return 2
	case ColorModeRGB:
		return 3
	case ColorModeRGBW, ColorModeRGBorW:
		return 4
	case ColorModeRGBWW:
		return 5
	default:
		return 0
	}
}

// Valid reports whether m is a known mode.
func (m ColorMode) Valid() bool { return m.Channels() > 0 }

// HasColor reports whether the mode carries R, G and B channels.
func (m ColorMode) HasColor() bool {
	switch m {
	case ColorModeRGB, ColorModeRGBW, ColorModeRGBorW, ColorModeRGBWW:
		return true
	}
	return false
}

// HasWhite reports whether the mode carries a single white channel.
func (m ColorMode) HasWhite() bool {
	return m == ColorModeRGBW || m == ColorModeRGBorW
}

// HasColorTemp reports whether the mode carries a warm/cold pair.
func (m ColorMode) HasColorTemp() bool {
	return m == ColorModeCT || m == ColorModeCTx2 || m == ColorModeRGBWW
}

// ctOffset is the index of the warm channel for modes with a CT pair.
func (m ColorMode) ctOffset() int {
	if m == ColorModeRGBWW {
		return 3
	}
	return 0
}

// brightnessChannels lists the channels that carry the light level.
//
// RGBorW follows the white channel when white is lit, since the hardware
// then ignores RGB. RGBWW follows RGB unless only the CT pair is lit.
func (m ColorMode) brightnessChannels(ch []int) []int {
	switch m {
	case ColorModeMono:
		return []int{0}
	case ColorModeCT, ColorModeCTx2:
		return []int{0, 1}
	case ColorModeRGB:
		return []int{0, 1, 2}
	case ColorModeRGBW:
		return []int{0, 1, 2, 3}
	case ColorModeRGBorW:
		if ch[3] > 0 {
			return []int{3}
		}
		return []int{0, 1, 2}
	case ColorModeRGBWW:
		if maxOf(ch[:3]) == 0 && maxOf(ch[3:5]) > 0 {
			return []int{3, 4}
		}
		return []int{0, 1, 2}
	}
	return nil
}

// ParseChannels decodes a hex string into one value per byte.
func ParseChannels(hex string) ([]int, error) {
	if len(hex)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has odd length", ErrBadValue, hex)
	}
	channels := make([]int, len(hex)/2)
	for i := range channels {
		n, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not hex", ErrBadValue, hex)
		}
		channels[i] = int(n)
	}
	return channels, nil
}

// FormatChannels encodes channel values as lower-case hex.
func FormatChannels(channels []int) string {
	var b strings.Builder
	for _, c := range channels {
		fmt.Fprintf(&b, "%02x", clampChannel(c))
	}
	return b.String()
}

// WarmColdToTemperature converts a (warm, cold) pair into a 0..255 colour
// temperature and a level.
//
// Equal bytes give 128. When cold dominates the temperature falls from 128
// towards 0 with the warm/cold ratio; when warm dominates it rises from 128
// towards 255 with the inverse ratio. The level is the larger byte.
func WarmColdToTemperature(warm, cold int) (temperature, level int) {
	level = max(warm, cold)
	switch {
	case warm == cold:
		temperature = temperatureMid
	case cold > warm:
		temperature = int(math.Round(temperatureMid * float64(warm) / float64(cold)))
	default:
		temperature = int(math.Round(temperatureMid + temperatureSpan*(1-float64(cold)/float64(warm))))
	}
	return temperature, level
}

// TemperatureToWarmCold converts a 0..255 colour temperature and a 0..255
// brightness into a (warm, cold) pair.
//
// Below 128 cold is full and warm is 2×temperature; from 128 warm is full and
// cold is 255-2×(temperature-128), reaching 0 at 255. Both bytes are then
// scaled by brightness/255.
func TemperatureToWarmCold(temperature, brightness int) (warm, cold int) {
	if temperature < temperatureMid {
		warm = min(channelMax, temperatureSteps*temperature)
		cold = channelMax
	} else {
		warm = channelMax
		cold = max(0, channelMax-temperatureSteps*(temperature-temperatureMid))
		if temperature >= channelMax {
			cold = 0
		}
	}
	return scaleChannel(warm, brightness), scaleChannel(cold, brightness)
}

// NormalizeChannels scales channels so the largest becomes 255. All-zero
// input is treated as full scale.
func NormalizeChannels(channels []int) []int {
	out := make([]int, len(channels))
	peak := maxOf(channels)
	for i, c := range channels {
		if peak == 0 {
			out[i] = channelMax
			continue
		}
		out[i] = int(math.Round(float64(c) * channelMax / float64(peak)))
	}
	return out
}

// ScaleChannels multiplies each channel by brightness/255, rounding to the
// nearest integer.
func ScaleChannels(channels []int, brightness int) []int {
	out := make([]int, len(channels))
	for i, c := range channels {
		out[i] = scaleChannel(c, brightness)
	}
	return out
}

func scaleChannel(c, brightness int) int {
	return clampChannel(int(math.Round(float64(c) * float64(brightness) / channelMax)))
}

func clampChannel(c int) int {
	return min(channelMax, max(0, c))
}

func maxOf(channels []int) int {
	peak := 0
	for _, c := range channels {
		peak = max(peak, c)
	}
	return peak
}

// allZero reports whether a hex fragment encodes only zero channels.
func allZero(hex string) bool {
	return strings.Trim(hex, "0") == ""
}
