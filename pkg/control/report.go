package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/algaemon/pkg/sensor"
)

// Diagnostics line format, one line per Report:
//
//	uptime_ms,temp_decideg,ph_centi,mode,air
//	12000,253,700,T,1
const reportFields = 5

// AppendLine appends the diagnostics line of r, including the trailing
// newline, to dst.
func (r Report) AppendLine(dst []byte) []byte {
	dst = strconv.AppendInt(dst, r.Uptime.Milliseconds(), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(math32.Round(r.Values.Temperature*10)), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(math32.Round(r.Values.PH*100)), 10)
	dst = append(dst, ',', r.Mode.Symbol(), ',')
	if r.Air {
		dst = append(dst, '1')
	} else {
		dst = append(dst, '0')
	}
	return append(dst, '\n')
}

// ParseReport parses one diagnostics line. Surrounding whitespace is ignored.
func ParseReport(line string) (Report, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != reportFields {
		return Report{}, fmt.Errorf("invalid line format: expected %d comma-separated values, got %d", reportFields, len(parts))
	}

	uptime, err := strconv.ParseUint(parts[0], 10, 63)
	if err != nil {
		return Report{}, fmt.Errorf("invalid uptime: %w", err)
	}

	deci, err := strconv.ParseInt(parts[1], 10, 16)
	if err != nil {
		return Report{}, fmt.Errorf("invalid temperature: %w", err)
	}

	centi, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return Report{}, fmt.Errorf("invalid pH: %w", err)
	}
	if centi > 1400 {
		return Report{}, fmt.Errorf("pH out of range: %d (max 1400)", centi)
	}

	var mode Mode
	switch parts[3] {
	case "T":
		mode = Temperature
	case "P":
		mode = PH
	default:
		return Report{}, fmt.Errorf("invalid mode %q", parts[3])
	}

	var air bool
	switch parts[4] {
	case "0":
	case "1":
		air = true
	default:
		return Report{}, fmt.Errorf("invalid air state %q", parts[4])
	}

	return Report{
		Uptime: time.Duration(uptime) * time.Millisecond,
		Values: sensor.Values{
			Temperature: float32(deci) / 10,
			PH:          float32(centi) / 100,
		},
		Mode: mode,
		Air:  air,
	}, nil
}
