package viz

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatValue formats a Row value for display. Nil is empty, numbers
// carry thousands separators with at most three decimals, and times are
// formatted as dates.
func FormatValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case int64:
		return humanize.Comma(vv)
	case int:
		return humanize.Comma(int64(vv))
	case float64:
		return formatFloat(vv)
	case float32:
		return formatFloat(float64(vv))
	case time.Time:
		return vv.Format("2006-01-02")
	case []byte:
		return string(vv)
	case string:
		return vv
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	// Round, rather than truncate, to three decimals.
	return humanize.Commaf(math.Round(f*1000) / 1000)
}

// toFloat parses |v| as a float64, as coordinates are parsed.
func toFloat(v interface{}) (float64, bool) {
	var f float64

	switch vv := v.(type) {
	case int64:
		f = float64(vv)
	case int:
		f = float64(vv)
	case float64:
		f = vv
	case float32:
		f = float64(vv)
	case string:
		var err error
		if f, err = strconv.ParseFloat(vv, 64); err != nil {
			return 0, false
		}
	case []byte:
		var err error
		if f, err = strconv.ParseFloat(string(vv), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
