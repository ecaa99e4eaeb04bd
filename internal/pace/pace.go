// Package pace handles athlete pace profiles: per-category seconds-per-km
// values, mm:ss parsing, and the mapping from a block's pace key to the
// category used for volume bucketing.
package pace

import (
	"fmt"
	"strconv"
	"strings"
)

// Pace categories used to bucket running volume by intensity.
const (
	CategoryEF       = "ef"
	CategorySeuil    = "seuil"
	CategoryMarathon = "marathon"
	Category5K       = "allure5k"
	Category1500     = "allure1500"
)

// Profile maps pace keys to seconds per unit. Category keys (ef, seuil,
// marathon) hold seconds per km; interval keys (i400, r200, ...) hold the
// target time for that interval distance. Read-only to the plan core.
type Profile map[string]int

// SecondsPerKm returns the seconds-per-km value for a pace key, or 0 when
// the key is unknown or not a per-km category.
func (p Profile) SecondsPerKm(key string) int {
	if p == nil {
		return 0
	}
	return p[key]
}

// Category resolves a block's pace key to its volume-bucketing category:
// recovery intervals (r*) count as 1500m pace work, timed intervals (i*) as
// 5k pace work, and the literal categories map to themselves. Unknown keys
// have no category.
func Category(key string) string {
	switch {
	case key == "":
		return ""
	case strings.HasPrefix(key, "r"):
		return Category1500
	case strings.HasPrefix(key, "i"):
		return Category5K
	case key == CategoryEF, key == CategorySeuil, key == CategoryMarathon:
		return key
	default:
		return ""
	}
}

// ParseMinSec parses a "mm:ss" duration into seconds. A bare number is
// taken as minutes. Returns 0, false for anything unparsable — pace strings
// come from free-form user input and the core is permissive on read.
func ParseMinSec(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		min, err := strconv.Atoi(parts[0])
		if err != nil || min < 0 {
			return 0, false
		}
		return min * 60, true
	case 2:
		min, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || min < 0 || sec < 0 || sec > 59 {
			return 0, false
		}
		return min*60 + sec, true
	default:
		return 0, false
	}
}

// FormatMinSec renders seconds as "m:ss". Negative input renders as "0:00".
func FormatMinSec(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ParseKm parses a kilometre magnitude from free-form input, accepting a
// comma decimal separator. Returns 0, false when absent or unparsable.
func ParseKm(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	km, err := strconv.ParseFloat(s, 64)
	if err != nil || km < 0 {
		return 0, false
	}
	return km, true
}
