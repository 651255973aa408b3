package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateTimeLayout is the layout written for every timestamp (local time).
const DateTimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in local time using DateTimeLayout.
func FormatTime(t time.Time) string {
	return t.In(time.Local).Format(DateTimeLayout)
}

// ParseTime accepts DateTimeLayout, integer milliseconds since the epoch
// (older files), and finally anything the generic date parser understands.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.ParseInLocation(DateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).In(time.Local), nil
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// NormalizeColor keeps "#..." values verbatim and converts legacy ARGB
// integers (signed or unsigned 32 bit) to #rrggbb.
func NormalizeColor(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "#") {
		return v
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	return ARGBToHex(n)
}

// ARGBToHex drops the alpha byte of an ARGB color.
func ARGBToHex(c int64) string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true")
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
