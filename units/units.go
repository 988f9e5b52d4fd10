// Package units holds the small pure conversions shared by the prober,
// planner and display layers: clock strings, human-readable sizes and
// midpoint string truncation.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a malformed clock string.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed clock string %q", e.Value)
}

// SecondsToClock converts a non-negative number of seconds to an
// "HH:MM:SS.d" clock string. The fractional part keeps at most the first
// three decimal digits, truncated rather than rounded, and falls back to
// "0" when the input is whole. Hours are not wrapped at 24.
//
//	62.441  -> "00:01:02.441"
//	62.4415 -> "00:01:02.441"
//	102     -> "00:01:42.0"
func SecondsToClock(sec float64) string {
	frac := "0"
	s := strconv.FormatFloat(sec, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		frac = s[dot+1:]
		if len(frac) > 3 {
			frac = frac[:3]
		}
	}
	whole := int64(sec)
	rem := whole % 3600
	return fmt.Sprintf("%02d:%02d:%02d.%s", whole/3600, rem/60, rem%60, frac)
}

// ClockToSeconds parses an "H:M:S.NNN" clock string back to seconds.
// The string must have exactly three colon-separated fields; anything
// else yields a FormatError.
func ClockToSeconds(clock string) (float64, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, &FormatError{Value: clock}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &FormatError{Value: clock}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &FormatError{Value: clock}
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, &FormatError{Value: clock}
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// HumanSize formats a byte count with base-1024 units, two decimals and a
// preserved sign. Values too large for YB come back as the raw integer.
//
//	1023  -> "1023.00B"
//	1024  -> "1.00KB"
//	-2048 -> "-2.00KB"
func HumanSize(n int64) string {
	return HumanSizeBase(n, 1024)
}

// HumanSizeBase is HumanSize with an explicit scaling base.
func HumanSizeBase(n int64, base float64) string {
	sign := ""
	v := float64(n)
	if v < 0 {
		sign = "-"
		v = -v
	}
	for _, u := range sizeUnits {
		if v/base < 1 {
			return fmt.Sprintf("%s%.2f%s", sign, v, u)
		}
		v /= base
	}
	return strconv.FormatInt(n, 10)
}

// BitrateLabel renders a bits/second value as the short "NNNNkb/s" form
// used in plan descriptions.
func BitrateLabel(bps int64) string {
	return fmt.Sprintf("%dkb/s", bps/1000)
}

// Shorten trims s to at most maxLen characters, replacing the middle with
// placeholder. When the budget cannot fit the placeholder the string is
// hard-truncated instead.
//
//	Shorten("123456789", 5, "...") -> "1...9"
//	Shorten("123456789", 6, "...") -> "1...89"
//	Shorten("123456789", 7, "...") -> "12...89"
//	Shorten("123456789", 3, "...") -> "123"
//	Shorten("123456789", 0, "...") -> ""
func Shorten(s string, maxLen int, placeholder string) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(placeholder) {
		return s[:maxLen]
	}
	remaining := maxLen - len(placeholder)
	head := remaining / 2
	tail := remaining - head
	return s[:head] + placeholder + s[len(s)-tail:]
}
