// Package formatting converts byte sizes to and from text and recovers JSON
// from model output.
package formatting

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// prefixes are base-1024 magnitudes, indexed by power.
var prefixes = []string{"", "K", "M", "G", "T", "P", "E"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one, for example "1.5 MB". Values under 1 KB render as whole bytes.
func FormatBytes(n int64, precision int) string {
	if n < 1024 && n > -1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	size := float64(n)
	power := 0
	for (size >= 1024 || size <= -1024) && power < len(prefixes)-1 {
		size /= 1024
		power++
	}
	return strconv.FormatFloat(size, 'f', max(precision, 0), 64) + " " + prefixes[power] + "B"
}

// ParseBytes reads sizes such as "50MB", "1.5 gb", "512K", "2KiB" or a bare
// byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	num := strings.TrimRightFunc(s, unicode.IsLetter)
	unit := strings.ToUpper(s[len(num):])
	num = strings.TrimSpace(num)

	if num == "" {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	unit = strings.TrimSuffix(strings.TrimSuffix(unit, "B"), "I")
	power := slices.Index(prefixes, unit)
	if power < 0 {
		return 0, fmt.Errorf("unknown byte size unit in %q", s)
	}

	for range power {
		value *= 1024
	}
	return int64(value), nil
}
