package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// pageRangePattern matches "123-145" and electronic locators like "e123-e145".
var pageRangePattern = regexp.MustCompile(`(?:[eE])?(\d+)\s*[-–]\s*(?:[eE])?(\d+)`)

// singlePagePattern matches a lone page token such as "42" or "e1001".
var singlePagePattern = regexp.MustCompile(`^(?:[eE])?\d+$`)

// ParsePageRange returns the number of pages in a raw page range.
// "123-145" yields 23, a single page yields 1 and anything else yields 0.
// Reversed ranges count as a single page.
func ParsePageRange(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	if m := pageRangePattern.FindStringSubmatch(raw); m != nil {
		start, errStart := strconv.Atoi(m[1])
		end, errEnd := strconv.Atoi(m[2])
		if errStart != nil || errEnd != nil {
			return 0
		}
		return max(1, end-start+1)
	}

	if singlePagePattern.MatchString(raw) {
		return 1
	}
	return 0
}
