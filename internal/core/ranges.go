package core

import (
	"strconv"
	"strings"
)

// Range is an inclusive span of one-based positions. Last < First is empty.
type Range struct {
	First int
	Last  int
}

// ParseRange parses "N" or "A..B" into the inclusive range it names.
func ParseRange(text string) (Range, error) {
	first, last, isRange := strings.Cut(strings.TrimSpace(text), "..")
	lo, err := parseRangeBound(first)
	if err != nil {
		return Range{}, InvalidArgumentf("Invalid number or range: %q", text)
	}
	hi := lo
	if isRange {
		hi, err = parseRangeBound(last)
		if err != nil {
			return Range{}, InvalidArgumentf("Invalid number or range: %q", text)
		}
	}
	return Range{First: lo, Last: hi}, nil
}

func parseRangeBound(text string) (int, error) {
	if text == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(text)
}
