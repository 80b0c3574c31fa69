package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParsePage reads a 1-indexed page number. Missing or invalid input is page 1.
func ParsePage(s string) int {
	if p := StringToInt(s); p > 1 {
		return p
	}
	return 1
}
