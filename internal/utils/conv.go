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

// ParsePage reads limit/offset query values, falling back to defaults
// for missing or junk input. Offset never goes negative.
func ParsePage(limitStr, offsetStr string, defaultLimit int) (limit, offset int) {
	limit = StringToInt(limitStr)
	if limit <= 0 {
		limit = defaultLimit
	}
	offset = StringToInt(offsetStr)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
