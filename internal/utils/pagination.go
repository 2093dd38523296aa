// Package utils provides small helpers shared by the HTTP layer that carry
// no domain logic of their own.
package utils

import "strconv"

// Pagination policy applied to every list endpoint.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePage parses a page query parameter. Empty, unparseable, or
// non-positive input yields DefaultPage.
func ParsePage(s string) int {
	n := atoiDefault(s, DefaultPage)
	if n < 1 {
		return DefaultPage
	}
	return n
}

// ParsePageSize parses a pageSize query parameter, clamping the result to
// [1, MaxPageSize]. Empty or unparseable input yields DefaultPageSize.
func ParsePageSize(s string) int {
	n := atoiDefault(s, DefaultPageSize)
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
