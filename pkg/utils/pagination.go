package utils

import (
	"math"
	"strconv"
	"strings"
)

// PageSize is the fixed number of records returned per listing page.
const PageSize = 20

// MaxPage is the last page whose offset fits in an int. Pages past it are
// always empty.
const MaxPage = math.MaxInt / PageSize

type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePage turns a zero-based page query value into skip/limit. Missing,
// malformed and negative values all select the first page.
func ParsePage(raw string) PaginationParams {
	page := parseIntDefault(raw, 0)
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	return PaginationParams{
		Page:   page,
		Limit:  PageSize,
		Offset: page * PageSize,
	}
}

func parseIntDefault(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
