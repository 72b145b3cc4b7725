// Package validate normalizes and checks free-text user input before it
// reaches the metadata API or gets echoed back into chat messages.
package validate

import (
	"errors"
	"html"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	MinQueryLen = 2
	MaxQueryLen = 100
)

var (
	ErrTooShort  = errors.New("validate: query too short")
	ErrTooLong   = errors.New("validate: query too long")
	ErrForbidden = errors.New("validate: query contains forbidden content")
)

// Substrings that have no business in a title query. Matched
// case-insensitively after normalization.
var forbiddenWords = []string{
	"<script",
	"javascript:",
	"drop table",
	"select *",
	"insert into",
	"delete from",
}

var spaceRun = regexp.MustCompile(`\s+`)

// Sanitize canonicalizes input: Unicode NFC, collapsed whitespace,
// HTML-escaped so it is safe to interpolate into HTML-mode messages.
func Sanitize(input string) string {
	s := norm.NFC.String(input)
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	return html.EscapeString(s)
}

// SearchQuery sanitizes a query and enforces length and content rules.
// Length and forbidden substrings are checked on the normalized text
// before HTML escaping, so escape expansion can neither hide a
// forbidden pattern nor inflate the measured length.
func SearchQuery(input string) (string, error) {
	s := norm.NFC.String(input)
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	runes := []rune(s)
	if len(runes) < MinQueryLen {
		return "", ErrTooShort
	}
	if len(runes) > MaxQueryLen {
		return "", ErrTooLong
	}
	lower := strings.ToLower(s)
	for _, word := range forbiddenWords {
		if strings.Contains(lower, word) {
			return "", ErrForbidden
		}
	}
	return html.EscapeString(s), nil
}

// QueryParts is the shorthand form "title, year, genre". Year and genre
// are optional.
type QueryParts struct {
	Title string
	Year  int
	Genre string
}

// ParseQueryShorthand splits a comma-separated query into title, year
// and genre. A second segment that parses as a plausible release year
// becomes Year; otherwise segments after the first are genre text.
func ParseQueryShorthand(query string) QueryParts {
	segments := strings.Split(query, ",")
	parts := QueryParts{Title: strings.TrimSpace(segments[0])}

	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if parts.Year == 0 {
			if year, err := strconv.Atoi(seg); err == nil && year >= 1890 && year <= 2100 {
				parts.Year = year
				continue
			}
		}
		if parts.Genre == "" {
			parts.Genre = seg
		}
	}
	return parts
}

// IsFilmID reports whether input looks like a raw numeric title id.
func IsFilmID(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
