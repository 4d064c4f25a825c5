package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

var digitRunRegex = regexp.MustCompile(`\d+`)

// NumericFromText pulls the first contiguous digit run out of free-form
// cell text ("1,234 pcs" -> 1234, "N/A" -> 0). Thousands separators are
// stripped first; anything without a digit is 0.
func NumericFromText(text string) int {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	run := digitRunRegex.FindString(s)
	if run == "" {
		return 0
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		// digit run longer than an int
		return 0
	}
	return n
}

// Excerpt bounds a response body or error message to at most n bytes for
// storage in an audit record.
func Excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
