// Package sanitize holds best-effort text cleaning used before user input is
// filtered against table rows or echoed back to a client.
//
// None of these functions is a security boundary. They reduce noise from
// hostile-looking input; the upstream API remains responsible for every trust
// decision.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxSearchLength bounds a sanitized search query, counted in runes.
const MaxSearchLength = 100

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// sqlKeywords is applied in order. The list strips OR and AND from ordinary
// words too ("Andrew" becomes "rew"); callers accept that.
var sqlKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
	"EXEC", "EXECUTE", "UNION", "SCRIPT", "JAVASCRIPT", "VBSCRIPT",
	"--", "/*", "*/", ";", "'", `"`, "=", "<", ">", "OR", "AND",
}

var sqlPatterns = compileKeywords(sqlKeywords)

var pathFragments = []string{"..", `\`, "/", ":", "*", "?", `"`, "<", ">", "|"}

var searchStrip = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "&", "")

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
	}
	return patterns
}

// HTML escapes & < > " ' and / to their entity equivalents.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return htmlReplacer.Replace(input)
}

// SQL removes SQL and script keywords plus quoting punctuation,
// case-insensitively, and trims the result.
func SQL(input string) string {
	if input == "" {
		return ""
	}
	sanitized := input
	for _, pattern := range sqlPatterns {
		sanitized = pattern.ReplaceAllLiteralString(sanitized, "")
	}
	return strings.TrimSpace(sanitized)
}

// Path strips fragments that look like path traversal or reserved file name
// characters.
func Path(input string) string {
	if input == "" {
		return ""
	}
	sanitized := input
	for _, fragment := range pathFragments {
		sanitized = strings.ReplaceAll(sanitized, fragment, "")
	}
	return sanitized
}

// SearchQuery prepares raw search box text for client side filtering: HTML
// escaping, SQL keyword removal, markup character removal, trimming and
// truncation to MaxSearchLength runes.
func SearchQuery(input string) string {
	if input == "" {
		return ""
	}
	sanitized := SQL(HTML(input))
	sanitized = strings.TrimSpace(searchStrip.Replace(sanitized))
	return truncate(sanitized, MaxSearchLength)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
