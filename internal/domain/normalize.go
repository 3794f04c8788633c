package domain

import (
	"regexp"
	"strings"
)

var zipRe = regexp.MustCompile(`^\d{5}$`)

// IsZip reports whether a token is a 5-digit ZIP code.
func IsZip(s string) bool {
	return zipRe.MatchString(s)
}

// NormalizeServiceArea splits a free-text service-area field into distinct
// lookup tokens. ZIP codes on a line become standalone tokens; the line's
// remaining parts are rejoined into one compound place token so that
// "Grand Rapids, MI" resolves as a single query. A line with no
// comma-separable content is kept whole as a fallback token. The result
// preserves first-seen order and contains no duplicates or empty strings.
func NormalizeServiceArea(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var entries []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var tokens []string
		for _, t := range strings.Split(line, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}

		var zips, rest []string
		for _, t := range tokens {
			if IsZip(t) {
				zips = append(zips, t)
			} else {
				rest = append(rest, t)
			}
		}

		entries = append(entries, zips...)
		if len(rest) > 0 {
			entries = append(entries, strings.Join(rest, ", "))
		}
		if len(tokens) == 0 {
			entries = append(entries, line)
		}
	}

	return dedupe(entries)
}

func dedupe(entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// CapTokens limits a token list to at most n entries, keeping order.
func CapTokens(tokens []string, n int) []string {
	if n >= 0 && len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}
