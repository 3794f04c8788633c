package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var stateRe = regexp.MustCompile(`\b[A-Z]{2}\b`)

// ZipLabel derives a display label for a ZIP token from a provider's
// comma-separated formatted address, formatted "City ST ZIP". The ZIP
// itself and any other 5-digit part are filtered out first. Degrades to
// "City ZIP" when no state abbreviation is present and to the bare ZIP
// when the address yields nothing usable.
func ZipLabel(zip, displayName string) string {
	if displayName == "" {
		return zip
	}

	var parts []string
	for _, p := range strings.Split(displayName, ",") {
		p = strings.TrimSpace(p)
		if p == "" || p == zip || IsZip(p) {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return zip
	}

	city := parts[0]
	state := ""
	for _, p := range parts {
		if stateRe.MatchString(p) {
			state = p
			break
		}
	}

	if state != "" {
		return fmt.Sprintf("%s %s %s", city, state, zip)
	}
	return fmt.Sprintf("%s %s", city, zip)
}

// BoundaryLabel pairs a discovered place name with a ZIP, or returns the
// bare ZIP when no name was found.
func BoundaryLabel(zip, placeName string) string {
	if placeName == "" {
		return zip
	}
	return fmt.Sprintf("%s %s", placeName, zip)
}
