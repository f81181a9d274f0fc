package verify

import (
	"regexp"
	"strings"

	"civicsnap/pkg/types"
)

const (
	descriptionLabel = "Description of Issue:"
	locationLabel    = "Specific Location Details:"
)

var (
	descriptionRe = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(descriptionLabel) + `(.*?)(?:` + regexp.QuoteMeta(locationLabel) + `|$)`)
	locationRe    = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(locationLabel) + `(.*)$`)
)

// Extract pulls the description and location sections out of an accepted
// reply. Missing sections come back empty.
func Extract(rawText string) types.Extracted {
	var out types.Extracted

	if m := descriptionRe.FindStringSubmatch(rawText); m != nil {
		out.Description = strings.TrimSpace(m[1])
	}

	if m := locationRe.FindStringSubmatch(rawText); m != nil {
		out.Location = strings.TrimSpace(m[1])
	}

	return out
}
