// Package casemeta extracts, stores and queries structured metadata for case documents.
package casemeta

import (
	"path/filepath"
	"strings"
)

// Unknown is used for court and year when the filename does not follow the naming convention.
const Unknown = "Unknown"

// Fields are the case attributes encoded in a case filename.
type Fields struct {
	Court string
	Year  string
	Title string
}

// ParseFilename reads court, year and title from a filename of the form
// <court1>_<court2>_<year>_<title parts...>.pdf. Filenames with fewer than four
// underscore-separated parts get Unknown court and year and the bare name as title.
func ParseFilename(name string) Fields {
	base := filepath.Base(name)
	stem := base
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		stem = strings.TrimSuffix(base, ext)
	}
	parts := strings.Split(stem, "_")
	if len(parts) < 4 {
		return Fields{Court: Unknown, Year: Unknown, Title: stem}
	}
	return Fields{
		Court: parts[0] + " " + parts[1],
		Year:  parts[2],
		Title: strings.Join(parts[3:], "_"),
	}
}
