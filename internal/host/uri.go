package host

import (
	"net/url"
	"strings"
)

// IsURIName reports whether name looks like a document URI rather than a
// backend-internal buffer name. A URI-shaped name has a scheme of at least
// two characters, which keeps Windows drive paths ("C:\...") out.
func IsURIName(name string) bool {
	u, err := url.Parse(name)
	if err != nil {
		return false
	}
	return len(u.Scheme) >= 2
}

// SplitLines splits text on the document's line-ending convention.
func SplitLines(text, eol string) []string {
	if eol == "" {
		eol = "\n"
	}
	return strings.Split(text, eol)
}
