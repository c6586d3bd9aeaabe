// Package ingest turns a parsed e-book archive into its normalized, paginated
// representation: extracted image resources with lookup aliases, chapter
// bodies with rewritten references, word counts, and reference mappings.
package ingest

import (
	"net/url"
	"regexp"
	"strings"
)

// resourceRoutePrefix is the externally addressable root for book resources.
const resourceRoutePrefix = "/resources/"

// aliasDisallowed matches every character outside the restricted alias set.
var aliasDisallowed = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// Aliases derives both lookup aliases for a resource reference. Resource
// extraction and reference rewriting must agree on these, so this is the
// single derivation used by both.
//
// original is the final path segment of ref. sanitized is ref with path
// separators replaced by underscores, then restricted to letters, digits,
// underscore, and dot.
func Aliases(ref string) (original, sanitized string) {
	norm := strings.ReplaceAll(ref, `\`, "/")
	original = norm[strings.LastIndex(norm, "/")+1:]

	sanitized = strings.ReplaceAll(norm, "/", "_")
	sanitized = aliasDisallowed.ReplaceAllString(sanitized, "_")
	return original, sanitized
}

// ResourcePath builds the externally addressable path for a stored resource.
func ResourcePath(bookID, alias string) string {
	return resourceRoutePrefix + bookID + "/" + url.PathEscape(alias)
}
