package tokens

import "strings"

// EscapePath wraps every segment of a slash-separated path that contains a
// space or a hyphen in #...#, so the path can be embedded in a query.
// Segments that are already wrapped are left alone.
func EscapePath(path string) string {
	if !strings.ContainsAny(path, " -") {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if needsEscape(seg) {
			segments[i] = "#" + seg + "#"
		}
	}
	return strings.Join(segments, "/")
}

func needsEscape(seg string) bool {
	if !strings.ContainsAny(seg, " -") {
		return false
	}
	return !(len(seg) >= 2 && strings.HasPrefix(seg, "#") && strings.HasSuffix(seg, "#"))
}
