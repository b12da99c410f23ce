package update

import (
	"strconv"
	"strings"
)

// newer reports whether tag is a strictly newer release than current. A tag
// that does not parse on either side means no update; "dev" and local builds
// never match a release.
func newer(tag, current string) bool {
	a, ok := parseTag(tag)
	if !ok {
		return false
	}
	b, ok := parseTag(current)
	if !ok {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// parseTag reads "v1.2.3" (leading v optional) into major/minor/patch,
// discarding any pre-release or build suffix.
func parseTag(v string) ([3]int, bool) {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	if len(fields) != 3 {
		return [3]int{}, false
	}
	var out [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return [3]int{}, false
		}
		out[i] = n
	}
	return out, true
}
