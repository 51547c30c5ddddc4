// Package httputil holds header-map helpers shared by the builder, auth and
// output packages. Header names are compared case-insensitively.
package httputil

import (
	"maps"
	"slices"
	"strings"
)

// Lookup returns the first value of the named header in a response-style map.
func Lookup(headers map[string][]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}

// Set stores value under name after dropping every entry that differs from
// name only in case.
func Set(headers map[string]string, name, value string) {
	maps.DeleteFunc(headers, func(k, _ string) bool {
		return strings.EqualFold(k, name)
	})
	headers[name] = value
}

// SortedNames returns the header names in lexical order.
func SortedNames[V any](headers map[string]V) []string {
	return slices.Sorted(maps.Keys(headers))
}
