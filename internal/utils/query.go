// Package utils provides small helpers for the HTTP layer that carry no
// domain logic: lenient query-string parsing and weak ETag construction.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// UintDefault parses s as a non-negative integer id, returning def when s
// is empty, negative or invalid.
func UintDefault(s string, def uint) uint {
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return def
	}
	return uint(n)
}

// WeakETag renders W/"kind:scope:p1:p2:...".
func WeakETag(kind, scope string, parts ...int64) string {
	var b strings.Builder
	b.WriteString(`W/"`)
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(scope)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(p, 10))
	}
	b.WriteByte('"')
	return b.String()
}

// ETagMatches reports whether an If-None-Match header value matches etag.
// The header may list several tags separated by commas, or be "*".
func ETagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	for _, cand := range strings.Split(ifNoneMatch, ",") {
		cand = strings.TrimSpace(cand)
		if cand == "*" || cand == etag {
			return true
		}
	}
	return false
}
