// Package routepath normalizes URL paths before they reach the recognizer
// and escapes parameter values on the way back out.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonical is a canonicalized URL split into its parts.
type Canonical struct {
	// Path always starts with "/" and never ends with one, except for the root.
	Path string

	// Query is the raw query string without the leading "?".
	Query string
}

// String rebuilds the URL from its parts.
func (c Canonical) String() string {
	if c.Query == "" {
		return c.Path
	}
	return c.Path + "?" + c.Query
}

// Canonicalize normalizes a navigation URL.
//
// Leading "./" and "." prefixes produced by link hrefs are accepted, repeated
// slashes collapse, "." segments drop and ".." segments resolve. Absolute
// URLs, backslashes, NUL bytes, bad escapes and ".." above the root are
// rejected. Fragments are dropped.
func Canonicalize(input string) (Canonical, error) {
	path, query, _ := strings.Cut(input, "?")
	path, _, _ = strings.Cut(path, "#")
	query, _, _ = strings.Cut(query, "#")

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return Canonical{}, ErrInvalidPath
	}
	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Canonical{}, err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	return Canonical{Path: "/" + strings.Join(out, "/"), Query: query}, nil
}

// validatePercentEscapes checks that every "%" starts a %XX escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Split splits a path into raw (still escaped) segments.
// The root path yields no segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// DecodeSegments splits a canonical path and unescapes each segment.
func DecodeSegments(path string) ([]string, error) {
	raw := Split(path)
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return nil, ErrInvalidPercentEscape
		}
		out = append(out, decoded)
	}
	return out, nil
}

// Join builds a path from decoded segments, escaping each one.
func Join(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}
