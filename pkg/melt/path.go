/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: path.go
Description: Field paths from the record root. Paths render as slash-separated keys with
'~' and '/' escaped, so any field name survives a round trip through a plan file.
*/

package melt

import (
	"fmt"
	"strings"
)

// RootType is the entity type of every top-level record
const RootType = "root"

// Path is the sequence of field names from the root to a value.
// Array indices are never part of a path.
type Path []string

// Child returns a new path extended by name. The receiver is never aliased.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// Parent returns the path without its last segment
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Leaf returns the last field name, or "" for the root
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// IsRoot reports whether the path is empty
func (p Path) IsRoot() bool {
	return len(p) == 0
}

var segmentEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var segmentUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// String renders the path as "/a/b". The root renders as "".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, seg := range p {
		sb.WriteByte('/')
		sb.WriteString(segmentEscaper.Replace(seg))
	}
	return sb.String()
}

// ParsePath parses the String form of a path
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	if s[0] != '/' {
		return nil, fmt.Errorf("path %q must start with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	out := make(Path, len(parts))
	for i, part := range parts {
		if !validEscapes(part) {
			return nil, fmt.Errorf("path %q has an invalid escape", s)
		}
		out[i] = segmentUnescaper.Replace(part)
	}
	return out, nil
}

// validEscapes reports whether every '~' in seg starts "~0" or "~1"
func validEscapes(seg string) bool {
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			continue
		}
		if i+1 >= len(seg) || (seg[i+1] != '0' && seg[i+1] != '1') {
			return false
		}
		i++
	}
	return true
}
