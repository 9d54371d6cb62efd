// Package dn provides the Distinguished Name model used for transaction
// footprints: parsing, normalisation and ancestry tests.
package dn

import (
	"strings"

	"github.com/pkg/errors"
)

// DN parsing errors.
var (
	ErrInvalidDN         = errors.New("invalid DN format")
	ErrInvalidRDN        = errors.New("invalid RDN format")
	ErrEmptyRDNComponent = errors.New("empty RDN component")
)

// DN is a parsed Distinguished Name. The zero value is the root DN, which is
// an ancestor of every other DN.
type DN struct {
	// raw is the DN as given to Parse, trimmed.
	raw string

	// rdns holds the normalised components in reverse order (root first):
	//
	//	"uid=alice,ou=users,dc=example" -> ["dc=example", "ou=users", "uid=alice"]
	rdns []string
}

// Root is the empty DN.
var Root = DN{}

// Parse parses a DN string. An empty string yields Root.
func Parse(s string) (DN, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Root, nil
	}

	components := splitDN(s)
	if len(components) == 0 {
		return DN{}, errors.Wrapf(ErrInvalidDN, "%q", s)
	}

	rdns := make([]string, len(components))
	for i, comp := range components {
		normalized, err := normalizeRDN(comp)
		if err != nil {
			return DN{}, errors.Wrapf(err, "%q", s)
		}
		rdns[len(components)-1-i] = normalized
	}

	return DN{raw: s, rdns: rdns}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) DN {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// splitDN splits a DN string by commas, keeping escaped commas.
func splitDN(s string) []string {
	var components []string
	var current strings.Builder
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			current.WriteByte(c)
			escaped = false
			continue
		}

		switch c {
		case '\\':
			current.WriteByte(c)
			escaped = true
		case ',':
			if comp := strings.TrimSpace(current.String()); comp != "" {
				components = append(components, comp)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	if comp := strings.TrimSpace(current.String()); comp != "" {
		components = append(components, comp)
	}

	return components
}

// normalizeRDN validates an RDN and folds it to lower case. Attribute values
// are compared case-insensitively, as with caseIgnoreMatch.
func normalizeRDN(rdn string) (string, error) {
	rdn = strings.TrimSpace(rdn)
	if rdn == "" {
		return "", ErrEmptyRDNComponent
	}

	eqIdx := strings.Index(rdn, "=")
	if eqIdx == -1 {
		return "", ErrInvalidRDN
	}

	attrType := strings.TrimSpace(rdn[:eqIdx])
	attrValue := strings.TrimSpace(rdn[eqIdx+1:])
	if attrType == "" {
		return "", ErrInvalidRDN
	}

	return strings.ToLower(attrType) + "=" + strings.ToLower(attrValue), nil
}

// String returns the DN as it was parsed.
func (d DN) String() string {
	return d.raw
}

// Normalized returns the normalised, leaf-first form of the DN.
func (d DN) Normalized() string {
	if len(d.rdns) == 0 {
		return ""
	}
	forward := make([]string, len(d.rdns))
	for i, comp := range d.rdns {
		forward[len(d.rdns)-1-i] = comp
	}
	return strings.Join(forward, ",")
}

// Depth returns the number of RDN components.
func (d DN) Depth() int {
	return len(d.rdns)
}

// IsRoot reports whether d is the empty DN.
func (d DN) IsRoot() bool {
	return len(d.rdns) == 0
}

// Parent returns the parent DN. The parent of Root is Root.
func (d DN) Parent() DN {
	if len(d.rdns) <= 1 {
		return Root
	}
	parent := DN{rdns: d.rdns[:len(d.rdns)-1]}
	parent.raw = parent.Normalized()
	return parent
}

// Equal reports whether both DNs name the same entry.
func (d DN) Equal(other DN) bool {
	if len(d.rdns) != len(other.rdns) {
		return false
	}
	for i := range d.rdns {
		if d.rdns[i] != other.rdns[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether d is a strict ancestor of other.
func (d DN) IsAncestorOf(other DN) bool {
	return other.IsDescendantOf(d)
}

// IsDescendantOf reports whether d is a strict descendant of ancestor.
//
//	"uid=alice,ou=users,dc=example".IsDescendantOf("dc=example") -> true
func (d DN) IsDescendantOf(ancestor DN) bool {
	if len(d.rdns) <= len(ancestor.rdns) {
		return false
	}
	for i, comp := range ancestor.rdns {
		if d.rdns[i] != comp {
			return false
		}
	}
	return true
}

// IsDirectChildOf reports whether d sits exactly one level below parent.
func (d DN) IsDirectChildOf(parent DN) bool {
	return len(d.rdns) == len(parent.rdns)+1 && d.IsDescendantOf(parent)
}
