package txn

import (
	"fmt"

	"github.com/KilimcininKorOglu/obatxn/internal/dn"
)

// Scope is the extent of a DnSet below its base.
type Scope int

const (
	// ScopeObject covers the base entry only.
	ScopeObject Scope = iota
	// ScopeOneLevel covers the immediate children of the base.
	ScopeOneLevel
	// ScopeSubtree covers the base and everything below it.
	ScopeSubtree
)

// String returns the string representation of a Scope.
func (s Scope) String() string {
	switch s {
	case ScopeObject:
		return "object"
	case ScopeOneLevel:
		return "onelevel"
	case ScopeSubtree:
		return "subtree"
	default:
		return "unknown"
	}
}

// DnSet describes the names an operation may have read or written.
type DnSet struct {
	Base  dn.DN
	Scope Scope
}

// NewDnSet returns a DnSet over base with the given scope.
func NewDnSet(base dn.DN, scope Scope) DnSet {
	return DnSet{Base: base, Scope: scope}
}

// String returns a debug representation of the set.
func (s DnSet) String() string {
	return fmt.Sprintf("%s(%s)", s.Scope, s.Base.Normalized())
}

// Overlaps reports whether the read footprint s may have observed a change
// made under the write footprint w. One-level scopes are treated as subtrees,
// which over-approximates and never misses a conflict.
func (s DnSet) Overlaps(w DnSet) bool {
	readObject := s.Scope == ScopeObject
	writeObject := w.Scope == ScopeObject

	switch {
	case readObject && writeObject:
		return s.Base.Equal(w.Base)
	case readObject:
		return isAtOrBelow(s.Base, w.Base)
	case writeObject:
		return isAtOrBelow(w.Base, s.Base)
	default:
		return isAtOrBelow(s.Base, w.Base) || isAtOrBelow(w.Base, s.Base)
	}
}

// isAtOrBelow reports whether name equals base or descends from it.
func isAtOrBelow(name, base dn.DN) bool {
	return name.Equal(base) || name.IsDescendantOf(base)
}
