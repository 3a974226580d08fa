package compat

import (
	"fmt"

	"animexport/internal/tagcode"
)

// Gate answers whether a feature tag may be written. It is immutable once
// built and safe to share.
type Gate struct {
	mode  Mode
	level tagcode.Code
}

// NewGate resolves m into a gate.
func NewGate(m Mode) (Gate, error) {
	level, err := ResolveLevel(m)
	if err != nil {
		return Gate{}, err
	}
	return Gate{mode: m, level: level}, nil
}

// MustGate is NewGate for compiled-in modes.
func MustGate(m Mode) Gate {
	g, err := NewGate(m)
	if err != nil {
		panic(err)
	}
	return g
}

// Mode returns the mode the gate was built from.
func (g Gate) Mode() Mode { return g.mode }

// Level returns the effective level.
func (g Gate) Level() tagcode.Code { return g.level }

// Allows reports whether tag was introduced at or below the gate's level.
// Passing a tag this build does not know is a programming error and panics.
func (g Gate) Allows(tag tagcode.Code) bool {
	if !tagcode.Known(tag) {
		panic(fmt.Sprintf("compat: unknown feature tag %d", uint16(tag)))
	}
	return tag <= g.level
}

// Select returns the first allowed tag of chain, which lists variants of one
// feature newest first. ok is false when no variant is allowed.
func (g Gate) Select(chain ...tagcode.Code) (tag tagcode.Code, ok bool) {
	for _, candidate := range chain {
		if g.Allows(candidate) {
			return candidate, true
		}
	}
	return 0, false
}
