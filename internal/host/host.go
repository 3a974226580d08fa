package host

import (
	"strconv"

	"animexport/internal/tagcode"
)

// ID identifies a composition or layer inside one export. Zero means "none".
type ID uint32

// NoID marks a diagnostic or lookup that is not tied to a composition or layer.
const NoID ID = 0

func (id ID) String() string {
	if id == NoID {
		return "-"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// LayerKind classifies host layers the exporter cares about.
type LayerKind string

const (
	LayerSolid      LayerKind = "solid"
	LayerText       LayerKind = "text"
	LayerShape      LayerKind = "shape"
	LayerImage      LayerKind = "image"
	LayerPreCompose LayerKind = "precomp"
	LayerNull       LayerKind = "null"
	LayerCamera     LayerKind = "camera"
	LayerAdjustment LayerKind = "adjustment"
	LayerAudio      LayerKind = "audio"
)

// Project is the read-only entry point into the host's object model.
type Project interface {
	Name() string
	// Compositions returns every composition in the project.
	Compositions() []Composition
	// Composition looks up a composition by its host name.
	Composition(name string) (Composition, bool)
}

// Composition is a borrowed handle onto one host composition.
type Composition interface {
	ID() ID
	Name() string
	Width() int
	Height() int
	FrameRate() float64
	// Duration is measured in frames at FrameRate.
	Duration() int
	Layers() []Layer
}

// Layer is a borrowed handle onto one host layer.
type Layer interface {
	ID() ID
	Name() string
	Kind() LayerKind
	// Features lists the versioned format features the layer needs, newest
	// variant first within each feature family.
	Features() []tagcode.Code
	// Source returns the referenced composition for pre-composition layers.
	Source() (Composition, bool)
	Effects() []string
	HasExpression() bool
}
