// Package manifest implements the host object model on top of a TOML project
// description, so exports can run outside the compositing application.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"animexport/internal/host"
	"animexport/internal/tagcode"
)

type fileProject struct {
	Name         string            `toml:"name"`
	Compositions []fileComposition `toml:"composition"`
}

type fileComposition struct {
	ID        uint32      `toml:"id"`
	Name      string      `toml:"name"`
	Width     int         `toml:"width"`
	Height    int         `toml:"height"`
	FrameRate float64     `toml:"frame_rate"`
	Duration  int         `toml:"duration"`
	Layers    []fileLayer `toml:"layer"`
}

type fileLayer struct {
	ID         uint32   `toml:"id"`
	Name       string   `toml:"name"`
	Kind       string   `toml:"kind"`
	Features   []string `toml:"features"`
	Effects    []string `toml:"effects"`
	Expression bool     `toml:"expression"`
	Source     string   `toml:"source"`
	Scale      float64  `toml:"scale"`
	FPS        float64  `toml:"fps"`
}

// Project is a parsed manifest. It satisfies host.Project.
type Project struct {
	name   string
	comps  []*Composition
	byName map[string]*Composition
}

// Composition satisfies host.Composition.
type Composition struct {
	id        host.ID
	name      string
	width     int
	height    int
	frameRate float64
	duration  int
	layers    []host.Layer
}

// Layer satisfies host.Layer. Pre-composition layers may carry the scale and
// frame rate requested for their source.
type Layer struct {
	id         host.ID
	name       string
	kind       host.LayerKind
	features   []tagcode.Code
	effects    []string
	expression bool
	source     *Composition
	scale      float64
	fps        float64
}

var validKinds = map[host.LayerKind]struct{}{
	host.LayerSolid: {}, host.LayerText: {}, host.LayerShape: {}, host.LayerImage: {},
	host.LayerPreCompose: {}, host.LayerNull: {}, host.LayerCamera: {},
	host.LayerAdjustment: {}, host.LayerAudio: {},
}

// Load reads and parses the manifest at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a manifest. Ids left at zero are assigned in file order after
// the highest explicit id; explicit ids must be unique across compositions and
// layers.
func Parse(r io.Reader) (*Project, error) {
	var raw fileProject
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(raw.Compositions) == 0 {
		return nil, errors.New("manifest: at least one composition is required")
	}

	ids := newIDAllocator(raw)
	p := &Project{name: raw.Name, byName: make(map[string]*Composition, len(raw.Compositions))}

	for _, fc := range raw.Compositions {
		name := strings.TrimSpace(fc.Name)
		if name == "" {
			return nil, errors.New("manifest: composition name must be set")
		}
		if _, dup := p.byName[name]; dup {
			return nil, fmt.Errorf("manifest: duplicate composition %q", name)
		}
		id, err := ids.take(fc.ID)
		if err != nil {
			return nil, fmt.Errorf("manifest: composition %q: %w", name, err)
		}
		comp := &Composition{
			id:        id,
			name:      name,
			width:     fc.Width,
			height:    fc.Height,
			frameRate: fc.FrameRate,
			duration:  fc.Duration,
		}
		p.comps = append(p.comps, comp)
		p.byName[name] = comp
	}

	for i, fc := range raw.Compositions {
		comp := p.comps[i]
		for _, fl := range fc.Layers {
			layer, err := p.buildLayer(fl, ids)
			if err != nil {
				return nil, fmt.Errorf("manifest: composition %q: %w", comp.name, err)
			}
			comp.layers = append(comp.layers, layer)
		}
	}
	return p, nil
}

func (p *Project) buildLayer(fl fileLayer, ids *idAllocator) (*Layer, error) {
	id, err := ids.take(fl.ID)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", fl.Name, err)
	}
	kind := host.LayerKind(strings.ToLower(strings.TrimSpace(fl.Kind)))
	if kind == "" {
		kind = host.LayerShape
	}
	if _, ok := validKinds[kind]; !ok {
		return nil, fmt.Errorf("layer %q: unknown kind %q", fl.Name, fl.Kind)
	}
	layer := &Layer{
		id:         id,
		name:       fl.Name,
		kind:       kind,
		effects:    append([]string(nil), fl.Effects...),
		expression: fl.Expression,
		scale:      fl.Scale,
		fps:        fl.FPS,
	}
	for _, name := range fl.Features {
		code, err := tagcode.Parse(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", fl.Name, err)
		}
		layer.features = append(layer.features, code)
	}
	if fl.Source != "" {
		if kind != host.LayerPreCompose {
			return nil, fmt.Errorf("layer %q: only precomp layers may reference a source", fl.Name)
		}
		src, ok := p.byName[fl.Source]
		if !ok {
			return nil, fmt.Errorf("layer %q: unknown source composition %q", fl.Name, fl.Source)
		}
		layer.source = src
	}
	return layer, nil
}

type idAllocator struct {
	used map[uint32]struct{}
	next uint32
}

func newIDAllocator(raw fileProject) *idAllocator {
	a := &idAllocator{used: make(map[uint32]struct{})}
	for _, c := range raw.Compositions {
		a.next = max(a.next, c.ID)
		for _, l := range c.Layers {
			a.next = max(a.next, l.ID)
		}
	}
	return a
}

func (a *idAllocator) take(explicit uint32) (host.ID, error) {
	if explicit == 0 {
		a.next++
		explicit = a.next
	} else if _, dup := a.used[explicit]; dup {
		return host.NoID, fmt.Errorf("duplicate id %d", explicit)
	}
	a.used[explicit] = struct{}{}
	return host.ID(explicit), nil
}

func (p *Project) Name() string { return p.name }

func (p *Project) Compositions() []host.Composition {
	out := make([]host.Composition, len(p.comps))
	for i, c := range p.comps {
		out[i] = c
	}
	return out
}

func (p *Project) Composition(name string) (host.Composition, bool) {
	c, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func (c *Composition) ID() host.ID        { return c.id }
func (c *Composition) Name() string       { return c.name }
func (c *Composition) Width() int         { return c.width }
func (c *Composition) Height() int        { return c.height }
func (c *Composition) FrameRate() float64 { return c.frameRate }
func (c *Composition) Duration() int      { return c.duration }
func (c *Composition) Layers() []host.Layer {
	return append([]host.Layer(nil), c.layers...)
}

func (l *Layer) ID() host.ID              { return l.id }
func (l *Layer) Name() string             { return l.name }
func (l *Layer) Kind() host.LayerKind     { return l.kind }
func (l *Layer) Features() []tagcode.Code { return append([]tagcode.Code(nil), l.features...) }
func (l *Layer) Effects() []string        { return append([]string(nil), l.effects...) }
func (l *Layer) HasExpression() bool      { return l.expression }

func (l *Layer) Source() (host.Composition, bool) {
	if l.source == nil {
		return nil, false
	}
	return l.source, true
}

// RequestedFactor returns the scale and frame rate this layer asks its source
// to be sampled at. Zero values mean "use the export default".
func (l *Layer) RequestedFactor() (scale, fps float64) { return l.scale, l.fps }
