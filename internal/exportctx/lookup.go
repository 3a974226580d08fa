package exportctx

import (
	"animexport/internal/diag"
	"animexport/internal/host"
)

// RegisterComposition makes comp reachable by id for the rest of the export.
func (c *Context) RegisterComposition(comp host.Composition) {
	if comp == nil || comp.ID() == host.NoID {
		return
	}
	c.comps[comp.ID()] = comp
}

// RegisterLayer makes layer reachable by id for the rest of the export.
func (c *Context) RegisterLayer(layer host.Layer) {
	if layer == nil || layer.ID() == host.NoID {
		return
	}
	c.layers[layer.ID()] = layer
}

// Composition returns the handle registered for id. A miss records
// CompositionHandleNotFound.
func (c *Context) Composition(id host.ID) (host.Composition, bool) {
	comp, ok := c.comps[id]
	if !ok {
		c.diags.Record(diag.CompositionHandleNotFound, id, host.NoID, id.String())
	}
	return comp, ok
}

// Layer returns the handle registered for id.
func (c *Context) Layer(id host.ID) (host.Layer, bool) {
	layer, ok := c.layers[id]
	return layer, ok
}

// CompositionName resolves id for diagnostic messages.
func (c *Context) CompositionName(id host.ID) string {
	if comp, ok := c.comps[id]; ok {
		return comp.Name()
	}
	return ""
}

// LayerName resolves id for diagnostic messages.
func (c *Context) LayerName(id host.ID) string {
	if layer, ok := c.layers[id]; ok {
		return layer.Name()
	}
	return ""
}

// Compositions returns the number of registered compositions.
func (c *Context) Compositions() int { return len(c.comps) }
