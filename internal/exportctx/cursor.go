package exportctx

import (
	"animexport/internal/diag"
	"animexport/internal/host"
)

// Enter makes id the current composition and clears the layer cursor. The
// returned function restores the previous cursor, so nested compositions can
// use it with defer.
func (c *Context) Enter(id host.ID) (restore func()) {
	prevComp, prevLayer := c.comp, c.layer
	c.comp, c.layer = id, host.NoID
	return func() { c.comp, c.layer = prevComp, prevLayer }
}

// EnterLayer makes id the current layer inside the current composition.
func (c *Context) EnterLayer(id host.ID) (restore func()) {
	prev := c.layer
	c.layer = id
	return func() { c.layer = prev }
}

// Record appends a diagnostic tied to the current cursor.
func (c *Context) Record(kind diag.Kind, extra string) {
	c.diags.Record(kind, c.comp, c.layer, extra)
}

// RecordAt appends a diagnostic tied to explicit ids.
func (c *Context) RecordAt(kind diag.Kind, comp, layer host.ID, extra string) {
	c.diags.Record(kind, comp, layer, extra)
}
