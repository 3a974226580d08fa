package exporter

import (
	"encoding/binary"
	"math"

	"animexport/internal/config"
	"animexport/internal/host"
	"animexport/internal/sequence"
)

// payload builds the small fixed records carried by structural tags.
type payload []byte

func (p payload) u8(v uint8) payload   { return append(p, v) }
func (p payload) u32(v uint32) payload { return binary.LittleEndian.AppendUint32(p, v) }
func (p payload) f32(v float64) payload {
	return binary.LittleEndian.AppendUint32(p, math.Float32bits(float32(v)))
}

func (p payload) str(s string) payload {
	p = p.u32(uint32(len(s)))
	return append(p, s...)
}

func compositionPayload(comp host.Composition) []byte {
	return payload(nil).
		u32(uint32(comp.ID())).
		u32(uint32(max(comp.Width(), 0))).
		u32(uint32(max(comp.Height(), 0))).
		f32(comp.FrameRate()).
		u32(uint32(max(comp.Duration(), 0)))
}

func layerPayload(layer host.Layer, withName bool) []byte {
	p := payload(nil).u32(uint32(layer.ID())).str(string(layer.Kind()))
	if withName {
		p = p.str(layer.Name())
	}
	return p
}

func referencePayload(id host.ID) []byte {
	return payload(nil).u32(uint32(id))
}

func samplePayload(comp host.Composition, f sequence.Factor, param config.ExportParam) []byte {
	w, h := f.OutputSize(comp.Width(), comp.Height())
	p := payload(nil).
		u32(uint32(w)).
		u32(uint32(h)).
		f32(comp.FrameRate() * f.FPS).
		u32(uint32(f.FrameCount(comp.Duration())))
	if param.SequenceType == config.SequenceBitmap {
		p = p.u32(uint32(param.BitmapKeyFrameInterval))
	}
	return p.u8(uint8(param.SequenceQuality))
}

func staticPayload(comp host.Composition, param config.ExportParam) []byte {
	return payload(nil).
		u32(uint32(max(comp.Width(), 1))).
		u32(uint32(max(comp.Height(), 1))).
		f32(0).
		u32(1).
		u8(uint8(param.ImageQuality))
}

func fileAttributesPayload(project string, lang string, scene config.Scene) []byte {
	return payload(nil).str(project).str(lang).str(string(scene))
}
