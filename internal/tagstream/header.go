package tagstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"animexport/internal/tagcode"
)

const (
	codeShift   = 6
	shortMask   = 0x3f
	longMarker  = shortMask
	maxCodeBits = 10
)

// ErrMalformed reports a byte stream that does not parse as tags.
var ErrMalformed = errors.New("malformed tag stream")

// Header is one decoded tag header.
type Header struct {
	Code   tagcode.Code
	Length uint32
}

// AppendHeader appends the framing header for a tag with length payload
// bytes.
func AppendHeader(dst []byte, code tagcode.Code, length int) ([]byte, error) {
	if code > tagcode.MaxEncodable {
		return dst, fmt.Errorf("tag code %d does not fit in %d bits", uint16(code), maxCodeBits)
	}
	if length < 0 || uint64(length) > math.MaxUint32 {
		return dst, fmt.Errorf("tag %v: payload length %d out of range", code, length)
	}
	if length < longMarker {
		return binary.LittleEndian.AppendUint16(dst, uint16(code)<<codeShift|uint16(length)), nil
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(code)<<codeShift|longMarker)
	return binary.LittleEndian.AppendUint32(dst, uint32(length)), nil
}

// ReadHeader decodes one tag header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var short [2]byte
	if _, err := io.ReadFull(r, short[:]); err != nil {
		return Header{}, err
	}
	v := binary.LittleEndian.Uint16(short[:])
	h := Header{Code: tagcode.Code(v >> codeShift), Length: uint32(v & shortMask)}
	if h.Length == longMarker {
		var long [4]byte
		if _, err := io.ReadFull(r, long[:]); err != nil {
			return Header{}, fmt.Errorf("%w: truncated long header for %v", ErrMalformed, h.Code)
		}
		h.Length = binary.LittleEndian.Uint32(long[:])
	}
	return h, nil
}
