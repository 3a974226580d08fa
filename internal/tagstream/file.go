package tagstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"animexport/internal/tagcode"
)

const (
	// Version is the container version written by this build.
	Version        = 1
	compatibleMax  = 2
	fileHeaderSize = 3 + 1 + 4 + 1
	uncompressed   = 0
)

var magic = [3]byte{'P', 'A', 'G'}

// WriteFile writes the container header followed by body.
func WriteFile(w io.Writer, body []byte) (int64, error) {
	header := make([]byte, 0, fileHeaderSize)
	header = append(header, magic[:]...)
	header = append(header, Version)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(body)))
	header = append(header, uncompressed)

	n, err := w.Write(header)
	if err != nil {
		return int64(n), fmt.Errorf("write file header: %w", err)
	}
	m, err := w.Write(body)
	if err != nil {
		return int64(n + m), fmt.Errorf("write file body: %w", err)
	}
	return int64(n + m), nil
}

// Summary describes a verified file.
type Summary struct {
	Version  int
	Tags     int
	MaxTag   tagcode.Code
	BodySize int
}

// Verify parses data as a complete file: header, a tag stream of known tags
// and a terminating End tag. maxLevel bounds the tags that may appear.
func Verify(data []byte, maxLevel tagcode.Code) (Summary, error) {
	if len(data) < fileHeaderSize {
		return Summary{}, fmt.Errorf("%w: file too short", ErrMalformed)
	}
	if !bytes.Equal(data[:3], magic[:]) {
		return Summary{}, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	s := Summary{Version: int(data[3])}
	if s.Version > compatibleMax {
		return s, fmt.Errorf("%w: unsupported version %d", ErrMalformed, s.Version)
	}
	bodyLen := binary.LittleEndian.Uint32(data[4:8])
	if data[8] != uncompressed {
		return s, fmt.Errorf("%w: unsupported compression %d", ErrMalformed, data[8])
	}
	body := data[fileHeaderSize:]
	if uint64(bodyLen) != uint64(len(body)) {
		return s, fmt.Errorf("%w: body length %d, header says %d", ErrMalformed, len(body), bodyLen)
	}
	s.BodySize = len(body)

	r := bytes.NewReader(body)
	for {
		h, err := ReadHeader(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return s, fmt.Errorf("%w: missing end tag", ErrMalformed)
			}
			return s, err
		}
		if h.Code == tagcode.End {
			if r.Len() != 0 {
				return s, fmt.Errorf("%w: %d trailing bytes after end tag", ErrMalformed, r.Len())
			}
			return s, nil
		}
		if !tagcode.Known(h.Code) {
			return s, fmt.Errorf("%w: unknown tag %d", ErrMalformed, uint16(h.Code))
		}
		if h.Code > maxLevel {
			return s, fmt.Errorf("%w: %v", ErrTagNotAllowed, h.Code)
		}
		if uint64(h.Length) > uint64(r.Len()) {
			return s, fmt.Errorf("%w: %v payload truncated", ErrMalformed, h.Code)
		}
		if _, err := r.Seek(int64(h.Length), io.SeekCurrent); err != nil {
			return s, err
		}
		s.Tags++
		s.MaxTag = max(s.MaxTag, h.Code)
	}
}
