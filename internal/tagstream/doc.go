// Package tagstream frames feature tags into the binary animation format.
//
// Each tag is written as a little-endian uint16 header holding code<<6 and a
// six-bit length; payloads of 63 bytes or more use the 0x3f marker followed
// by a uint32 length. Payload bytes are opaque here. The Writer asks the
// compatibility gate before every tag and refuses tags above the target
// level, so a gating mistake upstream surfaces as an error instead of an
// unreadable file.
package tagstream
