package types

import "encoding/binary"

// fixedCodec implements Codec for constant-size values via closures
// supplied by each primitive type.
type fixedCodec struct {
	size  int
	write func(v any, buf []byte, offset int)
	read  func(buf []byte, offset int) any
}

func (c *fixedCodec) FixedSize() (int, bool) { return c.size, true }
func (c *fixedCodec) Size(any) int           { return c.size }

func (c *fixedCodec) Write(v any, buf []byte, offset int) int {
	c.write(v, buf, offset)
	return c.size
}

func (c *fixedCodec) Read(buf []byte, offset int) (any, int) {
	return c.read(buf, offset), c.size
}

// variableCodec implements Codec for variable-size values via closures.
type variableCodec struct {
	size  func(v any) int
	write func(v any, buf []byte, offset int) int
	read  func(buf []byte, offset int) (any, int)
}

func (c *variableCodec) FixedSize() (int, bool)              { return 0, false }
func (c *variableCodec) Size(v any) int                      { return c.size(v) }
func (c *variableCodec) Write(v any, buf []byte, off int) int { return c.write(v, buf, off) }
func (c *variableCodec) Read(buf []byte, off int) (any, int)  { return c.read(buf, off) }

// writeBytesPrefixed writes a 4-byte little-endian length prefix
// followed by b, returning the total bytes written.
func writeBytesPrefixed(b []byte, buf []byte, offset int) int {
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(b)))
	copy(buf[offset+4:], b)
	return 4 + len(b)
}

// readBytesPrefixed reads a 4-byte length-prefixed byte slice.
func readBytesPrefixed(buf []byte, offset int) ([]byte, int) {
	n := int(binary.LittleEndian.Uint32(buf[offset:]))
	b := make([]byte, n)
	copy(b, buf[offset+4:offset+4+n])
	return b, 4 + n
}
