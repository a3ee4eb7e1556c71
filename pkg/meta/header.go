package meta

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Header layout, big endian:
//
//	0  magic    [4]byte "FRDT"
//	4  version  uint16
//	6  dtype    uint8
//	7  channels uint8
//	8  frames   uint32
//	12 height   uint32
//	16 width    uint32
//	20 reserved [12]byte
const (
	HeaderSize    = 32
	HeaderMagic   = "FRDT"
	HeaderVersion = 1

	DtypeUint8 = 1
)

var ErrNoHeader = errors.New("no header")

// Header serializes the shape into a dat file header.
func (s Shape) Header() []byte {
	header := make([]byte, HeaderSize)
	copy(header[0:4], HeaderMagic)
	binary.BigEndian.PutUint16(header[4:6], HeaderVersion)
	header[6] = DtypeUint8
	header[7] = uint8(s.Channels)
	binary.BigEndian.PutUint32(header[8:12], uint32(s.Frames))
	binary.BigEndian.PutUint32(header[12:16], uint32(s.Height))
	binary.BigEndian.PutUint32(header[16:20], uint32(s.Width))
	return header
}

// HasHeader reports whether buf starts with the header magic.
func HasHeader(buf []byte) bool {
	return len(buf) >= len(HeaderMagic) && string(buf[:len(HeaderMagic)]) == HeaderMagic
}

// ParseHeader reads a shape back from a dat file header.
func ParseHeader(header []byte) (Shape, error) {
	if len(header) < HeaderSize || !HasHeader(header) {
		return Shape{}, ErrNoHeader
	}
	version := binary.BigEndian.Uint16(header[4:6])
	if version != HeaderVersion {
		return Shape{}, fmt.Errorf("unsupported header version %d", version)
	}
	if header[6] != DtypeUint8 {
		return Shape{}, fmt.Errorf("unsupported dtype tag %d", header[6])
	}
	s := Shape{
		Channels: int(header[7]),
		Frames:   int(binary.BigEndian.Uint32(header[8:12])),
		Height:   int(binary.BigEndian.Uint32(header[12:16])),
		Width:    int(binary.BigEndian.Uint32(header[16:20])),
	}
	if err := s.ValidateFrame(); err != nil {
		return Shape{}, err
	}
	return s, nil
}
