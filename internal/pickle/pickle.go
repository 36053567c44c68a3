// Package pickle implements the aligned, length-prefixed binary record
// format used to frame the archive header.
//
// A pickle is a 4-byte little-endian payload size followed by the payload.
// Every field in the payload starts on a 4-byte boundary; shorter values are
// padded with zero bytes.
package pickle

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/meigma/asar/internal/asartype"
)

const (
	// PayloadUnit is the allocation granularity for payload capacity.
	PayloadUnit = 64

	// sizeUint32 is the width of the payload size prefix and the field alignment.
	sizeUint32 = 4
)

// Align rounds n up to the next multiple of alignment.
func Align(n, alignment int) int {
	return n + (alignment-(n%alignment))%alignment
}

// Pickle is a growable buffer of aligned records.
//
// A Pickle is not safe for concurrent use.
type Pickle struct {
	header              []byte
	headerSize          int
	capacityAfterHeader int
	writeOffset         int
	readOnly            bool
}

// New returns an empty Pickle ready for writing.
func New() *Pickle {
	p := &Pickle{headerSize: sizeUint32}
	p.resize(PayloadUnit)
	p.setPayloadSize(0)
	return p
}

// FromBytes returns a read-only Pickle over a copy of buf.
//
// The first four bytes are taken as the payload size and the header size is
// derived from the buffer length. When the derived header size is negative,
// larger than the buffer, or not 4-byte aligned, the result is empty and
// Valid reports false.
func FromBytes(buf []byte) *Pickle {
	p := &Pickle{readOnly: true}
	if len(buf) < sizeUint32 {
		return p
	}
	payload := int64(binary.LittleEndian.Uint32(buf))
	headerSize := int64(len(buf)) - payload
	if headerSize <= 0 || headerSize > int64(len(buf)) || headerSize%sizeUint32 != 0 {
		return p
	}
	p.header = append([]byte(nil), buf...)
	p.headerSize = int(headerSize)
	return p
}

// Valid reports whether the Pickle holds a well-formed header.
func (p *Pickle) Valid() bool {
	return p.headerSize != 0
}

// HeaderSize returns the number of bytes before the payload.
func (p *Pickle) HeaderSize() int {
	return p.headerSize
}

// PayloadSize returns the declared payload size.
func (p *Pickle) PayloadSize() int {
	if len(p.header) < sizeUint32 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(p.header))
}

// Bytes returns the header and payload without spare capacity.
// The returned slice aliases the Pickle's buffer.
func (p *Pickle) Bytes() []byte {
	if !p.Valid() {
		return nil
	}
	return p.header[:p.headerSize+p.PayloadSize()]
}

// Iterator returns a cursor positioned at the first payload field.
func (p *Pickle) Iterator() *Iterator {
	return &Iterator{
		payload:       p.header,
		payloadOffset: p.headerSize,
		endIndex:      p.PayloadSize(),
	}
}

// WriteBool appends b as an int32 (1 or 0).
func (p *Pickle) WriteBool(b bool) error {
	if b {
		return p.WriteInt32(1)
	}
	return p.WriteInt32(0)
}

// WriteInt32 appends a little-endian int32.
func (p *Pickle) WriteInt32(v int32) error {
	return p.WriteBytes(binary.LittleEndian.AppendUint32(nil, uint32(v))) //nolint:gosec // two's complement reinterpretation
}

// WriteUint32 appends a little-endian uint32.
func (p *Pickle) WriteUint32(v uint32) error {
	return p.WriteBytes(binary.LittleEndian.AppendUint32(nil, v))
}

// WriteInt64 appends a little-endian int64.
func (p *Pickle) WriteInt64(v int64) error {
	return p.WriteBytes(binary.LittleEndian.AppendUint64(nil, uint64(v))) //nolint:gosec // two's complement reinterpretation
}

// WriteUint64 appends a little-endian uint64.
func (p *Pickle) WriteUint64(v uint64) error {
	return p.WriteBytes(binary.LittleEndian.AppendUint64(nil, v))
}

// WriteFloat32 appends an IEEE 754 single.
func (p *Pickle) WriteFloat32(v float32) error {
	return p.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends an IEEE 754 double.
func (p *Pickle) WriteFloat64(v float64) error {
	return p.WriteUint64(math.Float64bits(v))
}

// WriteString appends s as an int32 byte length followed by its UTF-8 bytes.
func (p *Pickle) WriteString(s string) error {
	if len(s) > math.MaxInt32 {
		return fmt.Errorf("%w: string of %d bytes", asartype.ErrSizeOverflow, len(s))
	}
	if err := p.WriteInt32(int32(len(s))); err != nil { //nolint:gosec // bounded above
		return err
	}
	return p.WriteBytes([]byte(s))
}

// WriteBytes appends data verbatim, padded with zeros to the alignment.
func (p *Pickle) WriteBytes(data []byte) error {
	if p.readOnly {
		return fmt.Errorf("%w: pickle is read-only", asartype.ErrFormat)
	}
	dataLength := Align(len(data), sizeUint32)
	newSize := p.writeOffset + dataLength
	if int64(newSize) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes", asartype.ErrSizeOverflow, newSize)
	}
	if newSize > p.capacityAfterHeader {
		p.resize(max(p.capacityAfterHeader*2, newSize))
	}

	start := p.headerSize + p.writeOffset
	n := copy(p.header[start:], data)
	clear(p.header[start+n : start+dataLength])
	p.setPayloadSize(newSize)
	p.writeOffset = newSize
	return nil
}

func (p *Pickle) setPayloadSize(size int) {
	binary.LittleEndian.PutUint32(p.header, uint32(size)) //nolint:gosec // bounded by WriteBytes
}

func (p *Pickle) resize(capacity int) {
	capacity = Align(capacity, PayloadUnit)
	grown := make([]byte, p.headerSize+capacity)
	copy(grown, p.header)
	p.header = grown
	p.capacityAfterHeader = capacity
}
