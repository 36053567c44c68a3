package pickle

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/meigma/asar/internal/asartype"
)

// Iterator reads fields from a Pickle in write order.
//
// Reads never cross the declared payload size. A read that would overrun it
// fails with ErrTruncated and leaves the cursor at the end, so every later
// read fails too.
type Iterator struct {
	payload       []byte
	payloadOffset int
	readIndex     int
	endIndex      int
}

// ReadBool reads an int32 and reports whether it is non-zero.
func (it *Iterator) ReadBool() (bool, error) {
	v, err := it.ReadInt32()
	return v != 0, err
}

// ReadInt32 reads a little-endian int32.
func (it *Iterator) ReadInt32() (int32, error) {
	v, err := it.ReadUint32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadUint32 reads a little-endian uint32.
func (it *Iterator) ReadUint32() (uint32, error) {
	b, err := it.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt64 reads a little-endian int64.
func (it *Iterator) ReadInt64() (int64, error) {
	v, err := it.ReadUint64()
	return int64(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadUint64 reads a little-endian uint64.
func (it *Iterator) ReadUint64() (uint64, error) {
	b, err := it.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFloat32 reads an IEEE 754 single.
func (it *Iterator) ReadFloat32() (float32, error) {
	v, err := it.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double.
func (it *Iterator) ReadFloat64() (float64, error) {
	v, err := it.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadString reads an int32 length followed by that many UTF-8 bytes.
func (it *Iterator) ReadString() (string, error) {
	n, err := it.ReadInt32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative string length %d", asartype.ErrFormat, n)
	}
	b, err := it.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", asartype.ErrFormat)
	}
	return string(b), nil
}

// ReadBytes returns a copy of the next length bytes and skips their padding.
func (it *Iterator) ReadBytes(length int) ([]byte, error) {
	if length < 0 || length > it.endIndex-it.readIndex {
		it.readIndex = it.endIndex
		return nil, fmt.Errorf("%w: failed to read %d bytes", asartype.ErrTruncated, length)
	}
	start := it.payloadOffset + it.readIndex
	it.advance(length)
	return append([]byte(nil), it.payload[start:start+length]...), nil
}

// Remaining returns the number of unread payload bytes.
func (it *Iterator) Remaining() int {
	return it.endIndex - it.readIndex
}

func (it *Iterator) advance(size int) {
	aligned := Align(size, sizeUint32)
	if it.endIndex < it.readIndex+aligned {
		it.readIndex = it.endIndex
		return
	}
	it.readIndex += aligned
}
