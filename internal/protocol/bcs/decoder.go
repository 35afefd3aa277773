package bcs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when input ends before a value is complete.
var ErrShortBuffer = errors.New("bcs: unexpected end of input")

// Decoder reads BCS values from a byte slice.
type Decoder struct {
	b   []byte
	off int
}

// NewDecoder reads from b.
func NewDecoder(b []byte) *Decoder { return &Decoder{b: b} }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.b) - d.off }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrShortBuffer
	}
	out := d.b[d.off : d.off+n]
	d.off += n
	return out, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) U16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) U64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) Bool() (bool, error) {
	v, err := d.U8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("bcs: invalid bool byte 0x%02x", v)
	}
}

func (d *Decoder) ULEB128() (uint64, error) {
	v, n := binary.Uvarint(d.b[d.off:])
	if n == 0 {
		return 0, ErrShortBuffer
	}
	if n < 0 {
		return 0, errors.New("bcs: uleb128 overflow")
	}
	d.off += n
	return v, nil
}

// Fixed reads exactly n bytes.
func (d *Decoder) Fixed(n int) ([]byte, error) { return d.take(n) }

// BytesVec reads a length-prefixed byte vector.
func (d *Decoder) BytesVec() ([]byte, error) {
	n, err := d.ULEB128()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, ErrShortBuffer
	}
	return d.take(int(n))
}

func (d *Decoder) String() (string, error) {
	b, err := d.BytesVec()
	return string(b), err
}
