package bcs

import (
	"bytes"
	"encoding/binary"
)

// Encoder appends BCS values to an in-memory buffer. The zero value is ready to use.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.buf.Len() }

func (e *Encoder) U8(v uint8) *Encoder {
	e.buf.WriteByte(v)
	return e
}

func (e *Encoder) U16(v uint16) *Encoder {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) U32(v uint32) *Encoder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) U64(v uint64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.U8(1)
	}
	return e.U8(0)
}

// ULEB128 writes v as an unsigned LEB128 varint (used for lengths and variant tags).
func (e *Encoder) ULEB128(v uint64) *Encoder {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	e.buf.Write(b[:n])
	return e
}

// Variant writes an enum variant tag.
func (e *Encoder) Variant(tag uint32) *Encoder { return e.ULEB128(uint64(tag)) }

// Fixed writes b verbatim, with no length prefix (fixed-size arrays, addresses).
func (e *Encoder) Fixed(b []byte) *Encoder {
	e.buf.Write(b)
	return e
}

// BytesVec writes a length-prefixed byte vector.
func (e *Encoder) BytesVec(b []byte) *Encoder {
	e.ULEB128(uint64(len(b)))
	e.buf.Write(b)
	return e
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) *Encoder {
	e.ULEB128(uint64(len(s)))
	e.buf.WriteString(s)
	return e
}

// StringVec writes a vector of strings.
func (e *Encoder) StringVec(ss []string) *Encoder {
	e.ULEB128(uint64(len(ss)))
	for _, s := range ss {
		e.String(s)
	}
	return e
}

// Option writes the Some/None tag; when present is true the caller writes the value next.
func (e *Encoder) Option(present bool) *Encoder { return e.Bool(present) }

// Vec writes a length prefix then calls each(i) for every element.
func (e *Encoder) Vec(n int, each func(i int)) *Encoder {
	e.ULEB128(uint64(n))
	for i := 0; i < n; i++ {
		each(i)
	}
	return e
}
