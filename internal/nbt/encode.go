package nbt

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode serializes a root Compound tag to bytes, named "" at the root, and
// wraps the result in the given outer stream Compression. It is the inverse
// of Decode and exists chiefly to make round-trip testing (§8.1) possible
// and to let the inspection CLI re-emit what it parsed.
//
// The writer style (direct byte buffer, big-endian via encoding/binary,
// tag-header-then-payload) is carried over from the teacher's hand-rolled
// schematic NBT writer rather than reusing a struct-tag marshaller, since we
// are encoding a generic Tag tree, not a fixed Go struct.
func Encode(root Tag, compression Compression) ([]byte, error) {
	var buf bytes.Buffer
	w := &encoder{w: &buf}
	w.writeTagHeader(TagCompound, "")
	w.writeCompoundPayload(root)
	if w.err != nil {
		return nil, w.err
	}
	return compress(buf.Bytes(), compression)
}

type encoder struct {
	w   *bytes.Buffer
	err error
}

func (e *encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *encoder) writeBE(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.BigEndian, v)
}

func (e *encoder) writeRaw(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) writeName(name string) {
	e.writeBE(uint16(len(name)))
	e.writeRaw([]byte(name))
}

func (e *encoder) writeTagHeader(typ Type, name string) {
	e.writeByte(byte(typ))
	e.writeName(name)
}

func (e *encoder) writePayload(t Tag) {
	switch t.Kind {
	case TagByte:
		e.writeBE(t.Byte)
	case TagShort:
		e.writeBE(t.Short)
	case TagInt:
		e.writeBE(t.Int)
	case TagLong:
		e.writeBE(t.Long)
	case TagFloat:
		e.writeBE(int32(math.Float32bits(t.Float)))
	case TagDouble:
		e.writeBE(int64(math.Float64bits(t.Double)))
	case TagByteArray:
		e.writeBE(int32(len(t.ByteArray)))
		e.writeRaw(t.ByteArray)
	case TagString:
		e.writeName(t.Str)
	case TagList:
		e.writeByte(byte(t.ListElem))
		e.writeBE(int32(len(t.List)))
		for _, item := range t.List {
			e.writePayload(item)
		}
	case TagCompound:
		e.writeCompoundPayload(t)
	case TagIntArray:
		e.writeBE(int32(len(t.IntArray)))
		for _, v := range t.IntArray {
			e.writeBE(v)
		}
	case TagLongArray:
		e.writeBE(int32(len(t.LongArray)))
		for _, v := range t.LongArray {
			e.writeBE(v)
		}
	default:
		if e.err == nil {
			e.err = malformed("cannot encode tag of type %d", t.Kind)
		}
	}
}

func (e *encoder) writeCompoundPayload(c Tag) {
	for _, named := range c.Compound {
		e.writeTagHeader(named.Tag.Kind, named.Name)
		e.writePayload(named.Tag)
	}
	e.writeByte(byte(TagEnd))
}
