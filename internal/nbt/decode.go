package nbt

import (
	"encoding/binary"
	"io"
	"math"
)

// Decode parses a root Compound from data, which is optionally wrapped in
// the given outer stream Compression. The binary format is big-endian:
// tag = (u8 type)(u16 name_len, name[name_len], payload); see §4.1.
func Decode(data []byte, compression Compression) (Tag, error) {
	raw, err := decompress(data, compression)
	if err != nil {
		return Tag{}, err
	}
	d := &decoder{r: raw}
	typ, err := d.readByte()
	if err != nil {
		return Tag{}, malformed("truncated before root tag id: %v", err)
	}
	if Type(typ) != TagCompound {
		return Tag{}, malformed("root tag is type %d, want Compound", typ)
	}
	if _, err := d.readName(); err != nil {
		return Tag{}, err
	}
	root, err := d.readCompoundPayload()
	if err != nil {
		return Tag{}, err
	}
	return root, nil
}

type decoder struct {
	r   []byte
	off int
}

func (d *decoder) remaining() int { return len(d.r) - d.off }

func (d *decoder) readByte() (byte, error) {
	if d.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.r[d.off]
	d.off++
	return b, nil
}

func (d *decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.r[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readUint16() (uint16, error) {
	b, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) readInt32() (int32, error) {
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *decoder) readInt64() (int64, error) {
	b, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (d *decoder) readName() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", malformed("truncated tag name length: %v", err)
	}
	b, err := d.readN(int(n))
	if err != nil {
		return "", malformed("truncated tag name (len %d): %v", n, err)
	}
	return string(b), nil
}

// readPayload reads the payload for a tag of the given type (the type byte
// and name have already been consumed by the caller).
func (d *decoder) readPayload(typ Type) (Tag, error) {
	switch typ {
	case TagByte:
		b, err := d.readByte()
		if err != nil {
			return Tag{}, malformed("truncated Byte payload: %v", err)
		}
		return Tag{Kind: TagByte, Byte: int8(b)}, nil
	case TagShort:
		v, err := d.readUint16()
		if err != nil {
			return Tag{}, malformed("truncated Short payload: %v", err)
		}
		return Tag{Kind: TagShort, Short: int16(v)}, nil
	case TagInt:
		v, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated Int payload: %v", err)
		}
		return Tag{Kind: TagInt, Int: v}, nil
	case TagLong:
		v, err := d.readInt64()
		if err != nil {
			return Tag{}, malformed("truncated Long payload: %v", err)
		}
		return Tag{Kind: TagLong, Long: v}, nil
	case TagFloat:
		v, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated Float payload: %v", err)
		}
		return Tag{Kind: TagFloat, Float: math.Float32frombits(uint32(v))}, nil
	case TagDouble:
		v, err := d.readInt64()
		if err != nil {
			return Tag{}, malformed("truncated Double payload: %v", err)
		}
		return Tag{Kind: TagDouble, Double: math.Float64frombits(uint64(v))}, nil
	case TagByteArray:
		n, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated ByteArray length: %v", err)
		}
		b, err := d.readN(int(n))
		if err != nil {
			return Tag{}, malformed("truncated ByteArray payload (len %d): %v", n, err)
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return Tag{Kind: TagByteArray, ByteArray: cp}, nil
	case TagString:
		s, err := d.readName()
		if err != nil {
			return Tag{}, malformed("truncated String payload: %v", err)
		}
		return Tag{Kind: TagString, Str: s}, nil
	case TagList:
		elemByte, err := d.readByte()
		if err != nil {
			return Tag{}, malformed("truncated List element type: %v", err)
		}
		elem := Type(elemByte)
		if !validType(elem) {
			return Tag{}, malformed("List has invalid element type %d", elemByte)
		}
		count, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated List count: %v", err)
		}
		if count < 0 {
			return Tag{}, malformed("List has negative count %d", count)
		}
		var items []Tag
		if count > 0 {
			items = make([]Tag, 0, count)
		}
		for i := int32(0); i < count; i++ {
			item, err := d.readPayload(elem)
			if err != nil {
				return Tag{}, err
			}
			items = append(items, item)
		}
		return Tag{Kind: TagList, List: items, ListElem: elem}, nil
	case TagCompound:
		return d.readCompoundPayload()
	case TagIntArray:
		n, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated IntArray length: %v", err)
		}
		if n < 0 {
			return Tag{}, malformed("IntArray has negative length %d", n)
		}
		out := make([]int32, n)
		for i := range out {
			v, err := d.readInt32()
			if err != nil {
				return Tag{}, malformed("truncated IntArray element %d: %v", i, err)
			}
			out[i] = v
		}
		return Tag{Kind: TagIntArray, IntArray: out}, nil
	case TagLongArray:
		n, err := d.readInt32()
		if err != nil {
			return Tag{}, malformed("truncated LongArray length: %v", err)
		}
		if n < 0 {
			return Tag{}, malformed("LongArray has negative length %d", n)
		}
		out := make([]int64, n)
		for i := range out {
			v, err := d.readInt64()
			if err != nil {
				return Tag{}, malformed("truncated LongArray element %d: %v", i, err)
			}
			out[i] = v
		}
		return Tag{Kind: TagLongArray, LongArray: out}, nil
	default:
		return Tag{}, malformed("unknown tag type %d", typ)
	}
}

func (d *decoder) readCompoundPayload() (Tag, error) {
	c := NewCompound()
	for {
		typByte, err := d.readByte()
		if err != nil {
			return Tag{}, malformed("truncated Compound, missing End tag: %v", err)
		}
		typ := Type(typByte)
		if typ == TagEnd {
			return c, nil
		}
		if !validType(typ) {
			return Tag{}, malformed("Compound entry has invalid tag type %d", typByte)
		}
		name, err := d.readName()
		if err != nil {
			return Tag{}, err
		}
		child, err := d.readPayload(typ)
		if err != nil {
			return Tag{}, err
		}
		c.Compound = append(c.Compound, NamedTag{Name: name, Tag: child})
	}
}

func validType(t Type) bool {
	return t >= TagEnd && t <= TagLongArray
}
