package nbt

import (
	"reflect"
	"testing"
)

func sampleTree() Tag {
	root := NewCompound()
	root.Set("Name", Tag{Kind: TagString, Str: "minecraft:stone"})
	root.Set("Count", Tag{Kind: TagByte, Byte: 64})
	root.Set("Damage", Tag{Kind: TagShort, Short: -1})
	root.Set("X", Tag{Kind: TagInt, Int: 55})
	root.Set("TimeStamp", Tag{Kind: TagLong, Long: 1234567890123})
	root.Set("Health", Tag{Kind: TagFloat, Float: 20.5})
	root.Set("Exp", Tag{Kind: TagDouble, Double: 3.14159})
	root.Set("Raw", Tag{Kind: TagByteArray, ByteArray: []byte{1, 2, 3, 0xff}})
	root.Set("Offset", Tag{Kind: TagIntArray, IntArray: []int32{-1, 0, 1}})
	root.Set("Longs", Tag{Kind: TagLongArray, LongArray: []int64{1, 2, 3}})

	nested := NewCompound()
	nested.Set("Inner", Tag{Kind: TagString, Str: "nested"})
	items := Tag{Kind: TagList, ListElem: TagCompound, List: []Tag{nested, NewCompound()}}
	root.Set("Items", items)

	strList := Tag{Kind: TagList, ListElem: TagString, List: []Tag{
		{Kind: TagString, Str: "a"}, {Kind: TagString, Str: "b"},
	}}
	root.Set("Tags", strList)

	empty := Tag{Kind: TagList, ListElem: TagEnd}
	root.Set("Empty", empty)

	return root
}

func TestRoundTripIdentity(t *testing.T) {
	for _, kind := range []Compression{CompressionNone, CompressionGZIP, CompressionZLIB} {
		tree := sampleTree()
		data, err := Encode(tree, kind)
		if err != nil {
			t.Fatalf("Encode(%v): %v", kind, err)
		}
		got, err := Decode(data, kind)
		if err != nil {
			t.Fatalf("Decode(%v): %v", kind, err)
		}
		if !reflect.DeepEqual(tree, got) {
			t.Fatalf("round trip mismatch for %v:\nwant %#v\ngot  %#v", kind, tree, got)
		}
	}
}

func TestCompoundPreservesInsertionOrder(t *testing.T) {
	tree := sampleTree()
	var order []string
	for _, nt := range tree.Compound {
		order = append(order, nt.Name)
	}
	data, err := Encode(tree, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	var gotOrder []string
	for _, nt := range got.Compound {
		gotOrder = append(gotOrder, nt.Name)
	}
	if !reflect.DeepEqual(order, gotOrder) {
		t.Fatalf("order not preserved: want %v, got %v", order, gotOrder)
	}
}

func TestFindTagTypeMismatch(t *testing.T) {
	tree := sampleTree()
	_, err := tree.FindTag("Name", TagInt)
	var mismatch *TagTypeMismatchError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asMismatch(err, &mismatch) {
		t.Fatalf("expected *TagTypeMismatchError, got %T: %v", err, err)
	}
}

func asMismatch(err error, target **TagTypeMismatchError) bool {
	if e, ok := err.(*TagTypeMismatchError); ok {
		*target = e
		return true
	}
	return false
}

func TestFindTagNotFound(t *testing.T) {
	tree := sampleTree()
	_, err := tree.FindTag("DoesNotExist", TagString)
	if _, ok := err.(*TagNotFoundError); !ok {
		t.Fatalf("expected *TagNotFoundError, got %T: %v", err, err)
	}
}

func TestHasTagIgnoresKind(t *testing.T) {
	tree := sampleTree()
	if !tree.HasTag("Name") {
		t.Fatal("expected HasTag to find Name")
	}
	if tree.HasTag("Nope") {
		t.Fatal("expected HasTag to be false for missing name")
	}
}

func TestDecodeTruncated(t *testing.T) {
	tree := sampleTree()
	data, err := Encode(tree, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(data[:len(data)-3], CompressionNone)
	if err == nil {
		t.Fatal("expected truncation error")
	}
	if _, ok := err.(*MalformedNBTError); !ok {
		t.Fatalf("expected *MalformedNBTError, got %T", err)
	}
}

func TestDecodeBadListElementType(t *testing.T) {
	// type=Compound(10), name_len=0, payload: type=List(9), name_len=0,
	// elem_type=0xEE (invalid), count=0, End(0)
	data := []byte{10, 0, 0, 9, 0, 0, 0xEE, 0, 0, 0, 0, 0}
	_, err := Decode(data, CompressionNone)
	if err == nil {
		t.Fatal("expected malformed error for invalid list element type")
	}
}

func TestDecodeRootNotCompound(t *testing.T) {
	data := []byte{byte(TagByte), 0, 0, 5}
	_, err := Decode(data, CompressionNone)
	if err == nil {
		t.Fatal("expected error for non-Compound root")
	}
}
