// Package nbt decodes and encodes the Named Binary Tag format used by
// Minecraft's region and chunk files. Compound preserves insertion order
// (decode-then-encode round-trips byte-for-byte); FindTag/HasTag give
// callers typed, order-independent lookups.
package nbt
