package binutil

import (
	"github.com/libevm/schlop-app/crypto"
	"github.com/libevm/schlop-app/wzfmt"
)

// WriteCompressedInt emits v as a single byte, or (when that encoding
// would collide with the sentinel, or v itself needs more range) the
// sentinel 0x80 followed by the full 32-bit little-endian value. The
// sentinel value -128 is always expanded, matching §8.2's boundary case:
// it must round-trip as [0x80, 0x80, 0xFF, 0xFF, 0xFF].
func (w *Writer) WriteCompressedInt(v int32) error {
	if v >= -127 && v <= 127 {
		return w.WriteInt8(int8(v))
	}
	if err := w.WriteInt8(-128); err != nil {
		return err
	}
	return w.WriteInt32(v)
}

func (w *Writer) WriteCompressedLong(v int64) error {
	if v >= -127 && v <= 127 {
		return w.WriteInt8(int8(v))
	}
	if err := w.WriteInt8(-128); err != nil {
		return err
	}
	return w.WriteInt64(v)
}

// WriteEncryptedString emits s keystream-masked. unicode selects the
// UTF-16 branch; otherwise each rune must fit in a byte (callers pick the
// branch the same way the reader would have: ASCII-only text uses the
// 8-bit branch).
func (w *Writer) WriteEncryptedString(s string, unicode bool, key *crypto.Key) error {
	if len(s) == 0 {
		return w.WriteInt8(0)
	}
	if unicode {
		return w.writeEncryptedUnicode(s, key)
	}
	return w.writeEncryptedASCII(s, key)
}

func (w *Writer) writeEncryptedUnicode(s string, key *crypto.Key) error {
	runes := []rune(s)
	n := len(runes)
	if n < 127 {
		if err := w.WriteInt8(int8(n)); err != nil {
			return err
		}
	} else {
		if err := w.WriteInt8(127); err != nil {
			return err
		}
		if err := w.WriteInt32(int32(n)); err != nil {
			return err
		}
	}

	mask := uint16(0xAAAA)
	for i, r := range runes {
		unit := uint16(r)
		unit ^= mask
		if key != nil {
			lo := uint16(key.ByteAt(i * 2))
			hi := uint16(key.ByteAt(i*2 + 1))
			unit ^= lo | (hi << 8)
		}
		if err := w.WriteUint16(unit); err != nil {
			return err
		}
		mask++
	}
	return nil
}

func (w *Writer) writeEncryptedASCII(s string, key *crypto.Key) error {
	b := []byte(s)
	n := len(b)
	if n < 128 {
		if err := w.WriteInt8(int8(-n)); err != nil {
			return err
		}
	} else {
		if err := w.WriteInt8(-128); err != nil {
			return err
		}
		if err := w.WriteInt32(int32(n)); err != nil {
			return err
		}
	}

	mask := byte(0xAA)
	for i, c := range b {
		v := c ^ mask
		if key != nil {
			v ^= key.ByteAt(i)
		}
		if err := w.WriteByte(v); err != nil {
			return err
		}
		mask++
	}
	return nil
}

// WriteEncryptedOffset writes the obfuscated absolute offset `target` at
// the current position, the exact inverse of Reader.ReadEncryptedOffset.
func (w *Writer) WriteEncryptedOffset(target, dataStart int64, versionHash uint32) error {
	here := w.Pos()

	rel := uint32(here-dataStart) ^ 0xFFFFFFFF
	rel *= versionHash
	rel -= wzfmt.OffsetConstant
	rel = rotateLeft(rel, byte(rel&0x1F))
	rel ^= uint32(target-2*dataStart)

	return w.WriteUint32(rel)
}

// PropertyStringCache deduplicates string property values within a single
// image: a value seen more than once, longer than 4 characters, is
// emitted once inline and referenced thereafter by absolute offset.
// Callers must construct a fresh cache per image (cleared at image
// boundaries, per §4.7.1).
type PropertyStringCache struct {
	offsets map[string]int64
}

func NewPropertyStringCache() *PropertyStringCache {
	return &PropertyStringCache{offsets: make(map[string]int64)}
}

// WriteInterned emits s via the property-value interning rule: first
// occurrence (or any occurrence of a string 4 characters or shorter) is
// written inline with discriminator byte withoutOffset; a later repeat of
// a longer string is written as discriminator withOffset plus a 4-byte
// offset relative to dataStart.
func (c *PropertyStringCache) WriteInterned(w *Writer, s string, dataStart int64, key *crypto.Key, unicode bool) error {
	const (
		withoutOffset = 0x73
		withOffset    = 0x1B
	)

	if len(s) > 4 {
		if off, ok := c.offsets[s]; ok {
			if err := w.WriteByte(withOffset); err != nil {
				return err
			}
			return w.WriteInt32(int32(off - dataStart))
		}
	}

	if err := w.WriteByte(withoutOffset); err != nil {
		return err
	}
	offset := w.Pos()
	if err := w.WriteEncryptedString(s, unicode, key); err != nil {
		return err
	}
	if len(s) > 4 {
		c.offsets[s] = offset
	}
	return nil
}

// DirectoryNameKind distinguishes a dir entry name from an image entry
// name so DirectoryNameCache below doesn't alias a dir and an image sharing
// one name.
type DirectoryNameKind int

const (
	DirEntry DirectoryNameKind = iota
	ImageEntry
)

type dirCacheKey struct {
	kind DirectoryNameKind
	name string
}

// DirectoryNameCache deduplicates directory-entry names (>4 chars) across
// one archive write, keyed by (kind, name).
type DirectoryNameCache struct {
	offsets map[dirCacheKey]int64
}

func NewDirectoryNameCache() *DirectoryNameCache {
	return &DirectoryNameCache{offsets: make(map[dirCacheKey]int64)}
}

func (c *DirectoryNameCache) WriteInterned(w *Writer, kind DirectoryNameKind, name string, dataStart int64, key *crypto.Key, unicode bool) error {
	var discInline, discOffset byte
	if kind == ImageEntry {
		discInline, discOffset = 0x04, 0x02
	} else {
		discInline, discOffset = 0x03, 0x02
	}

	k := dirCacheKey{kind, name}
	if len(name) > 4 {
		if off, ok := c.offsets[k]; ok {
			if err := w.WriteByte(discOffset); err != nil {
				return err
			}
			return w.WriteInt32(int32(off - dataStart))
		}
	}

	// The reader's offset-reference path seeks here, skips the
	// discriminator byte it finds, then reads the encrypted string — so the
	// recorded offset must point at the discriminator, not past it.
	offset := w.Pos()
	if err := w.WriteByte(discInline); err != nil {
		return err
	}
	if err := w.WriteEncryptedString(name, unicode, key); err != nil {
		return err
	}
	if len(name) > 4 {
		c.offsets[k] = offset
	}
	return nil
}
