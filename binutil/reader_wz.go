package binutil

import (
	"github.com/libevm/schlop-app/wzerr"
	"github.com/libevm/schlop-app/wzfmt"
)

// ReadCompressedInt reads a compressed int32: a signed byte, or (if that
// byte is the sentinel -128) a trailing little-endian int32.
func (r *Reader) ReadCompressedInt() (int32, error) {
	b, err := r.ReadInt8()
	if err != nil {
		return 0, err
	}
	if b == -128 {
		return r.ReadInt32()
	}
	return int32(b), nil
}

// ReadCompressedLong reads a compressed int64: a signed byte, or (if that
// byte is the sentinel -128) a trailing little-endian int64.
func (r *Reader) ReadCompressedLong() (int64, error) {
	b, err := r.ReadInt8()
	if err != nil {
		return 0, err
	}
	if b == -128 {
		return r.ReadInt64()
	}
	return int64(b), nil
}

// ReadEncryptedString reads a length-prefixed, keystream-masked string.
// Positive length bytes select UTF-16 (with 127 meaning "int32 length
// follows"); negative length bytes select 8-bit chars (with -128 meaning
// the same). A length of zero yields "".
func (r *Reader) ReadEncryptedString() (string, error) {
	lb, err := r.ReadInt8()
	if err != nil {
		return "", err
	}

	if lb == 0 {
		return "", nil
	}

	if lb > 0 {
		length := int32(lb)
		if lb == 127 {
			length, err = r.ReadInt32()
			if err != nil {
				return "", err
			}
		}
		return r.readEncryptedUnicode(length)
	}

	length := int32(-lb)
	if lb == -128 {
		length, err = r.ReadInt32()
		if err != nil {
			return "", err
		}
	}
	return r.readEncryptedASCII(length)
}

func (r *Reader) readEncryptedUnicode(length int32) (string, error) {
	if length < 0 {
		return "", wzerr.New(wzerr.DecodeError, r.pos, "negative unicode string length")
	}
	out := make([]rune, length)
	mask := uint16(0xAAAA)
	for i := int32(0); i < length; i++ {
		unit, err := r.ReadUint16()
		if err != nil {
			return "", err
		}
		unit ^= mask
		if r.key != nil {
			lo := uint16(r.key.ByteAt(int(i) * 2))
			hi := uint16(r.key.ByteAt(int(i)*2 + 1))
			unit ^= lo | (hi << 8)
		}
		out[i] = rune(unit)
		mask++
	}
	return string(out), nil
}

func (r *Reader) readEncryptedASCII(length int32) (string, error) {
	if length < 0 {
		return "", wzerr.New(wzerr.DecodeError, r.pos, "negative ascii string length")
	}
	out := make([]byte, length)
	mask := byte(0xAA)
	for i := int32(0); i < length; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		b ^= mask
		if r.key != nil {
			b ^= r.key.ByteAt(int(i))
		}
		out[i] = b
		mask++
	}
	return string(out), nil
}

// ReadStringBlock reads a discriminator byte that selects between an
// inline encrypted string and an offset-referenced one stored elsewhere in
// the data section. 0x00/0x73 mean "inline follows"; 0x01/0x1B mean "a
// 4-byte relative offset follows, seek there and read"; any other value
// yields "".
func (r *Reader) ReadStringBlock() (string, error) {
	disc, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	switch disc {
	case 0x00, 0x73:
		return r.ReadEncryptedString()
	case 0x01, 0x1B:
		rel, err := r.ReadInt32()
		if err != nil {
			return "", err
		}
		saved := r.pos
		r.pos = r.dataStart + int64(rel)
		s, err := r.ReadEncryptedString()
		r.pos = saved
		return s, err
	default:
		return "", nil
	}
}

// ReadEncryptedOffset decrypts the 4-byte little-endian offset at the
// cursor into an absolute byte position within the archive buffer. See
// §4.2: the read transform is the exact inverse of the writer's.
func (r *Reader) ReadEncryptedOffset() (int64, error) {
	here := r.pos
	raw, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}

	rel := uint32(here-r.dataStart) ^ 0xFFFFFFFF
	rel *= r.versionHash
	rel -= wzfmt.OffsetConstant
	rel = rotateLeft(rel, byte(rel&0x1F))
	rel ^= raw

	return int64(rel + uint32(2*r.dataStart)), nil
}

func rotateLeft(x uint32, n byte) uint32 {
	n &= 31
	if n == 0 {
		return x
	}
	return (x << n) | (x >> (32 - n))
}
