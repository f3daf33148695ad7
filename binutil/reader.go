// Package binutil implements the WZ archive's binary cursor: fixed-endian
// primitive reads over an immutable byte slice, plus the WZ-specific
// variable-length encodings (compressed int/long, encrypted string,
// string-or-offset block, encrypted offset) and their writer counterparts.
package binutil

import (
	"encoding/binary"
	"math"

	"github.com/libevm/schlop-app/crypto"
	"github.com/libevm/schlop-app/wzerr"
)

// Reader is a positioned cursor over a read-only byte buffer. It never
// copies the backing array.
type Reader struct {
	buf         []byte
	pos         int64
	key         *crypto.Key
	dataStart   int64
	versionHash uint32
}

// NewReader wraps buf for plain (non-WZ-encrypted) reads starting at
// position 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// WithCrypto attaches the decryption context needed by the WZ-specific
// readers. dataStart is the archive's data-section start (fStart);
// versionHash is the file-wide version hash used to de-obfuscate offsets.
func (r *Reader) WithCrypto(key *crypto.Key, dataStart int64, versionHash uint32) *Reader {
	r.key = key
	r.dataStart = dataStart
	r.versionHash = versionHash
	return r
}

// Clone returns an independent reader over the same backing buffer at the
// same position, with its own keystream clone. Safe to hand to a
// concurrent goroutine.
func (r *Reader) Clone() *Reader {
	clone := &Reader{buf: r.buf, pos: r.pos, dataStart: r.dataStart, versionHash: r.versionHash}
	if r.key != nil {
		clone.key = r.key.Clone(int(r.pos) + 1)
	}
	return clone
}

func (r *Reader) Len() int64      { return int64(len(r.buf)) }
func (r *Reader) Pos() int64      { return r.pos }
func (r *Reader) DataStart() int64 { return r.dataStart }
func (r *Reader) VersionHash() uint32 { return r.versionHash }
func (r *Reader) Key() *crypto.Key { return r.key }

func (r *Reader) Seek(pos int64) { r.pos = pos }
func (r *Reader) Skip(n int64)   { r.pos += n }

// Bytes returns the full backing buffer (read-only; callers must not
// mutate it). Used by provenance to hold a shared slice reference.
func (r *Reader) Bytes() []byte { return r.buf }

func (r *Reader) require(n int64) error {
	if r.pos < 0 || r.pos+n > int64(len(r.buf)) {
		return wzerr.New(wzerr.TruncatedInput, r.pos, "read past end of buffer")
	}
	return nil
}

func (r *Reader) take(n int64) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

func (r *Reader) ReadBytes(n int64) ([]byte, error) {
	if n < 0 {
		return nil, wzerr.New(wzerr.DecodeError, r.pos, "negative length")
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadASCII reads a fixed-length, non-decrypted byte string.
func (r *Reader) ReadASCII(n int64) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadASCIIZ reads a null-terminated, non-decrypted byte string.
func (r *Reader) ReadASCIIZ() (string, error) {
	start := r.pos
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(r.buf[start : r.pos-1]), nil
		}
	}
}
