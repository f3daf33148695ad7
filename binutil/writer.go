package binutil

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer is a growable byte buffer with the same WZ-specific encodings as
// Reader, plus the string-interning caches used by the archive writer.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Pos() int64   { return int64(w.buf.Len()) }
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteByte(b byte) error { return w.buf.WriteByte(b) }

func (w *Writer) WriteInt8(v int8) error { return w.buf.WriteByte(byte(v)) }

func (w *Writer) WriteUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.buf.Write(b[:])
	return err
}

func (w *Writer) WriteInt16(v int16) error { return w.WriteUint16(uint16(v)) }

func (w *Writer) WriteUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.buf.Write(b[:])
	return err
}

func (w *Writer) WriteInt32(v int32) error { return w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.buf.Write(b[:])
	return err
}

func (w *Writer) WriteInt64(v int64) error { return w.WriteUint64(uint64(v)) }

func (w *Writer) WriteFloat32(v float32) error { return w.WriteUint32(math.Float32bits(v)) }

func (w *Writer) WriteFloat64(v float64) error { return w.WriteUint64(math.Float64bits(v)) }

func (w *Writer) WriteBytes(b []byte) error {
	_, err := w.buf.Write(b)
	return err
}

func (w *Writer) WriteASCII(s string) error {
	_, err := w.buf.WriteString(s)
	return err
}

func (w *Writer) WriteASCIIZ(s string) error {
	if err := w.WriteASCII(s); err != nil {
		return err
	}
	return w.buf.WriteByte(0)
}

// PatchUint32 overwrites 4 bytes already written at offset. Used for an
// extended property's block length, which is only known once the block's
// body has been emitted.
func (w *Writer) PatchUint32(offset int64, v uint32) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint32(b[offset:offset+4], v)
}

func (w *Writer) PatchUint64(offset int64, v uint64) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint64(b[offset:offset+8], v)
}
