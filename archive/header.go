// Package archive implements the top-level archive parser and writer: the
// PKG1 header, directory tree walk, version/variant auto-detection, and the
// three-pass "layout then emit" writer.
package archive

import (
	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/wzerr"
)

// Header holds the fixed PKG1 preamble fields.
type Header struct {
	FileSize   uint64
	DataStart  int64
	Copyright  string
	IsSixtyFour bool
	VersionHeader uint16
}

// readHeader parses the fixed PKG1 preamble: magic, file-size marker,
// data-section start, and the null-terminated copyright string.
func readHeader(r *binutil.Reader) (Header, error) {
	magic, err := r.ReadASCII(4)
	if err != nil {
		return Header{}, err
	}
	if magic != "PKG1" {
		return Header{}, wzerr.New(wzerr.MalformedHeader, 0, "missing PKG1 magic")
	}

	size, err := r.ReadUint64()
	if err != nil {
		return Header{}, err
	}
	dataStart, err := r.ReadInt32()
	if err != nil {
		return Header{}, err
	}
	copyright, err := r.ReadASCIIZ()
	if err != nil {
		return Header{}, err
	}

	return Header{
		FileSize:  size,
		DataStart: int64(dataStart),
		Copyright: copyright,
	}, nil
}

// detectLayout implements §4.4's classic/64-bit probe at the data-section
// start: a uint16 greater than 0xFF means 64-bit; a uint16 of exactly 0x80
// whose same-position int32 has a zero low byte and fits 16 bits also means
// 64-bit; otherwise classic. Always leaves r positioned at dataStart.
func detectLayout(r *binutil.Reader, dataStart int64) (isSixtyFour bool, err error) {
	r.Seek(dataStart)
	probe16, err := r.ReadUint16()
	if err != nil {
		return false, err
	}
	if probe16 > 0xFF {
		r.Seek(dataStart)
		return true, nil
	}
	if probe16 == 0x80 {
		r.Seek(dataStart)
		probe32, err := r.ReadInt32()
		if err != nil {
			return false, err
		}
		if byte(probe32) == 0 && probe32 <= 0xFFFF && probe32 >= 0 {
			r.Seek(dataStart)
			return true, nil
		}
	}
	r.Seek(dataStart)
	return false, nil
}
