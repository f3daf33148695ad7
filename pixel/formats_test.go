package pixel

import (
	"bytes"
	"errors"
	"testing"

	"github.com/libevm/schlop-app/wzerr"
)

func TestUnpackBGRA4444SinglePixel(t *testing.T) {
	raw := []byte{0x34, 0x12} // little-endian word 0x1234
	got := unpackBGRA4444(raw, 1, 1)
	want := []byte{0x22, 0x33, 0x44, 0x11} // r,g,b,a each nibble-doubled
	if !bytes.Equal(got, want) {
		t.Fatalf("unpackBGRA4444 = % x, want % x", got, want)
	}
}

func TestUnpackBGRA8888SwapsRedAndBlue(t *testing.T) {
	raw := []byte{10, 20, 30, 40} // B,G,R,A on disk
	got := unpackBGRA8888(raw, 1, 1)
	want := []byte{30, 20, 10, 40} // R,G,B,A
	if !bytes.Equal(got, want) {
		t.Fatalf("unpackBGRA8888 = % x, want % x", got, want)
	}
}

func TestUnpackARGB1555OpaqueBlackHighBit(t *testing.T) {
	raw := []byte{0x00, 0x80} // word 0x8000: alpha bit set, rgb zero
	got := unpackARGB1555(raw, 1, 1)
	want := []byte{0, 0, 0, 255}
	if !bytes.Equal(got, want) {
		t.Fatalf("unpackARGB1555 = % x, want % x", got, want)
	}
}

func TestUnpackRGB565AllOnesIsWhite(t *testing.T) {
	raw := []byte{0xFF, 0xFF}
	got := unpackRGB565(raw, 1, 1)
	want := []byte{255, 255, 255, 255}
	if !bytes.Equal(got, want) {
		t.Fatalf("unpackRGB565 = % x, want % x", got, want)
	}
}

// Each of the seven decoders must always produce exactly 4*w*h bytes,
// regardless of how much raw data was available.
func TestDecodedBufferAreaInvariant(t *testing.T) {
	const w, h = 9, 5 // deliberately not a multiple of 4 or 16
	area := 4 * w * h

	cases := []struct {
		name string
		fn   func([]byte, int, int) []byte
		raw  []byte
	}{
		{"BGRA4444", unpackBGRA4444, make([]byte, 2*w*h)},
		{"BGRA8888", unpackBGRA8888, make([]byte, 4*w*h)},
		{"ARGB1555", unpackARGB1555, make([]byte, 2*w*h)},
		{"RGB565", unpackRGB565, make([]byte, 2*w*h)},
		{"RGB565Block", unpackRGB565Block, make([]byte, 2*((w+15)/16)*((h+15)/16))},
		{"DXT3", unpackDXT3, make([]byte, 16*((w+3)/4)*((h+3)/4))},
		{"DXT5", unpackDXT5, make([]byte, 16*((w+3)/4)*((h+3)/4))},
	}

	for _, c := range cases {
		got := c.fn(c.raw, w, h)
		if len(got) != area {
			t.Errorf("%s: len(output) = %d, want %d", c.name, len(got), area)
		}
	}
}

func TestDecodeUnknownFormatFallsBackToBGRA8888(t *testing.T) {
	const w, h = 2, 2
	out, err := Decode(99999, w, h, nil)
	if len(out) != 4*w*h {
		t.Fatalf("fallback buffer length = %d, want %d", len(out), 4*w*h)
	}
	var wzErr *wzerr.Error
	if !errors.As(err, &wzErr) || wzErr.Code != wzerr.UnknownPixelFormat {
		t.Fatalf("expected wzerr.UnknownPixelFormat, got %v", err)
	}
}

func TestDecodeKnownFormatsReturnNoError(t *testing.T) {
	for _, format := range []int32{1, 2, 3, 1026, 257, 513, 517, 2050} {
		_, err := Decode(format, 4, 4, nil)
		if err != nil {
			t.Errorf("Decode(format=%d): unexpected error %v", format, err)
		}
	}
}
