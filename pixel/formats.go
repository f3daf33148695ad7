package pixel

import (
	"fmt"

	"github.com/libevm/schlop-app/wzerr"
)

// Decode inflates and unpacks a canvas payload to an RGBA8888 buffer of
// exactly 4*w*h bytes. An unrecognized format id is treated as BGRA8888
// (§4.5) and reported back as a non-nil *wzerr.Error of code
// UnknownPixelFormat alongside the (best-effort) fallback buffer, so
// strict callers can branch on it while lenient callers can ignore it.
func Decode(format int32, w, h int, payload []byte) ([]byte, error) {
	size := expectedInflatedSize(format, w, h)
	raw := inflate(payload, size)

	switch format {
	case 1:
		return unpackBGRA4444(raw, w, h), nil
	case 2:
		return unpackBGRA8888(raw, w, h), nil
	case 3, 1026:
		return unpackDXT3(raw, w, h), nil
	case 257:
		return unpackARGB1555(raw, w, h), nil
	case 513:
		return unpackRGB565(raw, w, h), nil
	case 517:
		return unpackRGB565Block(raw, w, h), nil
	case 2050:
		return unpackDXT5(raw, w, h), nil
	default:
		fallback := unpackBGRA8888(inflate(payload, 4*w*h), w, h)
		return fallback, wzerr.New(wzerr.UnknownPixelFormat, -1, fmt.Sprintf("unrecognized pixel format %d, falling back to BGRA8888", format))
	}
}

func rescale5(v byte) byte { return byte((int(v) * 255) / 31) }
func rescale6(v byte) byte { return byte((int(v) * 255) / 63) }

func unpackBGRA4444(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	for i := 0; i < w*h; i++ {
		word := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		b := byte(word & 0xF)
		g := byte((word >> 4) & 0xF)
		r := byte((word >> 8) & 0xF)
		a := byte((word >> 12) & 0xF)
		o := out[4*i : 4*i+4]
		o[0] = r | (r << 4)
		o[1] = g | (g << 4)
		o[2] = b | (b << 4)
		o[3] = a | (a << 4)
	}
	return out
}

func unpackBGRA8888(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	copy(out, raw)
	for i := 0; i < w*h; i++ {
		o := out[4*i : 4*i+4]
		o[0], o[2] = o[2], o[0]
	}
	return out
}

func unpackARGB1555(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	for i := 0; i < w*h; i++ {
		word := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		a := byte(0)
		if word&0x8000 != 0 {
			a = 255
		}
		r := rescale5(byte((word >> 10) & 0x1F))
		g := rescale5(byte((word >> 5) & 0x1F))
		b := rescale5(byte(word & 0x1F))
		o := out[4*i : 4*i+4]
		o[0], o[1], o[2], o[3] = r, g, b, a
	}
	return out
}

func decodeRGB565(word uint16) (r, g, b byte) {
	r = rescale5(byte((word >> 11) & 0x1F))
	g = rescale6(byte((word >> 5) & 0x3F))
	b = rescale5(byte(word & 0x1F))
	return
}

func unpackRGB565(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	for i := 0; i < w*h; i++ {
		word := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		r, g, b := decodeRGB565(word)
		o := out[4*i : 4*i+4]
		o[0], o[1], o[2], o[3] = r, g, b, 255
	}
	return out
}

// unpackRGB565Block fills each 16x16 macro-block with a single decoded
// color, clipping at the image boundary for non-multiple-of-16 dimensions.
func unpackRGB565Block(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	blocksPerRow := (w + 15) / 16
	idx := 0
	for by := 0; by*16 < h; by++ {
		for bx := 0; bx < blocksPerRow; bx++ {
			if 2*(idx+1) > len(raw) {
				return out
			}
			word := uint16(raw[2*idx]) | uint16(raw[2*idx+1])<<8
			idx++
			r, g, b := decodeRGB565(word)

			x0, y0 := bx*16, by*16
			x1, y1 := x0+16, y0+16
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					o := out[4*(y*w+x) : 4*(y*w+x)+4]
					o[0], o[1], o[2], o[3] = r, g, b, 255
				}
			}
		}
	}
	return out
}

// blockColors expands a DXT3/DXT5 color block's two RGB565 reference
// colors to the full four-entry interpolated palette, each entry RGB only
// (alpha handled separately by the caller).
func blockColors(c0, c1 uint16) [4][3]byte {
	r0, g0, b0 := decodeRGB565(c0)
	r1, g1, b1 := decodeRGB565(c1)

	var pal [4][3]byte
	pal[0] = [3]byte{r0, g0, b0}
	pal[1] = [3]byte{r1, g1, b1}
	if c0 > c1 {
		pal[2] = [3]byte{
			byte((2*int(r0) + int(r1)) / 3),
			byte((2*int(g0) + int(g1)) / 3),
			byte((2*int(b0) + int(b1)) / 3),
		}
		pal[3] = [3]byte{
			byte((int(r0) + 2*int(r1)) / 3),
			byte((int(g0) + 2*int(g1)) / 3),
			byte((int(b0) + 2*int(b1)) / 3),
		}
	} else {
		pal[2] = [3]byte{
			byte((int(r0) + int(r1)) / 2),
			byte((int(g0) + int(g1)) / 2),
			byte((int(b0) + int(b1)) / 2),
		}
		pal[3] = [3]byte{0, 0, 0}
	}
	return pal
}

func unpackDXT3(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	blocksPerRow := (w + 3) / 4
	blocksPerCol := (h + 3) / 4

	blockIdx := 0
	for by := 0; by < blocksPerCol; by++ {
		for bx := 0; bx < blocksPerRow; bx++ {
			off := blockIdx * 16
			blockIdx++
			if off+16 > len(raw) {
				return out
			}
			block := raw[off : off+16]

			var alpha [16]byte
			for i := 0; i < 8; i++ {
				lo := block[i] & 0xF
				hi := block[i] >> 4
				alpha[2*i] = lo * 17
				alpha[2*i+1] = hi * 17
			}

			c0 := uint16(block[8]) | uint16(block[9])<<8
			c1 := uint16(block[10]) | uint16(block[11])<<8
			pal := blockColors(c0, c1)

			idxBytes := block[12:16]
			x0, y0 := bx*4, by*4
			for py := 0; py < 4; py++ {
				y := y0 + py
				if y >= h {
					continue
				}
				row := idxBytes[py]
				for px := 0; px < 4; px++ {
					x := x0 + px
					if x >= w {
						continue
					}
					idx := (row >> uint(px*2)) & 0x3
					col := pal[idx]
					o := out[4*(y*w+x) : 4*(y*w+x)+4]
					o[0], o[1], o[2], o[3] = col[0], col[1], col[2], alpha[py*4+px]
				}
			}
		}
	}
	return out
}

func unpackDXT5(raw []byte, w, h int) []byte {
	out := make([]byte, 4*w*h)
	blocksPerRow := (w + 3) / 4
	blocksPerCol := (h + 3) / 4

	blockIdx := 0
	for by := 0; by < blocksPerCol; by++ {
		for bx := 0; bx < blocksPerRow; bx++ {
			off := blockIdx * 16
			blockIdx++
			if off+16 > len(raw) {
				return out
			}
			block := raw[off : off+16]

			a0, a1 := block[0], block[1]
			var apal [8]byte
			apal[0], apal[1] = a0, a1
			if a0 > a1 {
				for i := 1; i <= 6; i++ {
					apal[1+i] = byte((int(7-i)*int(a0) + int(i)*int(a1) + 3) / 7)
				}
			} else {
				for i := 1; i <= 4; i++ {
					apal[1+i] = byte((int(5-i)*int(a0) + int(i)*int(a1) + 2) / 5)
				}
				apal[6] = 0
				apal[7] = 255
			}

			var aidx [16]byte
			abits := uint64(0)
			for i := 0; i < 6; i++ {
				abits |= uint64(block[2+i]) << (8 * uint(i))
			}
			for i := 0; i < 16; i++ {
				aidx[i] = byte((abits >> uint(i*3)) & 0x7)
			}

			c0 := uint16(block[8]) | uint16(block[9])<<8
			c1 := uint16(block[10]) | uint16(block[11])<<8
			pal := blockColors(c0, c1)

			idxBytes := block[12:16]
			x0, y0 := bx*4, by*4
			for py := 0; py < 4; py++ {
				y := y0 + py
				if y >= h {
					continue
				}
				row := idxBytes[py]
				for px := 0; px < 4; px++ {
					x := x0 + px
					if x >= w {
						continue
					}
					ci := (row >> uint(px*2)) & 0x3
					col := pal[ci]
					a := apal[aidx[py*4+px]]
					o := out[4*(y*w+x) : 4*(y*w+x)+4]
					o[0], o[1], o[2], o[3] = col[0], col[1], col[2], a
				}
			}
		}
	}
	return out
}
