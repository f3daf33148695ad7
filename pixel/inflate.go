// Package pixel implements the canvas payload pipeline: truncation-tolerant
// inflate, then one of seven packed/block-compressed pixel format decoders
// producing RGBA8888, then a PNG encode hook.
package pixel

import (
	"bytes"
	"io"

	"github.com/dsnet/compress/flate"
)

// inflate decompresses payload (raw deflate, no zlib framing) and returns
// exactly expectedLen bytes (nil when expectedLen is not positive). Many archived payloads end without a proper
// end-of-stream marker, so a short read or decode error is not itself a
// failure: whatever bytes were produced before the fault are kept, and the
// result is zero-padded to expectedLen so format unpackers can index it
// without bounds checks.
func inflate(payload []byte, expectedLen int) []byte {
	if expectedLen <= 0 {
		return nil
	}

	r := flate.NewReader(bytes.NewReader(payload))
	defer r.Close()

	out := make([]byte, expectedLen)
	n, _ := io.ReadFull(r, out)
	for i := n; i < expectedLen; i++ {
		out[i] = 0
	}
	return out
}

// expectedInflatedSize is §4.5's per-format table.
func expectedInflatedSize(format int32, w, h int) int {
	switch format {
	case 1: // BGRA4444
		return 2 * w * h
	case 2: // BGRA8888
		return 4 * w * h
	case 3, 1026: // DXT3
		return 4 * w * h
	case 257: // ARGB1555
		return 2 * w * h
	case 513: // RGB565
		return 2 * w * h
	case 517: // RGB565 16x16 macro-block
		return (w*h + 127) / 128
	case 2050: // DXT5
		return w * h
	default: // unrecognized formats fall back to BGRA8888's layout
		return 4 * w * h
	}
}
