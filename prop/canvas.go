package prop

import (
	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
)

// parseCanvas reads a Canvas extended property: optional metadata sub-list,
// dimensions, packed pixel format, and the compressed payload's location.
// The payload itself is never inflated here — only recorded as provenance
// (§3.3); decoding happens on first demand via the pixel package.
func parseCanvas(r *binutil.Reader, dataStart int64, name string, opts Options) (*tree.Node, error) {
	node := tree.New(tree.TagCanvas, name)

	r.Skip(1) // unknown

	hasMeta, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if hasMeta == 1 {
		if err := Parse(r, dataStart, node, opts); err != nil {
			return nil, err
		}
	}

	width, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	height, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	formatLow, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	formatHigh, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	node.Width = width
	node.Height = height
	node.PixelFormat = formatLow | (formatHigh << 8)

	r.Skip(4) // reserved

	rawLen, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	payloadLen := int64(rawLen) - 1
	if payloadLen < 0 {
		return nil, wzerr.New(wzerr.DecodeError, r.Pos(), "negative canvas payload length")
	}

	headerByte, err := r.ReadByte() // zlib header byte
	if err != nil {
		return nil, err
	}

	offset := r.Pos()
	node.CanvasProv = &tree.CanvasProvenance{
		Buf:        r.Bytes(),
		Offset:     offset,
		Length:     payloadLen,
		HeaderByte: headerByte,
	}
	r.Seek(offset + payloadLen)

	return node, nil
}
