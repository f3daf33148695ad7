package pixel

import (
	"bytes"
	"image"
	"image/png"

	"github.com/libevm/schlop-app/wzerr"
)

// PNGEncoder is the host capability the core calls into for the
// decode_canvas → PNG step, so nothing under this module is tied to one
// particular image library (§4.5/§6.1).
type PNGEncoder func(rgba []byte, w, h int) ([]byte, error)

// EncodePNG is the default PNGEncoder, backed by the standard library: no
// third-party PNG encoder appears anywhere in the corpus this module was
// built from, and the core's contract explicitly treats this step as a
// swappable host hook rather than a core dependency.
func EncodePNG(rgba []byte, w, h int) ([]byte, error) {
	if len(rgba) != 4*w*h {
		return nil, wzerr.New(wzerr.DecodeError, -1, "rgba buffer does not match width*height*4")
	}

	img := &image.NRGBA{
		Pix:    rgba,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, wzerr.Wrap(wzerr.DecodeError, -1, "png encode failed", err)
	}
	return buf.Bytes(), nil
}
