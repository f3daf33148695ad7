package archive

import (
	"github.com/libevm/schlop-app/pixel"
	"github.com/libevm/schlop-app/sound"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
)

// DecodeCanvas decompresses and unpacks node's pixel payload to an RGBA8888
// buffer, reading its recorded compressed-payload provenance.
func DecodeCanvas(node *tree.Node) ([]byte, error) {
	if node.Tag != tree.TagCanvas {
		return nil, wzerr.New(wzerr.DecodeError, -1, "not a canvas node")
	}
	if node.CanvasProv == nil {
		return nil, wzerr.New(wzerr.CanvasPayloadMissing, -1, "canvas has no recorded compressed payload")
	}
	rgba, warn := pixel.Decode(node.PixelFormat, int(node.Width), int(node.Height), node.CanvasProv.Payload())
	if warn != nil {
		return rgba, warn
	}
	return rgba, nil
}

// ExtractSound returns node's opaque audio bytes and a MIME guess.
func ExtractSound(node *tree.Node) ([]byte, string, error) {
	if node.Tag != tree.TagSound {
		return nil, "", wzerr.New(wzerr.DecodeError, -1, "not a sound node")
	}

	var header, data []byte
	switch {
	case node.SoundProv != nil:
		header, data = node.SoundProv.Header(), node.SoundProv.Data()
	case node.SoundHeader != nil && node.SoundData != nil:
		header, data = node.SoundHeader, node.SoundData
	default:
		return nil, "", wzerr.New(wzerr.DecodeError, -1, "sound has no recorded header/data payload")
	}

	body, mime := sound.Extract(header, data)
	return body, mime, nil
}
