// Package sound implements the sound extractor: magic-byte MIME dispatch
// over a sound node's opaque data block, plus a read-only view of the
// fixed-layout header bytes retained alongside it.
package sound

import "bytes"

// Extract returns data unchanged alongside a MIME guess from its leading
// bytes (§4.6). header is retained for re-emit but not interpreted here.
func Extract(header, data []byte) (body []byte, mime string) {
	return data, detectMIME(data)
}

func detectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return "audio/wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// HeaderLen is the fixed portion of a sound header preceding its
// variable-length extension block (§4.3's Sound_DX8 layout).
const HeaderLen = 51

// HeaderInfo is a read-only projection of a sound node's retained header
// bytes: the fixed WAVEFORMATEX-shaped prefix plus its trailing extension.
// This is purely additive — hosts that just want the opaque bytes can keep
// using Extract/archive.ExtractSound directly.
type HeaderInfo struct {
	Fixed     []byte // the 51-byte fixed header region
	Extension []byte // the variable-length trailing extension bytes
}

// ParseHeader splits a retained sound header into its fixed and extension
// regions. header must be at least HeaderLen+1 bytes (the fixed region plus
// the 1-byte extension-length prefix); a shorter header yields a zero-value
// HeaderInfo.
func ParseHeader(header []byte) HeaderInfo {
	if len(header) < HeaderLen+1 {
		return HeaderInfo{}
	}
	extLen := int(header[HeaderLen])
	end := HeaderLen + 1 + extLen
	if end > len(header) {
		end = len(header)
	}
	return HeaderInfo{
		Fixed:     header[:HeaderLen],
		Extension: header[HeaderLen+1 : end],
	}
}
