package prop

import (
	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/tree"
)

// soundHeaderFixedLen is the fixed container-metadata portion preceding the
// variable-length waveform extension block (§9's open question: a mismatch
// here is treated as a parse error on this image, not a variant reselection
// signal).
const soundHeaderFixedLen = 51

// parseSound reads a Sound_DX8 extended property: data length, duration,
// then a header of soundHeaderFixedLen bytes plus a length-prefixed
// extension block. Header and data are recorded as provenance slices, never
// copied.
func parseSound(r *binutil.Reader, name string) (*tree.Node, error) {
	node := tree.New(tree.TagSound, name)

	r.Skip(1) // unknown

	dataLen, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	duration, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	node.DurationMS = duration

	headerOffset := r.Pos()
	r.Skip(soundHeaderFixedLen)
	extLen, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Skip(int64(extLen))
	headerLen := r.Pos() - headerOffset

	dataOffset := r.Pos()

	node.SoundProv = &tree.SoundProvenance{
		Buf:          r.Bytes(),
		HeaderOffset: headerOffset,
		HeaderLength: headerLen,
		DataOffset:   dataOffset,
		DataLength:   int64(dataLen),
	}

	r.Seek(dataOffset + int64(dataLen))
	return node, nil
}
