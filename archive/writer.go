package archive

import (
	"sync"

	"github.com/goinggo/workpool"

	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/crypto"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
	"github.com/libevm/schlop-app/wzfmt"
)

// imageResult is one image's Pass 1 output: its serialized byte block and
// the checksum computed over it.
type imageResult struct {
	data     []byte
	checksum int32
}

// Writer emits a tree as a fresh archive buffer via the three-pass
// layout-then-emit algorithm (§4.7).
type Writer struct{}

func NewWriter() *Writer { return &Writer{} }

// Repack emits root as a classic-layout archive for the given regional
// variant's 4-byte IV and patch version. original, if supplied, enables the
// verbatim fast path for unmodified images and must share the emitted
// archive's data-section start and version hash (MismatchedLayoutParameters
// otherwise).
func (wtr *Writer) Repack(root *tree.Node, variant [4]byte, patch int, original []byte) ([]byte, error) {
	return wtr.repack(root, variant, patch, original, nil)
}

// RepackConcurrent is Repack with Pass 1's per-image serialization fanned
// out across pool. A nil pool behaves exactly like Repack.
func (wtr *Writer) RepackConcurrent(root *tree.Node, variant [4]byte, patch int, original []byte, pool *workpool.WorkPool) ([]byte, error) {
	return wtr.repack(root, variant, patch, original, pool)
}

func (wtr *Writer) repack(root *tree.Node, iv [4]byte, patch int, original []byte, pool *workpool.WorkPool) ([]byte, error) {
	dataStart := int64(16 + len(wzfmt.CopyrightString) + 1)
	hash := wzfmt.VersionHash(patch)
	versionHeader := wzfmt.ObfuscateVersionHash(hash)

	fastPathOK := original != nil
	if fastPathOK {
		if err := checkFastPathCompatible(original, dataStart, hash); err != nil {
			return nil, err
		}
	}

	key := crypto.NewKey(iv)

	images, err := wtr.serializeAll(root, original, fastPathOK, key, dataStart, pool)
	if err != nil {
		return nil, err
	}

	seen := map[nameKey]bool{}
	sizes := map[*tree.Node]int64{}
	rootSize := offsetSize(root, seen, images, sizes)

	dirStart := dataStart + 2
	dirOffsets := map[*tree.Node]int64{root: dirStart}
	cursor := dirStart + rootSize
	assignDirOffsets(root, &cursor, dirOffsets, sizes)
	dirEnd := cursor

	imageOffsets := map[*tree.Node]int64{}
	imgCursor := dirEnd
	assignImageOffsets(root, &imgCursor, imageOffsets, images)

	out := binutil.NewWriter()
	if err := out.WriteASCII("PKG1"); err != nil {
		return nil, err
	}
	sizePos := out.Pos()
	if err := out.WriteUint64(0); err != nil {
		return nil, err
	}
	if err := out.WriteInt32(int32(dataStart)); err != nil {
		return nil, err
	}
	if err := out.WriteASCIIZ(wzfmt.CopyrightString); err != nil {
		return nil, err
	}
	for out.Pos() < dataStart {
		if err := out.WriteByte(0); err != nil {
			return nil, err
		}
	}
	if err := out.WriteUint16(versionHeader); err != nil {
		return nil, err
	}

	dirCache := binutil.NewDirectoryNameCache()
	if err := emitDirectory(out, root, dataStart, hash, key, dirOffsets, imageOffsets, sizes, images, dirCache); err != nil {
		return nil, err
	}
	if err := emitImageData(out, root, images); err != nil {
		return nil, err
	}

	out.PatchUint64(sizePos, uint64(out.Pos()-dataStart))
	return out.Bytes(), nil
}

// checkFastPathCompatible verifies original shares the new archive's
// data-section start and version hash, per §4.7's fast-path correctness
// rule: a mismatch would make the copied images' inline offsets resolve
// incorrectly on re-parse, so the write is refused outright rather than
// silently falling back to full re-serialization.
func checkFastPathCompatible(original []byte, dataStart int64, hash uint32) error {
	r := binutil.NewReader(original)
	hdr, err := readHeader(r)
	if err != nil {
		return err
	}
	isSixtyFour, err := detectLayout(r, hdr.DataStart)
	if err != nil {
		return err
	}
	if isSixtyFour || hdr.DataStart != dataStart {
		return wzerr.New(wzerr.MismatchedLayoutParameters, -1, "original archive's data-section start does not match the requested layout")
	}
	r.Seek(hdr.DataStart)
	origHeader, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if !wzfmt.MatchesVersionHeader(origHeader, hash, false) {
		return wzerr.New(wzerr.MismatchedLayoutParameters, -1, "original archive's version hash does not match the requested patch")
	}
	return nil
}

// serializeAll runs Pass 1 over every image under root, optionally fanning
// the work out across pool.
func (wtr *Writer) serializeAll(root *tree.Node, original []byte, fastPathOK bool, key *crypto.Key, dataStart int64, pool *workpool.WorkPool) (map[*tree.Node]imageResult, error) {
	var imgs []*tree.Node
	root.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			imgs = append(imgs, n)
		}
		return true
	})

	results := make(map[*tree.Node]imageResult, len(imgs))

	if pool == nil {
		for _, img := range imgs {
			res, err := serializeImage(img, original, fastPathOK, key, dataStart, nil)
			if err != nil {
				return nil, err
			}
			results[img] = res
		}
		return results, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	for _, img := range imgs {
		wg.Add(1)
		work := &serializeWork{
			node: img, original: original, fastPathOK: fastPathOK,
			key: key, dataStart: dataStart,
			wg: &wg, mu: &mu, out: results, errCh: errCh,
		}
		if err := pool.PostWork("archive-serialize", work); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
		return results, nil
	}
}

// serializeWork adapts one image's Pass 1 serialization to
// workpool.PoolWorker. Each unit clones the keystream so concurrent
// goroutines never share one Key's mutable expansion state (§9).
type serializeWork struct {
	node       *tree.Node
	original   []byte
	fastPathOK bool
	key        *crypto.Key
	dataStart  int64
	wg         *sync.WaitGroup
	mu         *sync.Mutex
	out        map[*tree.Node]imageResult
	errCh      chan<- error
}

func (w *serializeWork) DoWork(workRoutine int) {
	defer w.wg.Done()
	localKey := w.key.Clone(0)
	res, err := serializeImage(w.node, w.original, w.fastPathOK, localKey, w.dataStart, nil)
	if err != nil {
		select {
		case w.errCh <- err:
		default:
		}
		return
	}
	w.mu.Lock()
	w.out[w.node] = res
	w.mu.Unlock()
}

// subtreeModified reports whether n or any descendant carries Modified.
func subtreeModified(n *tree.Node) bool {
	modified := false
	n.Walk(func(c *tree.Node) bool {
		if c.Modified {
			modified = true
			return false
		}
		return true
	})
	return modified
}

// checksum is the byte sum of b, modulo 2^31 (§4.7 Pass 1).
func checksum(b []byte) int32 {
	var sum int64
	for _, c := range b {
		sum += int64(c)
	}
	return int32(sum % (1 << 31))
}

// serializeImage is Pass 1 for one image: a verbatim copy of the source
// slice when eligible, otherwise a full re-emit from the tree.
func serializeImage(img *tree.Node, original []byte, fastPathOK bool, key *crypto.Key, dataStart int64, warn wzerr.Warner) (imageResult, error) {
	if fastPathOK && img.ImageProv != nil && !subtreeModified(img) {
		prov := img.ImageProv
		if prov.Offset < 0 || prov.Offset+prov.Length > int64(len(original)) {
			return imageResult{}, wzerr.New(wzerr.DecodeError, prov.Offset, "image provenance out of range for fast-path copy")
		}
		raw := original[prov.Offset : prov.Offset+prov.Length]
		out := make([]byte, len(raw))
		copy(out, raw)
		return imageResult{data: out, checksum: checksum(out)}, nil
	}

	w := binutil.NewWriter()
	if err := w.WriteByte(0x73); err != nil {
		return imageResult{}, err
	}
	if err := w.WriteEncryptedString("Property", false, key); err != nil {
		return imageResult{}, err
	}
	if err := w.WriteUint16(0); err != nil {
		return imageResult{}, err
	}

	cache := binutil.NewPropertyStringCache()
	if err := writePropertyList(w, img, dataStart, key, cache, warn); err != nil {
		return imageResult{}, err
	}

	data := w.Bytes()
	return imageResult{data: data, checksum: checksum(data)}, nil
}

// writePropertyList emits the reserved uint16, the compressed-int entry
// count, and every child entry. It is reused identically for top-level
// image properties, nested "Property" sub-lists, and canvas metadata.
func writePropertyList(w *binutil.Writer, parent *tree.Node, dataStart int64, key *crypto.Key, cache *binutil.PropertyStringCache, warn wzerr.Warner) error {
	if err := w.WriteUint16(0); err != nil {
		return err
	}
	children := parent.Children()
	if err := w.WriteCompressedInt(int32(len(children))); err != nil {
		return err
	}
	for _, c := range children {
		if err := cache.WriteInterned(w, c.Name, dataStart, key, chooseUnicode(c.Name)); err != nil {
			return err
		}
		if err := writeEntry(w, c, dataStart, key, cache, warn); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w *binutil.Writer, n *tree.Node, dataStart int64, key *crypto.Key, cache *binutil.PropertyStringCache, warn wzerr.Warner) error {
	switch n.Tag {
	case tree.TagNull:
		return w.WriteByte(0)

	case tree.TagShort:
		if err := w.WriteByte(2); err != nil {
			return err
		}
		return w.WriteInt16(int16(n.IntValue))

	case tree.TagInt:
		if err := w.WriteByte(3); err != nil {
			return err
		}
		return w.WriteCompressedInt(int32(n.IntValue))

	case tree.TagFloat:
		if err := w.WriteByte(4); err != nil {
			return err
		}
		if n.FloatValue == 0 {
			return w.WriteByte(0)
		}
		if err := w.WriteByte(0x80); err != nil {
			return err
		}
		return w.WriteFloat32(float32(n.FloatValue))

	case tree.TagDouble:
		if err := w.WriteByte(5); err != nil {
			return err
		}
		return w.WriteFloat64(n.FloatValue)

	case tree.TagString:
		if err := w.WriteByte(8); err != nil {
			return err
		}
		return cache.WriteInterned(w, n.StringValue, dataStart, key, chooseUnicode(n.StringValue))

	case tree.TagLong:
		if err := w.WriteByte(20); err != nil {
			return err
		}
		return w.WriteCompressedLong(n.IntValue)

	case tree.TagSub, tree.TagVector, tree.TagConvex, tree.TagCanvas, tree.TagSound, tree.TagUOL:
		return writeExtended(w, n, dataStart, key, cache, warn)

	default:
		return wzerr.New(wzerr.DecodeError, w.Pos(), "unwritable property tag")
	}
}

// writeExtended writes tag 9, a placeholder block length, the extended
// body, then patches the length once the body's true size is known.
func writeExtended(w *binutil.Writer, n *tree.Node, dataStart int64, key *crypto.Key, cache *binutil.PropertyStringCache, warn wzerr.Warner) error {
	if err := w.WriteByte(9); err != nil {
		return err
	}
	lenPos := w.Pos()
	if err := w.WriteUint32(0); err != nil {
		return err
	}
	bodyStart := w.Pos()

	if err := writeExtendedBody(w, n, dataStart, key, cache, warn); err != nil {
		return err
	}

	w.PatchUint32(lenPos, uint32(w.Pos()-bodyStart))
	return nil
}

// writeExtendedBody writes the type name followed by the type-specific
// body, with no surrounding tag9/length wrapper. Convex children call this
// directly (no length prefix per child, per §4.3).
func writeExtendedBody(w *binutil.Writer, n *tree.Node, dataStart int64, key *crypto.Key, cache *binutil.PropertyStringCache, warn wzerr.Warner) error {
	if err := writeExtendedName(w, extendedTypeName(n.Tag), dataStart, key); err != nil {
		return err
	}

	switch n.Tag {
	case tree.TagSub:
		return writePropertyList(w, n, dataStart, key, cache, warn)

	case tree.TagVector:
		if err := w.WriteCompressedInt(n.X); err != nil {
			return err
		}
		return w.WriteCompressedInt(n.Y)

	case tree.TagConvex:
		children := n.Children()
		if err := w.WriteCompressedInt(int32(len(children))); err != nil {
			return err
		}
		for _, child := range children {
			if err := writeExtendedBody(w, child, dataStart, key, cache, warn); err != nil {
				return err
			}
		}
		return nil

	case tree.TagCanvas:
		return writeCanvas(w, n, dataStart, key, cache, warn)

	case tree.TagSound:
		return writeSound(w, n)

	case tree.TagUOL:
		if err := w.WriteByte(0); err != nil {
			return err
		}
		return writeExtendedName(w, n.StringValue, dataStart, key)

	default:
		return wzerr.New(wzerr.DecodeError, w.Pos(), "unwritable extended tag")
	}
}

func extendedTypeName(tag tree.Tag) string {
	switch tag {
	case tree.TagSub:
		return "Property"
	case tree.TagCanvas:
		return "Canvas"
	case tree.TagVector:
		return "Shape2D#Vector2D"
	case tree.TagConvex:
		return "Shape2D#Convex2D"
	case tree.TagSound:
		return "Sound_DX8"
	case tree.TagUOL:
		return "UOL"
	default:
		return ""
	}
}

// writeExtendedName always uses the inline discriminator: extended-type
// names and UOL targets are short and not worth the directory-style
// interning the property-value and directory-name caches provide.
func writeExtendedName(w *binutil.Writer, name string, dataStart int64, key *crypto.Key) error {
	if err := w.WriteByte(0x73); err != nil {
		return err
	}
	return w.WriteEncryptedString(name, chooseUnicode(name), key)
}

func writeCanvas(w *binutil.Writer, n *tree.Node, dataStart int64, key *crypto.Key, cache *binutil.PropertyStringCache, warn wzerr.Warner) error {
	if err := w.WriteByte(0); err != nil { // unknown
		return err
	}

	hasMeta := len(n.Children()) > 0
	if hasMeta {
		if err := w.WriteByte(1); err != nil {
			return err
		}
		if err := writePropertyList(w, n, dataStart, key, cache, warn); err != nil {
			return err
		}
	} else {
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}

	if err := w.WriteCompressedInt(n.Width); err != nil {
		return err
	}
	if err := w.WriteCompressedInt(n.Height); err != nil {
		return err
	}
	if err := w.WriteCompressedInt(n.PixelFormat & 0xFF); err != nil {
		return err
	}
	if err := w.WriteCompressedInt(n.PixelFormat >> 8); err != nil {
		return err
	}
	if err := w.WriteBytes(make([]byte, 4)); err != nil { // reserved
		return err
	}

	if n.CanvasProv == nil {
		return wzerr.New(wzerr.CanvasPayloadMissing, w.Pos(), "canvas has no recorded compressed payload to re-emit")
	}
	payload := n.CanvasProv.Payload()
	if err := w.WriteInt32(int32(len(payload)) + 1); err != nil {
		return err
	}
	if err := w.WriteByte(n.CanvasProv.HeaderByte); err != nil {
		return err
	}
	return w.WriteBytes(payload)
}

// writeSound emits a sound node's header and data verbatim. Sound bytes are
// an opaque, already-compressed container (unlike Canvas pixels, nothing
// here needs re-encoding), so a host-supplied SoundHeader/SoundData pair is
// an equally valid source to original provenance.
func writeSound(w *binutil.Writer, n *tree.Node) error {
	var header, data []byte
	switch {
	case n.SoundProv != nil:
		header, data = n.SoundProv.Header(), n.SoundProv.Data()
	case n.SoundHeader != nil && n.SoundData != nil:
		header, data = n.SoundHeader, n.SoundData
	default:
		return wzerr.New(wzerr.DecodeError, w.Pos(), "sound has no recorded header/data payload to re-emit")
	}

	if err := w.WriteByte(0); err != nil { // unknown
		return err
	}
	if err := w.WriteCompressedInt(int32(len(data))); err != nil {
		return err
	}
	if err := w.WriteCompressedInt(n.DurationMS); err != nil {
		return err
	}
	if err := w.WriteBytes(header); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// emitDirectory writes node's own directory block (images before
// subdirectories, per §9's ordering note), then recurses into each
// subdirectory's block in the same depth-first order assignDirOffsets used.
func emitDirectory(w *binutil.Writer, node *tree.Node, dataStart int64, hash uint32, key *crypto.Key, dirOffsets, imageOffsets, sizes map[*tree.Node]int64, images map[*tree.Node]imageResult, cache *binutil.DirectoryNameCache) error {
	imgs, dirs := splitChildren(node)

	if len(imgs) == 0 && len(dirs) == 0 {
		return w.WriteByte(0)
	}

	if err := w.WriteCompressedInt(int32(len(imgs) + len(dirs))); err != nil {
		return err
	}

	for _, img := range imgs {
		if err := cache.WriteInterned(w, binutil.ImageEntry, img.Name, dataStart, key, chooseUnicode(img.Name)); err != nil {
			return err
		}
		res := images[img]
		if err := w.WriteCompressedInt(int32(len(res.data))); err != nil {
			return err
		}
		if err := w.WriteCompressedInt(res.checksum); err != nil {
			return err
		}
		if err := w.WriteEncryptedOffset(imageOffsets[img], dataStart, hash); err != nil {
			return err
		}
	}
	for _, d := range dirs {
		if err := cache.WriteInterned(w, binutil.DirEntry, d.Name, dataStart, key, chooseUnicode(d.Name)); err != nil {
			return err
		}
		if err := w.WriteCompressedInt(int32(sizes[d])); err != nil {
			return err
		}
		if err := w.WriteCompressedInt(0); err != nil {
			return err
		}
		if err := w.WriteEncryptedOffset(dirOffsets[d], dataStart, hash); err != nil {
			return err
		}
	}

	for _, d := range dirs {
		if err := emitDirectory(w, d, dataStart, hash, key, dirOffsets, imageOffsets, sizes, images, cache); err != nil {
			return err
		}
	}
	return nil
}

func emitImageData(w *binutil.Writer, node *tree.Node, images map[*tree.Node]imageResult) error {
	imgs, dirs := splitChildren(node)
	for _, img := range imgs {
		if err := w.WriteBytes(images[img].data); err != nil {
			return err
		}
	}
	for _, d := range dirs {
		if err := emitImageData(w, d, images); err != nil {
			return err
		}
	}
	return nil
}
