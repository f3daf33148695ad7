package archive

import (
	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/tree"
)

// chooseUnicode reports whether s needs the UTF-16 string encoding. ASCII
// text always takes the compact 8-bit branch; anything with a non-ASCII
// rune takes the UTF-16 branch, matching the branch ReadEncryptedString
// would pick apart on re-parse.
func chooseUnicode(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

// compressedIntLen is the on-disk byte length WriteCompressedInt produces
// for v.
func compressedIntLen(v int32) int64 {
	if v >= -127 && v <= 127 {
		return 1
	}
	return 5
}

// encStringLen is the on-disk byte length WriteEncryptedString produces for
// s, not counting the leading string-or-offset discriminator byte.
func encStringLen(s string) int64 {
	n := int64(len([]rune(s)))
	if chooseUnicode(s) {
		if n < 127 {
			return 1 + n*2
		}
		return 5 + n*2
	}
	if n < 128 {
		return 1 + n
	}
	return 5 + n
}

type nameKey struct {
	kind binutil.DirectoryNameKind
	name string
}

// nameEntryLen mirrors DirectoryNameCache.WriteInterned's size decision: a
// repeat of a name longer than 4 characters costs 1+4 bytes (discriminator
// + offset); anything else costs 1+encStringLen(name). seen must be shared
// across an entire archive's sizing pass, matching the cache's lifetime.
func nameEntryLen(seen map[nameKey]bool, kind binutil.DirectoryNameKind, name string) int64 {
	if len(name) > 4 {
		k := nameKey{kind, name}
		if seen[k] {
			return 1 + 4
		}
		seen[k] = true
	}
	return 1 + encStringLen(name)
}

// splitChildren partitions a dir/file node's children into images and
// subdirectories, preserving relative order within each group. Images
// always precede subdirectories in both directory-entry and image-data
// emission order (§9's ordering note).
func splitChildren(node *tree.Node) (images, dirs []*tree.Node) {
	for _, c := range node.Children() {
		switch c.Tag {
		case tree.TagImage:
			images = append(images, c)
		case tree.TagDir:
			dirs = append(dirs, c)
		}
	}
	return images, dirs
}

// offsetSize computes the byte length of node's own directory block (entry
// count plus every entry), recording each subdirectory's offsetSize into
// sizes along the way since a dir entry's "size" field is the child's own
// offsetSize, not a recursive total.
func offsetSize(node *tree.Node, seen map[nameKey]bool, images map[*tree.Node]imageResult, sizes map[*tree.Node]int64) int64 {
	imgs, dirs := splitChildren(node)

	total := compressedIntLen(int32(len(imgs) + len(dirs)))

	// Intern this node's own entry names before recursing into any
	// subdirectory, in the same order emitDirectory writes them (images,
	// then dirs, then each dir's own subtree) — otherwise the two caches'
	// idea of a name's "first occurrence" can diverge between the sizing
	// and emit passes.
	imgNameLens := make([]int64, len(imgs))
	for i, img := range imgs {
		imgNameLens[i] = nameEntryLen(seen, binutil.ImageEntry, img.Name)
	}
	dirNameLens := make([]int64, len(dirs))
	for i, d := range dirs {
		dirNameLens[i] = nameEntryLen(seen, binutil.DirEntry, d.Name)
	}

	for i, img := range imgs {
		res := images[img]
		total += imgNameLens[i]
		total += compressedIntLen(int32(len(res.data)))
		total += compressedIntLen(res.checksum)
		total += 4
	}
	for i, d := range dirs {
		childSize := offsetSize(d, seen, images, sizes)
		sizes[d] = childSize
		total += dirNameLens[i]
		total += compressedIntLen(int32(childSize))
		total += compressedIntLen(0)
		total += 4
	}
	return total
}

// assignDirOffsets walks node's subdirectories depth-first, placing each
// one immediately after the previous directory block starting at *cursor.
// node's own offset must already be assigned by the caller.
func assignDirOffsets(node *tree.Node, cursor *int64, offsets, sizes map[*tree.Node]int64) {
	_, dirs := splitChildren(node)
	for _, d := range dirs {
		offsets[d] = *cursor
		*cursor += sizes[d]
		assignDirOffsets(d, cursor, offsets, sizes)
	}
}

// assignImageOffsets walks the tree depth-first, placing each image's data
// block consecutively starting at *cursor: a directory's own images first,
// then its subdirectories' images (mirroring assignDirOffsets' shape).
func assignImageOffsets(node *tree.Node, cursor *int64, offsets map[*tree.Node]int64, images map[*tree.Node]imageResult) {
	imgs, dirs := splitChildren(node)
	for _, img := range imgs {
		offsets[img] = *cursor
		*cursor += int64(len(images[img].data))
	}
	for _, d := range dirs {
		assignImageOffsets(d, cursor, offsets, images)
	}
}
