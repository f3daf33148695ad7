package archive

import (
	"strings"

	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/crypto"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
)

// entry is one raw directory entry before it becomes a tree.Node.
type entry struct {
	isDir  bool
	name   string
	size   int32
	offset int64
}

// readDirectory reads one directory block: a compressed-int entry count,
// then that many discriminator-tagged entries (§4.4's table). Discriminator
// 1 is an unknown placeholder and produces no entry.
func readDirectory(r *binutil.Reader) ([]entry, error) {
	count, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	if count < 0 || count > 1_000_000 {
		return nil, wzerr.New(wzerr.DecodeError, r.Pos(), "implausible directory entry count")
	}

	entries := make([]entry, 0, count)
	for i := int32(0); i < count; i++ {
		disc, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		var name string
		isDir := disc == 3

		switch disc {
		case 1:
			r.Skip(4)
			r.Skip(2)
			if _, err := r.ReadEncryptedOffset(); err != nil {
				return nil, err
			}
			continue

		case 2:
			rel, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			saved := r.Pos()
			r.Seek(r.DataStart() + int64(rel))
			r.Skip(1)
			name, err = r.ReadEncryptedString()
			r.Seek(saved)
			if err != nil {
				return nil, err
			}
			isDir = !strings.HasSuffix(strings.ToLower(name), ".img")

		case 3, 4:
			name, err = r.ReadEncryptedString()
			if err != nil {
				return nil, err
			}

		default:
			return nil, wzerr.New(wzerr.DecodeError, r.Pos(), "unrecognized directory discriminator")
		}

		size, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadCompressedInt(); err != nil { // checksum, unused on read
			return nil, err
		}
		offset, err := r.ReadEncryptedOffset()
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry{isDir: isDir, name: name, size: size, offset: offset})
	}
	return entries, nil
}

// walkDirectory reads a directory at the reader's current position and
// recursively builds dir/image nodes as children of parent. Images are
// attached with lazy provenance; their property lists are not parsed.
func walkDirectory(r *binutil.Reader, parent *tree.Node, key *crypto.Key, versionHash uint32) error {
	entries, err := readDirectory(r)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.isDir {
			dirNode := tree.New(tree.TagDir, e.name)
			parent.AddChild(dirNode)

			sub := r.Clone()
			sub.Seek(e.offset)
			if err := walkDirectory(sub, dirNode, key, versionHash); err != nil {
				return err
			}
			continue
		}

		imgNode := tree.New(tree.TagImage, e.name)
		imgNode.ImageProv = &tree.ImageProvenance{
			Source:      r,
			Offset:      e.offset,
			Length:      int64(e.size),
			Key:         key,
			VersionHash: versionHash,
			DataStart:   r.DataStart(),
		}
		parent.AddChild(imgNode)
	}
	parent.Modified = false
	for _, c := range parent.Children() {
		c.Modified = false
	}
	return nil
}
