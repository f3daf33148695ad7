// Package prop implements the recursive property-list parser: a
// self-describing tag stream mixing primitives, nested sub-property
// trees, and the extended types (Canvas, Vector, Convex, Sound, UOL).
package prop

import (
	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
)

// Options carries the warning sink for recoverable parse anomalies (§7).
type Options struct {
	Warn wzerr.Warner
}

// Parse reads a property list — 2 reserved bytes, a compressed-int count,
// then that many name+tag+payload entries — appending each entry as a
// child of parent.
func Parse(r *binutil.Reader, dataStart int64, parent *tree.Node, opts Options) error {
	r.Skip(2)
	count, err := r.ReadCompressedInt()
	if err != nil {
		return err
	}
	if count < 0 || count > 1_000_000 {
		return wzerr.New(wzerr.DecodeError, r.Pos(), "implausible property count")
	}

	for i := int32(0); i < count; i++ {
		name, err := r.ReadStringBlock()
		if err != nil {
			return err
		}
		tag, err := r.ReadByte()
		if err != nil {
			return err
		}

		node, err := parseEntry(r, dataStart, name, tag, opts)
		if err != nil {
			return err
		}
		if node != nil {
			parent.AddChild(node)
		}
	}
	parent.Modified = false
	return nil
}

func parseEntry(r *binutil.Reader, dataStart int64, name string, tag byte, opts Options) (*tree.Node, error) {
	switch tag {
	case 0:
		return tree.New(tree.TagNull, name), nil

	case 2, 11:
		v, err := r.ReadInt16()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagShort, name)
		n.IntValue = int64(v)
		return n, nil

	case 3, 19:
		v, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagInt, name)
		n.IntValue = int64(v)
		return n, nil

	case 4:
		flag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var f float32
		if flag == 0x80 {
			f, err = r.ReadFloat32()
			if err != nil {
				return nil, err
			}
		}
		n := tree.New(tree.TagFloat, name)
		n.FloatValue = float64(f)
		return n, nil

	case 5:
		d, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagDouble, name)
		n.FloatValue = d
		return n, nil

	case 8:
		s, err := r.ReadStringBlock()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagString, name)
		n.StringValue = s
		return n, nil

	case 9:
		blockLen, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		end := r.Pos() + int64(blockLen)
		node, perr := parseExtended(r, dataStart, name, opts)
		r.Seek(end)
		return node, perr

	case 20:
		v, err := r.ReadCompressedLong()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagLong, name)
		n.IntValue = v
		return n, nil

	default:
		return nil, wzerr.New(wzerr.DecodeError, r.Pos(), "unrecognized property tag")
	}
}

// parseExtended reads the extended-type name (inline or offset-referenced)
// and dispatches to the matching constructor. A nil, nil return means
// "unknown type, already warned; caller's Seek(end) resynchronizes".
func parseExtended(r *binutil.Reader, dataStart int64, name string, opts Options) (*tree.Node, error) {
	typeName, err := readExtendedName(r, dataStart)
	if err != nil {
		return nil, err
	}

	switch typeName {
	case "Property":
		node := tree.New(tree.TagSub, name)
		if err := Parse(r, dataStart, node, opts); err != nil {
			return nil, err
		}
		return node, nil

	case "Canvas":
		return parseCanvas(r, dataStart, name, opts)

	case "Shape2D#Vector2D":
		x, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		y, err := r.ReadCompressedInt()
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagVector, name)
		n.X, n.Y = x, y
		return n, nil

	case "Shape2D#Convex2D":
		return parseConvex(r, dataStart, name, opts)

	case "Sound_DX8":
		return parseSound(r, name)

	case "UOL":
		r.Skip(1)
		val, err := readExtendedName(r, dataStart)
		if err != nil {
			return nil, err
		}
		n := tree.New(tree.TagUOL, name)
		n.StringValue = val
		return n, nil

	default:
		opts.Warn.Warnf("unknown extended property type %q at offset 0x%x", typeName, r.Pos())
		return nil, nil
	}
}

// readExtendedName reads the 1-byte discriminator shared by extended-type
// names and UOL targets: 0x00/0x73 mean "inline string follows"; 0x01/0x1B
// mean "a 4-byte relative offset follows".
func readExtendedName(r *binutil.Reader, dataStart int64) (string, error) {
	disc, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	switch disc {
	case 0x00, 0x73:
		return r.ReadEncryptedString()
	case 0x01, 0x1B:
		rel, err := r.ReadInt32()
		if err != nil {
			return "", err
		}
		saved := r.Pos()
		r.Seek(dataStart + int64(rel))
		s, err := r.ReadEncryptedString()
		r.Seek(saved)
		return s, err
	default:
		return "", wzerr.New(wzerr.DecodeError, r.Pos(), "bad extended-name discriminator")
	}
}

func parseConvex(r *binutil.Reader, dataStart int64, name string, opts Options) (*tree.Node, error) {
	node := tree.New(tree.TagConvex, name)
	count, err := r.ReadCompressedInt()
	if err != nil {
		return nil, err
	}
	if count < 0 || count > 1_000_000 {
		return nil, wzerr.New(wzerr.DecodeError, r.Pos(), "implausible convex point count")
	}
	for i := int32(0); i < count; i++ {
		child, err := parseExtended(r, dataStart, "", opts)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.AddChild(child)
		}
	}
	return node, nil
}
