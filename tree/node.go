// Package tree implements the polymorphic archive node: one struct type
// covering every WZ construct (file/dir/image/sub-property/primitive/
// vector/canvas/sound/convex/uol/null), with parent/child links and the
// lazy-load provenance slots described in spec §3.
package tree

import (
	"strings"
	"sync/atomic"

	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/crypto"
)

// Tag identifies which construct a Node represents.
type Tag int

const (
	TagFile Tag = iota
	TagDir
	TagImage
	TagSub
	TagInt
	TagShort
	TagLong
	TagFloat
	TagDouble
	TagString
	TagUOL
	TagNull
	TagVector
	TagCanvas
	TagSound
	TagConvex
)

func (t Tag) String() string {
	names := [...]string{
		"file", "dir", "image", "sub", "int", "short", "long", "float",
		"double", "string", "uol", "null", "vector", "canvas", "sound", "convex",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

var nextID uint64

func allocID() uint64 { return atomic.AddUint64(&nextID, 1) }

// ImageProvenance records where an unparsed image's property list lives
// in the shared source buffer, so parsing can be deferred until demand.
type ImageProvenance struct {
	Source      *binutil.Reader // shared, read-only backing buffer
	Offset      int64
	Length      int64 // directory-entry payload size; the image's raw byte span
	Key         *crypto.Key
	VersionHash uint32
	DataStart   int64
	Parsed      bool
}

// CanvasProvenance records an unmodified canvas's compressed payload
// location within the shared source buffer, plus the single zlib-header
// byte stripped during parse. As long as the node is never modified,
// HeaderByte followed by Buf[Offset:Offset+Length] reconstructs the
// original on-disk payload bit for bit.
type CanvasProvenance struct {
	Buf        []byte
	Offset     int64
	Length     int64
	HeaderByte byte
}

// Payload returns the raw deflate bytes this provenance points at (the
// header byte excluded).
func (p *CanvasProvenance) Payload() []byte {
	return p.Buf[p.Offset : p.Offset+p.Length]
}

// SoundProvenance records an unmodified sound's header/data slices within
// the shared source buffer.
type SoundProvenance struct {
	Buf                        []byte
	HeaderOffset, HeaderLength int64
	DataOffset, DataLength     int64
}

func (p *SoundProvenance) Header() []byte {
	return p.Buf[p.HeaderOffset : p.HeaderOffset+p.HeaderLength]
}

func (p *SoundProvenance) Data() []byte {
	return p.Buf[p.DataOffset : p.DataOffset+p.DataLength]
}

// Node is the single concrete type backing every archive construct. Only
// the fields relevant to Tag are meaningful; see the table in spec §3.1.
type Node struct {
	id       uint64
	Tag      Tag
	Name     string
	parent   *Node
	children []*Node
	Modified bool

	// Primitive leaf values (TagInt/TagShort/TagLong/TagFloat/TagDouble/TagString/TagUOL).
	IntValue    int64
	FloatValue  float64
	StringValue string

	// TagVector
	X, Y int32

	// TagCanvas
	Width, Height int32
	PixelFormat   int32
	RGBA          []byte // decoded pixels stored by the host; DecodeCanvas returns its result without setting this
	CanvasProv    *CanvasProvenance

	// TagSound
	DurationMS int32
	SoundHeader []byte
	SoundData   []byte
	SoundProv   *SoundProvenance

	// TagImage
	ImageProv *ImageProvenance
}

// New constructs a detached node of the given tag and name.
func New(tag Tag, name string) *Node {
	return &Node{id: allocID(), Tag: tag, Name: name}
}

func (n *Node) ID() uint64    { return n.id }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) Children() []*Node {
	return n.children
}

// foldName returns the case-folded form used for name comparisons: names
// are case-insensitive for lookup, case-preserving for storage (§3.2).
func foldName(s string) string { return strings.ToLower(s) }
