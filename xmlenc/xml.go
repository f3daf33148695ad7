// Package xmlenc implements the tree-to-text XML projection: one element
// per node, tag-specific element names and attribute sets, never failing.
package xmlenc

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/libevm/schlop-app/pixel"
	"github.com/libevm/schlop-app/tree"
)

var errNoPayload = errors.New("canvas has no payload to encode")

const prolog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Serialize renders root and every descendant as XML text. It never fails:
// nodes whose pixel/sound payload can't be produced (missing provenance,
// decode error) are simply emitted without the optional basedata/basehead
// attribute.
func Serialize(root *tree.Node) string {
	var b strings.Builder
	b.WriteString(prolog)
	writeNode(&b, root, 0)
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("\t")
	}
}

func writeNode(b *strings.Builder, n *tree.Node, depth int) {
	switch n.Tag {
	case tree.TagFile, tree.TagDir, tree.TagImage, tree.TagSub:
		writeContainer(b, "imgdir", n, depth, []attr{{"name", n.Name}})

	case tree.TagInt:
		writeLeaf(b, "int", depth, []attr{{"name", n.Name}, {"value", strconv.FormatInt(n.IntValue, 10)}})
	case tree.TagShort:
		writeLeaf(b, "short", depth, []attr{{"name", n.Name}, {"value", strconv.FormatInt(n.IntValue, 10)}})
	case tree.TagLong:
		writeLeaf(b, "long", depth, []attr{{"name", n.Name}, {"value", strconv.FormatInt(n.IntValue, 10)}})

	case tree.TagFloat:
		writeLeaf(b, "float", depth, []attr{{"name", n.Name}, {"value", formatFloat(n.FloatValue)}})
	case tree.TagDouble:
		writeLeaf(b, "double", depth, []attr{{"name", n.Name}, {"value", formatFloat(n.FloatValue)}})

	case tree.TagString:
		writeLeaf(b, "string", depth, []attr{{"name", n.Name}, {"value", n.StringValue}})
	case tree.TagUOL:
		writeLeaf(b, "uol", depth, []attr{{"name", n.Name}, {"value", n.StringValue}})

	case tree.TagNull:
		writeLeaf(b, "null", depth, []attr{{"name", n.Name}})

	case tree.TagVector:
		writeLeaf(b, "vector", depth, []attr{
			{"name", n.Name},
			{"x", strconv.FormatInt(int64(n.X), 10)},
			{"y", strconv.FormatInt(int64(n.Y), 10)},
		})

	case tree.TagCanvas:
		writeCanvas(b, n, depth)

	case tree.TagSound:
		writeSound(b, n, depth)

	case tree.TagConvex:
		writeContainer(b, "extended", n, depth, []attr{{"name", n.Name}})
	}
}

func writeCanvas(b *strings.Builder, n *tree.Node, depth int) {
	attrs := []attr{
		{"name", n.Name},
		{"width", strconv.FormatInt(int64(n.Width), 10)},
		{"height", strconv.FormatInt(int64(n.Height), 10)},
	}
	if rgba, err := canvasRGBA(n); err == nil {
		if png, err := pixel.EncodePNG(rgba, int(n.Width), int(n.Height)); err == nil {
			attrs = append(attrs, attr{"basedata", base64.StdEncoding.EncodeToString(png)})
		}
	}
	writeLeaf(b, "canvas", depth, attrs)
}

func canvasRGBA(n *tree.Node) ([]byte, error) {
	if n.RGBA != nil {
		return n.RGBA, nil
	}
	if n.CanvasProv == nil {
		return nil, errNoPayload
	}
	rgba, warn := pixel.Decode(n.PixelFormat, int(n.Width), int(n.Height), n.CanvasProv.Payload())
	if warn != nil {
		return rgba, nil // fallback buffer is still usable
	}
	return rgba, nil
}

func writeSound(b *strings.Builder, n *tree.Node, depth int) {
	var header, data []byte
	if n.SoundProv != nil {
		header, data = n.SoundProv.Header(), n.SoundProv.Data()
	} else {
		header, data = n.SoundHeader, n.SoundData
	}

	attrs := []attr{{"name", n.Name}, {"length", strconv.FormatInt(int64(len(data)), 10)}}
	if header != nil {
		attrs = append(attrs, attr{"basehead", base64.StdEncoding.EncodeToString(header)})
	}
	if data != nil {
		attrs = append(attrs, attr{"basedata", base64.StdEncoding.EncodeToString(data)})
	}
	writeLeaf(b, "sound", depth, attrs)
}

type attr struct {
	name, value string
}

func writeOpenTag(b *strings.Builder, elem string, attrs []attr, selfClose bool) {
	b.WriteString("<")
	b.WriteString(elem)
	for _, a := range attrs {
		b.WriteString(" ")
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(escape(a.value))
		b.WriteString(`"`)
	}
	if selfClose {
		b.WriteString(" />")
	} else {
		b.WriteString(">")
	}
}

func writeLeaf(b *strings.Builder, elem string, depth int, attrs []attr) {
	indent(b, depth)
	writeOpenTag(b, elem, attrs, true)
	b.WriteString("\n")
}

func writeContainer(b *strings.Builder, elem string, n *tree.Node, depth int, attrs []attr) {
	children := n.Children()
	if len(children) == 0 {
		writeLeaf(b, elem, depth, attrs)
		return
	}

	indent(b, depth)
	writeOpenTag(b, elem, attrs, false)
	b.WriteString("\n")
	for _, c := range children {
		writeNode(b, c, depth+1)
	}
	indent(b, depth)
	b.WriteString("</")
	b.WriteString(elem)
	b.WriteString(">\n")
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatFloat renders v so the result always contains a '.': the default
// decimal form already does for any non-integral value, and an exact
// integral value gets ".0" appended per §4.8.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
