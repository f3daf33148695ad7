package xmlenc

import (
	"strings"
	"testing"

	"github.com/libevm/schlop-app/tree"
)

func TestEscapeAllFiveEntities(t *testing.T) {
	got := escape(`a&b<c>d"e'f`)
	want := `a&amp;b&lt;c&gt;d&quot;e&apos;f`
	if got != want {
		t.Fatalf("escape = %q, want %q", got, want)
	}
}

func TestFormatFloatAlwaysHasADot(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3.0, "3.0"},
		{3.5, "3.5"},
		{0.0, "0.0"},
		{-2.0, "-2.0"},
	}
	for _, c := range cases {
		if got := formatFloat(c.in); got != c.want {
			t.Errorf("formatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSerializeIntLeafHasNameAndValue(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	hp := tree.New(tree.TagInt, "hp")
	hp.IntValue = 100
	root.AddChild(hp)

	out := Serialize(root)
	if !strings.Contains(out, `<int name="hp" value="100" />`) {
		t.Fatalf("serialized output missing expected int leaf:\n%s", out)
	}
}

func TestSerializeEscapesAttributeValues(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	s := tree.New(tree.TagString, "quote")
	s.StringValue = `he said "hi" & left`
	root.AddChild(s)

	out := Serialize(root)
	if !strings.Contains(out, `value="he said &quot;hi&quot; &amp; left"`) {
		t.Fatalf("serialized output did not escape the string value:\n%s", out)
	}
}

func TestSerializeEmptyContainerSelfCloses(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	dir := tree.New(tree.TagDir, "empty")
	root.AddChild(dir)

	out := Serialize(root)
	if !strings.Contains(out, `<imgdir name="empty" />`) {
		t.Fatalf("empty container should self-close:\n%s", out)
	}
}

func TestSerializeNonEmptyContainerNests(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	dir := tree.New(tree.TagDir, "stuff")
	root.AddChild(dir)
	v := tree.New(tree.TagInt, "x")
	v.IntValue = 1
	dir.AddChild(v)

	out := Serialize(root)
	if strings.Contains(out, `<imgdir name="stuff" />`) {
		t.Fatal("non-empty container must not self-close")
	}
	if !strings.Contains(out, "</imgdir>") {
		t.Fatalf("non-empty container must have a closing tag:\n%s", out)
	}
}

func TestSerializeVectorHasXAndY(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	v := tree.New(tree.TagVector, "origin")
	v.X, v.Y = 10, -20
	root.AddChild(v)

	out := Serialize(root)
	if !strings.Contains(out, `<vector name="origin" x="10" y="-20" />`) {
		t.Fatalf("serialized output missing expected vector leaf:\n%s", out)
	}
}

func TestSerializeCanvasOmitsBasedataWithoutProvenance(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	canvas := tree.New(tree.TagCanvas, "pixels")
	canvas.Width, canvas.Height = 4, 4
	root.AddChild(canvas)

	out := Serialize(root)
	if strings.Contains(out, "basedata") {
		t.Fatalf("canvas with no decodable payload must omit basedata:\n%s", out)
	}
	if !strings.Contains(out, `width="4"`) || !strings.Contains(out, `height="4"`) {
		t.Fatalf("canvas dimensions missing:\n%s", out)
	}
}

func TestSerializeSoundOmitsAttributesWithoutPayload(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	s := tree.New(tree.TagSound, "clip")
	root.AddChild(s)

	out := Serialize(root)
	if strings.Contains(out, "basehead") || strings.Contains(out, "basedata") {
		t.Fatalf("sound with no header/data must omit those attributes:\n%s", out)
	}
	if !strings.Contains(out, `length="0"`) {
		t.Fatalf("sound length attribute missing:\n%s", out)
	}
}

func TestSerializeSoundIncludesBasedataFromRawFields(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	s := tree.New(tree.TagSound, "clip")
	s.SoundHeader = []byte{1, 2, 3}
	s.SoundData = []byte{4, 5, 6, 7}
	root.AddChild(s)

	out := Serialize(root)
	if !strings.Contains(out, "basehead=") || !strings.Contains(out, "basedata=") {
		t.Fatalf("sound with host-supplied header/data should include both attributes:\n%s", out)
	}
	if !strings.Contains(out, `length="4"`) {
		t.Fatalf("sound length should reflect SoundData length:\n%s", out)
	}
}
