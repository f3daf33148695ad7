package archive_test

import (
	"testing"

	"github.com/libevm/schlop-app/archive"
	"github.com/libevm/schlop-app/tree"
)

// TestRoundTripMinimalArchive is Scenario E1: build a small tree in memory,
// repack it to bytes with no encryption (BMS), parse those bytes back, and
// confirm the property values survive exactly.
func TestRoundTripMinimalArchive(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	dir := tree.New(tree.TagDir, "testdir")
	root.AddChild(dir)
	img := tree.New(tree.TagImage, "test.img")
	dir.AddChild(img)

	hp := tree.New(tree.TagInt, "hp")
	hp.IntValue = 100
	img.AddChild(hp)

	name := tree.New(tree.TagString, "name")
	name.StringValue = "Hello"
	img.AddChild(name)

	w := archive.NewWriter()
	data, err := w.Repack(root, [4]byte{0, 0, 0, 0}, 83, nil)
	if err != nil {
		t.Fatalf("Repack: %v", err)
	}

	got, err := archive.ParseArchive(data, archive.ParseOptions{Variant: "BMS", Patch: 83})
	if err != nil {
		t.Fatalf("ParseArchive: %v", err)
	}

	var imgNode *tree.Node
	got.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			imgNode = n
		}
		return true
	})
	if imgNode == nil {
		t.Fatal("parsed archive has no image node")
	}

	if err := archive.ParseImage(imgNode, archive.ParseOptions{}); err != nil {
		t.Fatalf("ParseImage: %v", err)
	}

	hpGot := imgNode.ChildByName("hp")
	if hpGot == nil || hpGot.IntValue != 100 {
		t.Fatalf("hp property missing or wrong after round trip: %+v", hpGot)
	}
	nameGot := imgNode.ChildByName("name")
	if nameGot == nil || nameGot.StringValue != "Hello" {
		t.Fatalf("name property missing or wrong after round trip: %+v", nameGot)
	}
}

// TestRoundTripVersionAutoDetection is Scenario E4: parse without a Variant
// hint and confirm auto-detection still recovers the same content.
func TestRoundTripVersionAutoDetection(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	img := tree.New(tree.TagImage, "only.img")
	root.AddChild(img)
	v := tree.New(tree.TagInt, "v")
	v.IntValue = 7
	img.AddChild(v)

	w := archive.NewWriter()
	data, err := w.Repack(root, [4]byte{0, 0, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Repack: %v", err)
	}

	got, err := archive.ParseArchive(data, archive.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseArchive without hints: %v", err)
	}
	var imgNode *tree.Node
	got.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			imgNode = n
		}
		return true
	})
	if imgNode == nil {
		t.Fatal("parsed archive has no image node")
	}
	if err := archive.ParseImage(imgNode, archive.ParseOptions{}); err != nil {
		t.Fatalf("ParseImage: %v", err)
	}
	if got := imgNode.ChildByName("v"); got == nil || got.IntValue != 7 {
		t.Fatalf("v property missing or wrong after auto-detected round trip: %+v", got)
	}
}

// TestRoundTripNestedDirectoriesAndSubProperty exercises a multi-level
// directory tree plus a nested Property sub-list, confirming the
// PropertyStringCache sharing across nesting levels doesn't corrupt names.
func TestRoundTripNestedDirectoriesAndSubProperty(t *testing.T) {
	root := tree.New(tree.TagFile, "")
	outer := tree.New(tree.TagDir, "outer")
	root.AddChild(outer)
	inner := tree.New(tree.TagDir, "inner")
	outer.AddChild(inner)
	img := tree.New(tree.TagImage, "nested.img")
	inner.AddChild(img)

	sub := tree.New(tree.TagSub, "stats")
	img.AddChild(sub)
	str := tree.New(tree.TagInt, "strength")
	str.IntValue = 42
	sub.AddChild(str)

	w := archive.NewWriter()
	data, err := w.Repack(root, [4]byte{0, 0, 0, 0}, 83, nil)
	if err != nil {
		t.Fatalf("Repack: %v", err)
	}

	gotRoot, err := archive.ParseArchive(data, archive.ParseOptions{Variant: "BMS", Patch: 83})
	if err != nil {
		t.Fatalf("ParseArchive: %v", err)
	}
	var imgNode *tree.Node
	gotRoot.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			imgNode = n
		}
		return true
	})
	if imgNode == nil {
		t.Fatal("parsed archive has no image node")
	}
	if err := archive.ParseImage(imgNode, archive.ParseOptions{}); err != nil {
		t.Fatalf("ParseImage: %v", err)
	}

	subGot := imgNode.ChildByName("stats")
	if subGot == nil || subGot.Tag != tree.TagSub {
		t.Fatalf("nested sub-property missing: %+v", subGot)
	}
	strGot := subGot.ChildByName("strength")
	if strGot == nil || strGot.IntValue != 42 {
		t.Fatalf("nested property value missing or wrong: %+v", strGot)
	}
}
