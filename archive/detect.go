package archive

import (
	"fmt"

	"github.com/libevm/schlop-app/binutil"
	"github.com/libevm/schlop-app/crypto"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"
	"github.com/libevm/schlop-app/wzfmt"
)

// detection is the outcome of a successful auto-detection trial.
type detection struct {
	variant       string
	key           *crypto.Key
	versionHash   uint32
	versionHeader uint16
}

// detect tries every (variant, patch) combination in §4.4's fixed order
// until one produces a directory walk that terminates cleanly and whose
// first image entry starts with a legal header sentinel.
func detect(r *binutil.Reader, hdr Header, isSixtyFour bool, hintVariant string, hintPatch int) (*tree.Node, detection, error) {
	variants := wzfmt.VariantOrder
	if hintVariant != "" {
		if _, ok := wzfmt.Variants[hintVariant]; !ok {
			return nil, detection{}, wzerr.New(wzerr.UnsupportedVariant, -1, fmt.Sprintf("unknown variant %q", hintVariant))
		}
		variants = []string{hintVariant}
	}

	var versionHeader uint16
	if isSixtyFour {
		versionHeader = wzfmt.SixtyFourBitVersionHeader
	} else {
		r.Seek(hdr.DataStart)
		vh, err := r.ReadUint16()
		if err != nil {
			return nil, detection{}, err
		}
		versionHeader = vh
	}

	dirStart := hdr.DataStart
	if !isSixtyFour {
		dirStart += 2
	}

	patches := candidatePatches(isSixtyFour, hintPatch)

	for _, variantName := range variants {
		iv := wzfmt.Variants[variantName]
		for _, patch := range patches {
			hash := wzfmt.VersionHash(patch)
			if !wzfmt.MatchesVersionHeader(versionHeader, hash, isSixtyFour) {
				continue
			}

			key := crypto.NewKey(iv)
			trial := r.Clone()
			trial.Seek(dirStart)
			trial = trial.WithCrypto(key, hdr.DataStart, hash)

			root := tree.New(tree.TagFile, "")
			tw := &trialWalker{key: key, versionHash: hash}
			if err := tw.walk(trial, root); err != nil {
				continue
			}
			return root, detection{variant: variantName, key: key, versionHash: hash, versionHeader: versionHeader}, nil
		}
	}
	return nil, detection{}, wzerr.New(wzerr.VersionDetectionFailed, -1, "no variant/version combination produced a valid directory")
}

// candidatePatches returns the fixed trial order from §4.4, or a single
// hinted value when the caller supplied one.
func candidatePatches(isSixtyFour bool, hint int) []int {
	if hint != 0 {
		return []int{hint}
	}
	if isSixtyFour {
		patches := make([]int, 0, 11)
		for v := 770; v <= 780; v++ {
			patches = append(patches, v)
		}
		return patches
	}
	patches := make([]int, 0, 500)
	patches = append(patches, 83)
	for v := 1; v <= 500; v++ {
		if v != 83 {
			patches = append(patches, v)
		}
	}
	return patches
}

// trialWalker performs a directory walk during auto-detection, applying the
// name-plausibility and first-image-sentinel heuristics that reject a wrong
// variant/version guess before it is accepted.
type trialWalker struct {
	key           *crypto.Key
	versionHash   uint32
	checkedImage  bool
}

func (tw *trialWalker) walk(r *binutil.Reader, parent *tree.Node) error {
	entries, err := readDirectory(r)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !nameLooksValid(e.name) {
			return wzerr.New(wzerr.DecodeError, r.Pos(), "implausible directory-entry name")
		}

		if e.isDir {
			dirNode := tree.New(tree.TagDir, e.name)
			parent.AddChild(dirNode)
			sub := r.Clone()
			sub.Seek(e.offset)
			if err := tw.walk(sub, dirNode); err != nil {
				return err
			}
			continue
		}

		if !tw.checkedImage {
			tw.checkedImage = true
			buf := r.Bytes()
			if e.offset < 0 || e.offset >= int64(len(buf)) {
				return wzerr.New(wzerr.DecodeError, e.offset, "image offset out of range")
			}
			if b := buf[e.offset]; b != 0x1B && b != 0x73 {
				return wzerr.New(wzerr.DecodeError, e.offset, "image entry missing header sentinel")
			}
		}

		imgNode := tree.New(tree.TagImage, e.name)
		imgNode.ImageProv = &tree.ImageProvenance{
			Source:      r,
			Offset:      e.offset,
			Length:      int64(e.size),
			Key:         tw.key,
			VersionHash: tw.versionHash,
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

// nameLooksValid requires at least half of name's characters to be
// printable ASCII, the auto-detection plausibility check from §4.4.
func nameLooksValid(name string) bool {
	runes := []rune(name)
	if len(runes) == 0 {
		return true
	}
	printable := 0
	for _, c := range runes {
		if c >= 0x20 && c <= 0x7E {
			printable++
		}
	}
	return printable*2 >= len(runes)
}
