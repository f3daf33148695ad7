package binutil

import (
	"bytes"
	"testing"

	"github.com/libevm/schlop-app/crypto"
)

func TestCompressedIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 127, -127, 128, -128, 1 << 20, -(1 << 20)}
	for _, v := range cases {
		w := NewWriter()
		if err := w.WriteCompressedInt(v); err != nil {
			t.Fatalf("WriteCompressedInt(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadCompressedInt()
		if err != nil {
			t.Fatalf("ReadCompressedInt after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func TestCompressedIntSentinelBoundaryBytes(t *testing.T) {
	w := NewWriter()
	if err := w.WriteCompressedInt(-128); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x80, 0x80, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("WriteCompressedInt(-128) = % x, want % x", w.Bytes(), want)
	}
}

func TestCompressedLongRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 127, -127, 128, -128, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		w := NewWriter()
		if err := w.WriteCompressedLong(v); err != nil {
			t.Fatalf("WriteCompressedLong(%d): %v", v, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadCompressedLong()
		if err != nil {
			t.Fatalf("ReadCompressedLong after writing %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func TestEncryptedStringRoundTripASCII(t *testing.T) {
	key := crypto.NewKey([4]byte{0x4D, 0x23, 0xC7, 0x2B})
	w := NewWriter()
	if err := w.WriteEncryptedString("hello world", false, key); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes()).WithCrypto(crypto.NewKey([4]byte{0x4D, 0x23, 0xC7, 0x2B}), 0, 0)
	got, err := r.ReadEncryptedString()
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello world" {
		t.Fatalf("round trip = %q, want %q", got, "hello world")
	}
}

func TestEncryptedStringRoundTripUnicode(t *testing.T) {
	key := crypto.NewKey([4]byte{0xB9, 0x7D, 0x63, 0xE9})
	w := NewWriter()
	s := "héllo wörld"
	if err := w.WriteEncryptedString(s, true, key); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes()).WithCrypto(crypto.NewKey([4]byte{0xB9, 0x7D, 0x63, 0xE9}), 0, 0)
	got, err := r.ReadEncryptedString()
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("round trip = %q, want %q", got, s)
	}
}

func TestEncryptedStringEmptyIsZeroByte(t *testing.T) {
	w := NewWriter()
	if err := w.WriteEncryptedString("", false, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0}) {
		t.Fatalf("empty string should encode as a single zero byte, got % x", w.Bytes())
	}
}

func TestEncryptedOffsetIsExactInverse(t *testing.T) {
	const dataStart = 60
	const versionHash = 1876
	targets := []int64{dataStart, dataStart + 4, dataStart + 1000, dataStart + 2}

	for _, target := range targets {
		w := NewWriter()
		// Pad to a plausible directory-entry position before the offset field.
		if err := w.WriteBytes(make([]byte, 12)); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteEncryptedOffset(target, dataStart, versionHash); err != nil {
			t.Fatalf("WriteEncryptedOffset(%d): %v", target, err)
		}

		r := NewReader(w.Bytes()).WithCrypto(nil, dataStart, versionHash)
		r.Seek(12)
		got, err := r.ReadEncryptedOffset()
		if err != nil {
			t.Fatal(err)
		}
		if got != target {
			t.Errorf("offset round trip %d -> %d", target, got)
		}
	}
}

func TestPropertyStringCacheInternsRepeatsOnly(t *testing.T) {
	const dataStart = 0
	cache := NewPropertyStringCache()
	w := NewWriter()
	long := "a_sufficiently_long_property_name"

	if err := cache.WriteInterned(w, long, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	firstLen := w.Pos()

	if err := cache.WriteInterned(w, long, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	secondLen := w.Pos() - firstLen

	// A repeat of a long name costs 1 (discriminator) + 4 (offset) bytes.
	if secondLen != 5 {
		t.Fatalf("second write of a repeated long name cost %d bytes, want 5", secondLen)
	}

	r := NewReader(w.Bytes())
	disc, err := r.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if disc != 0x73 {
		t.Fatalf("first occurrence discriminator = 0x%x, want 0x73", disc)
	}
}

func TestPropertyStringCacheNeverInternsShortNames(t *testing.T) {
	const dataStart = 0
	cache := NewPropertyStringCache()
	w := NewWriter()
	short := "hp" // <= 4 chars, never interned per WriteInterned's rule

	if err := cache.WriteInterned(w, short, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	firstLen := w.Pos()
	if err := cache.WriteInterned(w, short, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	secondLen := w.Pos() - firstLen

	if secondLen != firstLen {
		t.Fatalf("second write of a short repeated name cost %d bytes, want %d (same as first, i.e. not interned)", secondLen, firstLen)
	}
}

func TestDirectoryNameCacheDistinguishesEntryKind(t *testing.T) {
	const dataStart = 0
	cache := NewDirectoryNameCache()
	w := NewWriter()
	name := "CommonName" // same text, different kinds must not alias

	if err := cache.WriteInterned(w, DirEntry, name, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	beforeImage := w.Pos()
	if err := cache.WriteInterned(w, ImageEntry, name, dataStart, nil, false); err != nil {
		t.Fatal(err)
	}
	imageLen := w.Pos() - beforeImage

	// The image-kind entry is a fresh name to this cache (different kind key)
	// so it must be written inline, not as an offset reference.
	r := NewReader(w.Bytes())
	r.Seek(beforeImage)
	disc, err := r.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if disc != 0x04 {
		t.Fatalf("first ImageEntry occurrence discriminator = 0x%x, want 0x04 (inline)", disc)
	}
	if imageLen <= 5 {
		t.Fatalf("inline image entry length = %d, expected more than the 5-byte offset-reference form", imageLen)
	}
}
