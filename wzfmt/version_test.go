package wzfmt

import "testing"

func TestVersionHashVectors(t *testing.T) {
	cases := []struct {
		patch int
		want  uint32
	}{
		{1, 50},
		{83, 1876},
	}
	for _, c := range cases {
		if got := VersionHash(c.patch); got != c.want {
			t.Errorf("VersionHash(%d) = %d, want %d", c.patch, got, c.want)
		}
	}
}

func TestObfuscateVersionHashVectors(t *testing.T) {
	cases := []struct {
		hash uint32
		want uint16
	}{
		{50, 205},
		{1876, 172},
	}
	for _, c := range cases {
		if got := ObfuscateVersionHash(c.hash); got != c.want {
			t.Errorf("ObfuscateVersionHash(%d) = %d, want %d", c.hash, got, c.want)
		}
	}
}

func TestMatchesVersionHeader(t *testing.T) {
	hash := VersionHash(83)
	header := ObfuscateVersionHash(hash)
	if !MatchesVersionHeader(header, hash, false) {
		t.Fatal("MatchesVersionHeader should accept the header it was derived from")
	}
	if MatchesVersionHeader(header, VersionHash(84), false) {
		t.Fatal("MatchesVersionHeader should reject a hash from a different patch")
	}
	if !MatchesVersionHeader(0xFFFF, hash, true) {
		t.Fatal("MatchesVersionHeader must always accept a 64-bit archive's synthetic header")
	}
}

func TestHeaderKindClassicVsSixtyFour(t *testing.T) {
	if HeaderKind(0x0010, 0x0010) {
		t.Fatal("small uint16 probe should be classified as classic layout")
	}
	if !HeaderKind(0x0200, 0x0200) {
		t.Fatal("uint16 probe > 0xFF should be classified as 64-bit layout")
	}
}
