package sound

import (
	"bytes"
	"testing"
)

func TestExtractDetectsWAV(t *testing.T) {
	data := append([]byte("RIFF"), []byte{0, 0, 0, 0}...)
	body, mime := Extract(nil, data)
	if mime != "audio/wav" {
		t.Fatalf("mime = %q, want audio/wav", mime)
	}
	if !bytes.Equal(body, data) {
		t.Fatal("Extract must return the data unchanged")
	}
}

func TestExtractDetectsOgg(t *testing.T) {
	data := []byte("OggS0123456789")
	_, mime := Extract(nil, data)
	if mime != "audio/ogg" {
		t.Fatalf("mime = %q, want audio/ogg", mime)
	}
}

func TestExtractDefaultsToMP3(t *testing.T) {
	data := []byte{0xFF, 0xFB, 0x90, 0x00}
	_, mime := Extract(nil, data)
	if mime != "audio/mpeg" {
		t.Fatalf("mime = %q, want audio/mpeg", mime)
	}
}

func TestExtractEmptyDataDefaultsToMP3(t *testing.T) {
	_, mime := Extract(nil, nil)
	if mime != "audio/mpeg" {
		t.Fatalf("mime = %q, want audio/mpeg", mime)
	}
}

func TestParseHeaderTooShortYieldsZeroValue(t *testing.T) {
	got := ParseHeader(make([]byte, HeaderLen))
	if got.Fixed != nil || got.Extension != nil {
		t.Fatalf("ParseHeader on a too-short header = %+v, want zero value", got)
	}
}

func TestParseHeaderSplitsFixedAndExtension(t *testing.T) {
	header := make([]byte, HeaderLen+1+3)
	header[HeaderLen] = 3 // extension length
	header[HeaderLen+1] = 0xAA
	header[HeaderLen+2] = 0xBB
	header[HeaderLen+3] = 0xCC

	got := ParseHeader(header)
	if len(got.Fixed) != HeaderLen {
		t.Fatalf("len(Fixed) = %d, want %d", len(got.Fixed), HeaderLen)
	}
	want := []byte{0xAA, 0xBB, 0xCC}
	if !bytes.Equal(got.Extension, want) {
		t.Fatalf("Extension = % x, want % x", got.Extension, want)
	}
}

func TestParseHeaderClampsExtensionLengthToAvailableBytes(t *testing.T) {
	header := make([]byte, HeaderLen+1+1)
	header[HeaderLen] = 200 // claims far more extension bytes than are present
	header[HeaderLen+1] = 0x11

	got := ParseHeader(header)
	if len(got.Extension) != 1 {
		t.Fatalf("len(Extension) = %d, want 1 (clamped to available bytes)", len(got.Extension))
	}
}
