// Package crypto implements the WZ keystream: AES-256-ECB block chaining
// keyed by a per-region 4-byte IV, used to mask directory/property names
// and string property values.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// UserKey is the 128-byte MapleStory AES key constant. Every 16th byte of
// it (eight bytes) becomes every 4th byte of the real 32-byte AES-256 key,
// whose other bytes are zero (see trimUserKey); the rest is padding baked
// into the client binary.
var UserKey = [128]byte{
	0x13, 0x00, 0x00, 0x00, 0x52, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00, 0x5B, 0x00, 0x00, 0x00,
	0x08, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00,
	0x06, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x43, 0x00, 0x00, 0x00, 0x0F, 0x00, 0x00, 0x00,
	0xB4, 0x00, 0x00, 0x00, 0x4B, 0x00, 0x00, 0x00, 0x35, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
	0x1B, 0x00, 0x00, 0x00, 0x0A, 0x00, 0x00, 0x00, 0x5F, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00,
	0x0F, 0x00, 0x00, 0x00, 0x50, 0x00, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x1B, 0x00, 0x00, 0x00,
	0x33, 0x00, 0x00, 0x00, 0x55, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00,
	0x52, 0x00, 0x00, 0x00, 0xDE, 0x00, 0x00, 0x00, 0xC7, 0x00, 0x00, 0x00, 0x1E, 0x00, 0x00, 0x00,
}

// trimUserKey takes every 16th byte of UserKey into the low byte of each
// 4-byte AES-key slot, leaving the rest zero.
func trimUserKey() [32]byte {
	var key [32]byte
	for i := 0; i < 128; i += 16 {
		key[i/4] = UserKey[i]
	}
	return key
}

var aesKey = trimUserKey()

// blockCipher returns a fresh AES-256 block cipher keyed with aesKey, used
// to advance every keystream. Go's standard library has no ECB cipher.Mode,
// so ECB is driven by hand: one Encrypt call per 16-byte block, no
// chaining. That is the whole of "AES-256-ECB" — there is no feedback
// between blocks for this mode, only for the keystream construction on
// top of it (see keystream.go), which supplies its own chaining.
func blockCipher() cipher.Block {
	block, err := aes.NewCipher(aesKey[:])
	if err != nil {
		// aesKey is always exactly 32 bytes; NewCipher cannot fail.
		panic(err)
	}
	return block
}
