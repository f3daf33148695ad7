// Package wzfmt holds WZ format constants that are not themselves
// cryptographic primitives: regional IVs, the version-hash derivation, and
// the fixed header strings the writer emits.
package wzfmt

// Variants maps a regional encryption variant name to its 4-byte IV.
// BMS is all-zero, which disables the keystream entirely (see crypto.Key).
var Variants = map[string][4]byte{
	"GMS": {0x4D, 0x23, 0xC7, 0x2B},
	"EMS": {0xB9, 0x7D, 0x63, 0xE9},
	"BMS": {0x00, 0x00, 0x00, 0x00},
}

// VariantOrder fixes the auto-detection trial order from §4.4.
var VariantOrder = []string{"GMS", "EMS", "BMS"}

// CopyrightString is the fixed ASCII header the writer emits, matching the
// original client's packaged archives.
const CopyrightString = "Package file v1.0 Copyright 2002 Wizet, ZMS"

// OffsetConstant is subtracted (mod 2^32) during offset obfuscation.
const OffsetConstant = 0x581C3F6D

// SixtyFourBitVersionHeader is the synthetic version header used by 64-bit
// archives, which carry no real version header on disk.
const SixtyFourBitVersionHeader = 770
