package crypto

const batchSize = 4096

// Key is an expandable WZ keystream keyed by a 4-byte IV. The stream is
// generated lazily in 4 KiB batches on first demand of each index.
//
// Generation rule: an all-zero IV (the BMS/classic "no encryption" variant)
// produces an all-zero stream. Otherwise the first 16-byte block is the IV
// tiled four times, AES-256 encrypted; every subsequent block encrypts the
// immediately preceding ciphertext. The concatenation of ciphertext blocks
// is the keystream.
type Key struct {
	iv       [4]byte
	data     []byte
	disabled bool
}

// NewKey constructs a keystream generator for the given 4-byte IV. No
// keystream bytes are produced until the first ByteAt call.
func NewKey(iv [4]byte) *Key {
	return &Key{iv: iv, disabled: iv == [4]byte{0, 0, 0, 0}}
}

// Clone returns an independent Key sharing no mutable state, pre-extended
// to at least upTo bytes. Use this instead of sharing one *Key across
// goroutines: extension mutates internal state and is not synchronized.
func (k *Key) Clone(upTo int) *Key {
	clone := &Key{iv: k.iv, disabled: k.disabled}
	if upTo > 0 {
		clone.expandTo(upTo)
	}
	return clone
}

// ByteAt returns the keystream byte at index i, growing the stream as
// needed.
func (k *Key) ByteAt(i int) byte {
	k.expandTo(i + 1)
	return k.data[i]
}

func (k *Key) expandTo(size int) {
	if len(k.data) >= size {
		return
	}
	if k.disabled {
		k.data = make([]byte, size)
		return
	}

	newSize := ((size + batchSize - 1) / batchSize) * batchSize
	next := make([]byte, newSize)
	start := copy(next, k.data)

	block := blockCipher()
	input := make([]byte, 16)
	output := make([]byte, 16)

	for i := start; i < newSize; i += 16 {
		if i == 0 {
			for j := 0; j < 16; j++ {
				input[j] = k.iv[j%4]
			}
		} else {
			copy(input, next[i-16:i])
		}
		block.Encrypt(output, input)
		copy(next[i:], output)
	}

	k.data = next
}
