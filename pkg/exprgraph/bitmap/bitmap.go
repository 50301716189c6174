// Package bitmap provides a fixed-size, word-packed bit vector.
//
// A Bitmap's size is chosen at construction and never changes. It is the
// side table used by the expression result cache: one bit per operation,
// combined in bulk on every variable rebinding.
package bitmap

import "math/bits"

const wordBits = 64

// Bitmap is a fixed-size bit vector packed into 64-bit words.
// The zero value is an empty bitmap of size 0.
type Bitmap struct {
	words []uint64
	size  int
}

// New creates a bitmap holding n bits, all initialized to fill.
func New(n int, fill bool) Bitmap {
	if n <= 0 {
		return Bitmap{}
	}
	words := make([]uint64, (n+wordBits-1)/wordBits)
	if fill {
		for i := range words {
			words[i] = ^uint64(0)
		}
		maskTail(words, n)
	}
	return Bitmap{words: words, size: n}
}

// maskTail clears bits past the logical size in the last word.
func maskTail(words []uint64, size int) {
	if tail := size % wordBits; tail != 0 && len(words) > 0 {
		words[len(words)-1] &= (uint64(1) << tail) - 1
	}
}

// Size returns the number of bits the bitmap holds.
func (b Bitmap) Size() int {
	return b.size
}

// Test reports whether bit i is set.
// Bits outside [0, Size) read as false.
func (b Bitmap) Test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i/wordBits]>>(uint(i)%wordBits)&1 == 1
}

// Set sets bit i to 1. Out-of-range indices are ignored.
func (b Bitmap) Set(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/wordBits] |= uint64(1) << (uint(i) % wordBits)
}

// Reset sets bit i to 0. Out-of-range indices are ignored.
func (b Bitmap) Reset(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/wordBits] &^= uint64(1) << (uint(i) % wordBits)
}

// Assign sets bit i to the given value.
func (b Bitmap) Assign(i int, value bool) {
	if value {
		b.Set(i)
	} else {
		b.Reset(i)
	}
}

// And combines this bitmap with other in place using bitwise AND.
// Only the overlap up to the shorter of the two lengths is combined;
// the rest is left untouched. This is documented behavior, not an error.
func (b Bitmap) And(other Bitmap) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] &= other.words[i]
	}
}

// Or combines this bitmap with other in place using bitwise OR.
// Only the overlap up to the shorter of the two lengths is combined.
func (b Bitmap) Or(other Bitmap) {
	n := min(len(b.words), len(other.words))
	for i := 0; i < n; i++ {
		b.words[i] |= other.words[i]
	}
	maskTail(b.words, b.size)
}

// Not returns a new bitmap with every bit flipped.
// Bits past the logical size in the trailing partial word stay zero,
// so a double inversion is always an identity.
func (b Bitmap) Not() Bitmap {
	words := make([]uint64, len(b.words))
	for i, w := range b.words {
		words[i] = ^w
	}
	maskTail(words, b.size)
	return Bitmap{words: words, size: b.size}
}

// Clone returns an independent copy of the bitmap.
func (b Bitmap) Clone() Bitmap {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return Bitmap{words: words, size: b.size}
}

// Count returns the number of set bits.
func (b Bitmap) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// ForEach calls fn for every bit in ascending order with its current value.
// Iteration stops early if fn returns false.
func (b Bitmap) ForEach(fn func(i int, set bool) bool) {
	for i := 0; i < b.size; i++ {
		if !fn(i, b.Test(i)) {
			return
		}
	}
}

// Bits returns the bitmap expanded into a bool slice.
// Intended for tests and diagnostics, not hot paths.
func (b Bitmap) Bits() []bool {
	out := make([]bool, b.size)
	for i := range out {
		out[i] = b.Test(i)
	}
	return out
}
