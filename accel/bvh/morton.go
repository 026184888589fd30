package bvh

// spreadBits21 interleaves the low 21 bits of x with two zero bits after
// every bit, using the "magic bits" bit-spreading technique (the same
// technique, extended from 10 bits per axis to 21, that
// other_examples/VoxelsPlace-VOPL__morton.go uses for a 2-zero-bit
// 32-bit interleave). This matches original_source's weirdShift,
// specialized to Go's fixed-width uint64.
func spreadBits21(x uint64) uint64 {
	x &= 0x1fffff // keep only the low 21 bits
	x = (x | (x << 32)) & 0x001f00000000ffff
	x = (x | (x << 16)) & 0x001f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

// encodeMorton3 packs three 21-bit unsigned integers into a 63-bit
// Morton code with bit layout xyzxyz... starting from bit 0.
func encodeMorton3(x, y, z uint32) uint64 {
	return (spreadBits21(uint64(z)) << 2) | (spreadBits21(uint64(y)) << 1) | spreadBits21(uint64(x))
}
