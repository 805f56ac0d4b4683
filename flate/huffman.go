package flate

import "sort"

// lengthLimitedCodeLengths builds canonical Huffman code lengths for freqs,
// none exceeding maxLen. It builds an ordinary (unbounded) Huffman tree via
// the classic two-queue linear-time merge, then -- if that produced a code
// longer than maxLen -- applies the same bit-length correction zlib's
// gen_bitlen uses: clamp every over-long leaf to maxLen while counting how
// many leaves were clamped, then repeatedly donate one code at the deepest
// available shorter length to restore the Kraft equality.
func lengthLimitedCodeLengths(freqs []int32, maxLen int) []int {
	lengths := make([]int, len(freqs))

	type active struct {
		idx  int
		freq int64
	}
	var act []active
	for i, f := range freqs {
		if f > 0 {
			act = append(act, active{i, int64(f)})
		}
	}
	switch len(act) {
	case 0:
		return lengths
	case 1:
		// A degenerate single-symbol tree still needs a 1-bit code; the
		// decoder's huffmanDecoder.init accepts this as a special case.
		lengths[act[0].idx] = 1
		return lengths
	}

	sort.Slice(act, func(i, j int) bool {
		if act[i].freq != act[j].freq {
			return act[i].freq < act[j].freq
		}
		return act[i].idx < act[j].idx
	})

	type node struct {
		freq   int64
		parent int32
	}
	nodes := make([]node, len(act), 2*len(act)-1)
	for i, a := range act {
		nodes[i] = node{freq: a.freq, parent: -1}
	}

	leaf := 0
	var internal []int32
	pop := func() int32 {
		if leaf < len(act) && (len(internal) == 0 || nodes[leaf].freq <= nodes[internal[0]].freq) {
			i := int32(leaf)
			leaf++
			return i
		}
		i := internal[0]
		internal = internal[1:]
		return i
	}
	for len(internal)+(len(act)-leaf) > 1 {
		a := pop()
		b := pop()
		nodes = append(nodes, node{freq: nodes[a].freq + nodes[b].freq, parent: -1})
		p := int32(len(nodes) - 1)
		nodes[a].parent = p
		nodes[b].parent = p
		internal = append(internal, p)
	}

	depth := make([]int, len(act))
	for i := range act {
		d := 0
		for p := nodes[i].parent; p != -1; p = nodes[p].parent {
			d++
		}
		depth[i] = d
	}

	blCount := make([]int, maxLen+1)
	for i, d := range depth {
		b := d
		if b > maxLen {
			b = maxLen
		}
		depth[i] = b
		blCount[b]++
	}

	// excess is how far clamping pushed the Kraft sum above 1, in units of
	// 2^-maxLen; each correction step below lowers it by exactly one unit.
	excess := -(1 << maxLen)
	for b := 1; b <= maxLen; b++ {
		excess += blCount[b] << (maxLen - b)
	}
	for excess > 0 {
		bits := maxLen - 1
		for blCount[bits] == 0 {
			bits--
		}
		blCount[bits]--
		blCount[bits+1] += 2
		blCount[maxLen]--
		excess--
	}

	// Reassign lengths by frequency rank: act is sorted ascending by
	// frequency, so the lowest-frequency symbols get the longest codes.
	pos := 0
	for length := maxLen; length >= 1; length-- {
		for c := 0; c < blCount[length]; c++ {
			lengths[act[pos].idx] = length
			pos++
		}
	}
	return lengths
}

// canonicalCodes assigns RFC 1951 section 3.2.2 canonical codes given a set
// of code lengths: symbols are taken in (length, symbol) order, and the
// first code of each length is the previous code incremented and shifted
// left by the length difference.
func canonicalCodes(lengths []int) []uint16 {
	var blCount [maxCodeLen + 2]int
	maxLen := 0
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}

	code := 0
	var nextCode [maxCodeLen + 2]int
	for bits := 1; bits <= maxLen; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	codes := make([]uint16, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = uint16(nextCode[l])
		nextCode[l]++
	}
	return codes
}

// bitCost returns the number of bits writing every symbol in freqs would
// take under the given code lengths.
func bitCost(freqs []int32, lengths []int) int64 {
	var total int64
	for sym, f := range freqs {
		if f > 0 {
			total += int64(f) * int64(lengths[sym])
		}
	}
	return total
}

// RFC 1951 section 3.2.5: length codes 257..285, each with 0..5 extra bits.
var lengthExtraBits = [...]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
var lengthBase = [...]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}

// RFC 1951 section 3.2.5: distance codes 0..29, each with 0..13 extra bits.
var distExtraBits = [...]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
var distBase = [...]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}

// lengthCode maps a match length (3..258) to its RFC length symbol
// (257..285) and the value to encode in its extra bits.
func lengthCode(length int) (sym int, extra int) {
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if length >= lengthBase[i] {
			return lengthCodesStart + i, length - lengthBase[i]
		}
	}
	panic("flate: length out of range")
}

// distCode maps a match distance (1..32768) to its RFC distance symbol
// (0..29) and the value to encode in its extra bits.
func distCode(dist int) (sym int, extra int) {
	for i := len(distBase) - 1; i >= 0; i-- {
		if dist >= distBase[i] {
			return i, dist - distBase[i]
		}
	}
	panic("flate: distance out of range")
}

// fixedLiteralLengths are the RFC 1951 section 3.2.6 fixed Huffman code
// lengths for the literal/length alphabet. The alphabet runs 0..287, not
// 0..285: symbols 286 and 287 never appear in valid compressed data, but
// they still need a code length assigned or the fixed code is incomplete
// (Kraft sum < 1), which fails huffmanDecoder.init's completeness check
// and breaks every fixed-Huffman block the decoder tries to read.
var fixedLiteralLengths = func() []int {
	const fixedLitAlphabet = 288
	lens := make([]int, fixedLitAlphabet)
	for i := 0; i < 144; i++ {
		lens[i] = 8
	}
	for i := 144; i < 256; i++ {
		lens[i] = 9
	}
	for i := 256; i < 280; i++ {
		lens[i] = 7
	}
	for i := 280; i < fixedLitAlphabet; i++ {
		lens[i] = 8
	}
	return lens
}()

// fixedDistLengths are the RFC 1951 fixed distance code lengths: 30 codes,
// all 5 bits. Unlike the literal alphabet, the fixed distance alphabet is
// genuinely incomplete (30 of 32 possible 5-bit codes are used, and the
// RFC never assigns the other two), so this table is only ever used for
// encoding -- the decoder special-cases fixed-block distances as a raw
// 5-bit field instead of running them through huffmanDecoder.

var fixedDistLengths = func() []int {
	lens := make([]int, maxNumDist)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}()

var fixedLiteralCodes = canonicalCodes(fixedLiteralLengths)
var fixedDistCodes = canonicalCodes(fixedDistLengths)

// codeOrder is the fixed transmission order for code-length alphabet
// lengths in a dynamic block header, RFC 1951 section 3.2.7.
var codeOrder = [...]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
