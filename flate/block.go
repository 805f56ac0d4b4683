package flate

import "io"

// blockWriter turns a slice of tokens (plus, for a stored block, the raw
// bytes they came from) into one DEFLATE block: BFINAL, BTYPE, and then
// whichever of stored/fixed-Huffman/dynamic-Huffman costs fewest bits.
// The three encodings it weighs, and the codegenOp run-length scheme for
// a dynamic block's code-length table, are RFC 1951 sections 3.2.4, 3.2.6
// and 3.2.7 respectively; the run-length algorithm itself is the same
// greedy scan zlib's trees.c uses to decide between literal, repeat-16,
// and repeat-zero codegen symbols.
type blockWriter struct {
	bw *bitWriter

	litFreq  [maxNumLit]int32
	distFreq [maxNumDist]int32
}

func newBlockWriter(w io.Writer) *blockWriter {
	return &blockWriter{bw: newBitWriter(w)}
}

func (bw *blockWriter) flush() error {
	return bw.bw.flush()
}

// writeBlock emits tokens as one block. raw is the literal bytes the
// tokens decode to; it is only needed (and only consulted) when a stored
// block turns out cheapest, so callers that never use stored blocks (pure
// Huffman-only encoding of a chunk larger than maxStoreBlockSize) may pass
// nil so long as a stored block can't legally apply anyway.
func (bw *blockWriter) writeBlock(tokens []token, raw []byte, eof bool) error {
	for i := range bw.litFreq {
		bw.litFreq[i] = 0
	}
	for i := range bw.distFreq {
		bw.distFreq[i] = 0
	}
	bw.litFreq[endBlockMarker] = 1

	for _, t := range tokens {
		if t.isLiteral() {
			bw.litFreq[t.literal()]++
			continue
		}
		sym, _ := lengthCode(t.length())
		bw.litFreq[sym]++
		dsym, _ := distCode(t.distance())
		bw.distFreq[dsym]++
	}

	numLit := lengthCodesStart + 1
	for i := len(bw.litFreq) - 1; i > numLit-1; i-- {
		if bw.litFreq[i] > 0 {
			numLit = i + 1
			break
		}
	}
	numDist := 0
	for i := len(bw.distFreq) - 1; i >= 0; i-- {
		if bw.distFreq[i] > 0 {
			numDist = i + 1
			break
		}
	}
	if numDist == 0 {
		numDist = 1
	}

	litLengths := lengthLimitedCodeLengths(bw.litFreq[:numLit], maxCodeLen)
	litCodes := canonicalCodes(litLengths)

	var distLengths []int
	var distCodes []uint16
	if bw.distFreq[0] == 0 && numDist == 1 {
		distLengths = []int{1}
		distCodes = []uint16{0}
	} else {
		distLengths = lengthLimitedCodeLengths(bw.distFreq[:numDist], maxCodeLen)
		distCodes = canonicalCodes(distLengths)
	}

	clens := make([]int, 0, numLit+numDist)
	clens = append(clens, litLengths...)
	clens = append(clens, distLengths...)
	ops, clFreq := buildCodegen(clens)
	clLengths := lengthLimitedCodeLengths(clFreq[:], codeLenMaxLen)
	clCodes := canonicalCodes(clLengths)

	hclen := len(codeOrder)
	for hclen > 4 && clLengths[codeOrder[hclen-1]] == 0 {
		hclen--
	}

	dynamicCost := int64(5 + 5 + 4 + 3*hclen)
	for _, op := range ops {
		dynamicCost += int64(clLengths[op.sym])
		dynamicCost += int64(codegenExtraBits(op.sym))
	}
	dynamicCost += bitCost(bw.litFreq[:numLit], litLengths)
	dynamicCost += bitCost(bw.distFreq[:numDist], distLengths)

	fixedCost := bitCost(bw.litFreq[:numLit], fixedLiteralLengths[:numLit])
	fixedCost += bitCost(bw.distFreq[:numDist], fixedDistLengths[:numDist])

	storedCost := int64(-1)
	if raw != nil && len(raw) <= maxStoreBlockSize {
		storedCost = int64(len(raw))*8 + 32 + 7
	}

	final := uint32(0)
	if eof {
		final = 1
	}

	// Ties go dynamic > fixed > stored.
	switch {
	case storedCost >= 0 && storedCost < dynamicCost && storedCost < fixedCost:
		return bw.writeStoredBlock(raw, final)
	case fixedCost < dynamicCost:
		return bw.writeFixedBlock(tokens, final)
	default:
		return bw.writeDynamicBlock(tokens, final, numLit, numDist, litLengths, litCodes, distLengths, distCodes, clLengths, clCodes, ops, hclen)
	}
}

func (bw *blockWriter) writeStoredBlock(raw []byte, final uint32) error {
	b := bw.bw
	b.writeBits(final, 1)
	b.writeBits(0, 2)
	b.alignToByte()
	n := uint32(len(raw))
	b.writeBits(n&0xffff, 16)
	b.writeBits((^n)&0xffff, 16)
	b.writeBytes(raw)
	return b.err
}

func (bw *blockWriter) writeFixedBlock(tokens []token, final uint32) error {
	b := bw.bw
	b.writeBits(final, 1)
	b.writeBits(1, 2)
	writeTokens(b, tokens, fixedLiteralCodes, fixedLiteralLengths, fixedDistCodes, fixedDistLengths)
	b.writeHuffmanCode(fixedLiteralCodes[endBlockMarker], fixedLiteralLengths[endBlockMarker])
	return b.err
}

func (bw *blockWriter) writeDynamicBlock(tokens []token, final uint32, numLit, numDist int, litLengths []int, litCodes []uint16, distLengths []int, distCodes []uint16, clLengths []int, clCodes []uint16, ops []codegenOp, hclen int) error {
	b := bw.bw
	b.writeBits(final, 1)
	b.writeBits(2, 2)

	b.writeBits(uint32(numLit-257), 5)
	b.writeBits(uint32(numDist-1), 5)
	b.writeBits(uint32(hclen-4), 4)
	for i := 0; i < hclen; i++ {
		b.writeBits(uint32(clLengths[codeOrder[i]]), 3)
	}

	for _, op := range ops {
		b.writeHuffmanCode(clCodes[op.sym], clLengths[op.sym])
		switch op.sym {
		case 16:
			b.writeBits(uint32(op.extra), 2)
		case 17:
			b.writeBits(uint32(op.extra), 3)
		case 18:
			b.writeBits(uint32(op.extra), 7)
		}
	}

	writeTokens(b, tokens, litCodes, litLengths, distCodes, distLengths)
	b.writeHuffmanCode(litCodes[endBlockMarker], litLengths[endBlockMarker])
	return b.err
}

func writeTokens(b *bitWriter, tokens []token, litCodes []uint16, litLengths []int, distCodes []uint16, distLengths []int) {
	for _, t := range tokens {
		if t.isLiteral() {
			lit := t.literal()
			b.writeHuffmanCode(litCodes[lit], litLengths[lit])
			continue
		}
		sym, extra := lengthCode(t.length())
		b.writeHuffmanCode(litCodes[sym], litLengths[sym])
		if n := lengthExtraBits[sym-lengthCodesStart]; n > 0 {
			b.writeBits(uint32(extra), uint(n))
		}
		dsym, dextra := distCode(t.distance())
		b.writeHuffmanCode(distCodes[dsym], distLengths[dsym])
		if n := distExtraBits[dsym]; n > 0 {
			b.writeBits(uint32(dextra), uint(n))
		}
	}
}

// codegenOp is one symbol of a dynamic block's code-length alphabet
// stream: either a literal code length (sym 0..15) or a repeat
// instruction (sym 16/17/18, with the repeat count folded into extra).
type codegenOp struct {
	sym   int
	extra int
}

func codegenExtraBits(sym int) int {
	switch sym {
	case 16:
		return 2
	case 17:
		return 3
	case 18:
		return 7
	default:
		return 0
	}
}

// buildCodegen walks a combined literal+distance code-length table and
// emits the RFC 1951 section 3.2.7 run-length stream for it, the same
// scan zlib's trees.c performs: runs of three or more identical lengths
// collapse to a single repeat-previous (16) or repeat-zero (17/18)
// symbol, everything else is emitted as a literal code length.
func buildCodegen(src []int) ([]codegenOp, [numCodes]int32) {
	var ops []codegenOp
	var freq [numCodes]int32

	n := len(src)
	i := 0
	for i < n {
		length := src[i]
		j := i + 1
		for j < n && src[j] == length {
			j++
		}
		count := j - i

		if length == 0 {
			for count > 0 {
				c := count
				if c > 138 {
					c = 138
				}
				if c < 3 {
					for k := 0; k < c; k++ {
						ops = append(ops, codegenOp{sym: 0})
						freq[0]++
					}
				} else if c <= 10 {
					ops = append(ops, codegenOp{sym: 17, extra: c - 3})
					freq[17]++
				} else {
					ops = append(ops, codegenOp{sym: 18, extra: c - 11})
					freq[18]++
				}
				count -= c
			}
		} else {
			ops = append(ops, codegenOp{sym: length})
			freq[length]++
			count--
			for count > 0 {
				c := count
				if c > 6 {
					c = 6
				}
				if c < 3 {
					for k := 0; k < c; k++ {
						ops = append(ops, codegenOp{sym: length})
						freq[length]++
					}
				} else {
					ops = append(ops, codegenOp{sym: 16, extra: c - 3})
					freq[16]++
				}
				count -= c
			}
		}
		i = j
	}
	return ops, freq
}
