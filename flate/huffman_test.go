package flate

import "testing"

// kraftSum verifies that a set of code lengths forms a complete prefix
// code: sum of 2^-length over all non-zero lengths must equal 1 exactly
// for a complete canonical Huffman code to exist.
func kraftSum(lengths []int, maxLen int) int64 {
	var sum int64
	scale := int64(1) << maxLen
	for _, l := range lengths {
		if l > 0 {
			sum += scale >> l
		}
	}
	return sum
}

func TestFixedLiteralLengthsComplete(t *testing.T) {
	if len(fixedLiteralLengths) != 288 {
		t.Fatalf("fixedLiteralLengths has %d entries, want 288", len(fixedLiteralLengths))
	}
	if got, want := kraftSum(fixedLiteralLengths, 9), int64(1)<<9; got != want {
		t.Fatalf("fixed literal code is not complete: kraft sum %d, want %d", got, want)
	}
}

func TestFixedDistLengthsIncomplete(t *testing.T) {
	// The fixed distance alphabet is genuinely incomplete per RFC 1951: only
	// 30 of the 32 possible 5-bit codes are assigned.
	if got, want := kraftSum(fixedDistLengths, 5), int64(1)<<5; got == want {
		t.Fatalf("fixed distance code unexpectedly complete: %d", got)
	}
	if len(fixedDistLengths) != maxNumDist {
		t.Fatalf("fixedDistLengths has %d entries, want %d", len(fixedDistLengths), maxNumDist)
	}
}

func TestHuffmanDecoderAcceptsBuiltCode(t *testing.T) {
	freqs := make([]int32, 10)
	freqs[0] = 40
	freqs[1] = 20
	freqs[2] = 10
	freqs[3] = 10
	freqs[4] = 5
	freqs[5] = 5
	freqs[6] = 3
	freqs[7] = 3
	freqs[8] = 2
	freqs[9] = 1

	lengths := lengthLimitedCodeLengths(freqs, maxCodeLen)
	if got, want := kraftSum(lengths, maxCodeLen), int64(1)<<maxCodeLen; got != want {
		t.Fatalf("generated code is incomplete: kraft sum %d, want %d", got, want)
	}

	var dec huffmanDecoder
	if !dec.init(lengths) {
		t.Fatal("huffmanDecoder.init rejected a complete code")
	}
}

func TestLengthLimitedCodeLengthsRespectsMax(t *testing.T) {
	// Fibonacci frequencies would need codes up to 11 bits long under an
	// unbounded Huffman tree; the length-limited builder must clamp to
	// maxLen and still produce a valid code.
	freqs := []int32{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144}

	const maxLen = 7
	lengths := lengthLimitedCodeLengths(freqs, maxLen)
	for sym, l := range lengths {
		if l > maxLen {
			t.Fatalf("symbol %d has length %d, exceeds max %d", sym, l, maxLen)
		}
	}
	if got, want := kraftSum(lengths, maxLen), int64(1)<<maxLen; got != want {
		t.Fatalf("length-limited code is incomplete: kraft sum %d, want %d", got, want)
	}
}

func TestLengthCodeRoundTrip(t *testing.T) {
	for length := baseMatchLength; length <= maxMatchLength; length++ {
		sym, extra := lengthCode(length)
		i := sym - lengthCodesStart
		got := lengthBase[i] + extra
		if got != length {
			t.Fatalf("lengthCode(%d) = (%d, %d), round-trips to %d", length, sym, extra, got)
		}
	}
}

func TestDistCodeRoundTrip(t *testing.T) {
	for _, dist := range []int{1, 2, 3, 4, 100, 1000, 32768} {
		sym, extra := distCode(dist)
		got := distBase[sym] + extra
		if got != dist {
			t.Fatalf("distCode(%d) = (%d, %d), round-trips to %d", dist, sym, extra, got)
		}
	}
}
