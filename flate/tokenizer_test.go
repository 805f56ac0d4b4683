package flate

import (
	"bytes"
	"fmt"
	"testing"
)

// tokenize runs the lazy-matching loop over input in one shot and returns
// the full token stream, checking the emission invariant along the way:
// literal count plus summed match lengths must equal the input length.
func tokenize(t *testing.T, input string, level int) []token {
	t.Helper()
	w := newSlidingWindow()
	h := newHashChain(len(w.buf))
	tok := newTokenizer(w, h, levelTable[level], false)

	n := copy(w.writable(), input)
	w.written(n)

	var out []token
	for {
		var more bool
		out, more = tok.step(true, out)
		if !more {
			break
		}
	}
	out = tok.flushPending(out)

	covered := 0
	for _, tk := range out {
		if tk.isLiteral() {
			covered++
		} else {
			covered += tk.length()
		}
	}
	if covered != len(input) {
		t.Fatalf("tokens cover %d bytes, input has %d", covered, len(input))
	}
	return out
}

func lits(s string) []token {
	out := make([]token, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = literalToken(s[i])
	}
	return out
}

func tokensEqual(a, b []token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fmtTokens(ts []token) string {
	var buf bytes.Buffer
	for i, tk := range ts {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if tk.isLiteral() {
			fmt.Fprintf(&buf, "L(%c)", tk.literal())
		} else {
			fmt.Fprintf(&buf, "M(%d,%d)", tk.length(), tk.distance())
		}
	}
	return buf.String()
}

// TestTokenizeImmediateMatch: a match long enough to clear the lazy
// threshold is emitted the moment it is found, after the deferred literal
// preceding it.
func TestTokenizeImmediateMatch(t *testing.T) {
	got := tokenize(t, "Blah blah blah blah blah!", Default)
	want := append(lits("Blah b"), matchToken(18, 5), literalToken('!'))
	if !tokensEqual(got, want) {
		t.Fatalf("token stream:\ngot  %s\nwant %s", fmtTokens(got), fmtTokens(want))
	}
}

// TestTokenizeDeferredMatchSuperseded: a short match is deferred, and the
// next position finds a longer one, so the deferred position resolves to
// its literal and the longer match wins.
func TestTokenizeDeferredMatchSuperseded(t *testing.T) {
	got := tokenize(t, "ABCDEABCD ABCDEABCD", Default)
	want := append(lits("ABCDEABCD A"), matchToken(8, 10))
	if !tokensEqual(got, want) {
		t.Fatalf("token stream:\ngot  %s\nwant %s", fmtTokens(got), fmtTokens(want))
	}
}

// TestTokenizeNoMatches: input with no repeated 4-byte substring is all
// literals.
func TestTokenizeNoMatches(t *testing.T) {
	got := tokenize(t, "abcdefghijklmnop", Default)
	want := lits("abcdefghijklmnop")
	if !tokensEqual(got, want) {
		t.Fatalf("token stream:\ngot  %s\nwant %s", fmtTokens(got), fmtTokens(want))
	}
}

func TestHashChainSlide(t *testing.T) {
	buf := bytes.Repeat([]byte("abcd"), 8)
	h := newHashChain(len(buf))
	for p := 0; p+4 <= len(buf); p++ {
		h.add(buf[p:], p)
	}

	hv := hash4([]byte("abcd"))
	walk := func() []int32 {
		var seq []int32
		for p := h.head[hv]; p > 0; p = h.prev(p) {
			seq = append(seq, p)
		}
		return seq
	}

	// "abcd" starts at every multiple of 4; position 0 is the sentinel and
	// never appears in the walk.
	want := []int32{28, 24, 20, 16, 12, 8, 4}
	got := walk()
	if len(got) != len(want) {
		t.Fatalf("chain walk: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain walk: got %v, want %v", got, want)
		}
	}

	h.slide(16)
	want = []int32{12, 8, 4}
	got = walk()
	if len(got) != len(want) {
		t.Fatalf("chain walk after slide: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain walk after slide: got %v, want %v", got, want)
		}
	}
}
