package flate

// tokenizer runs the lazy-matching LZ77 main loop over a slidingWindow,
// using a hashChain to find candidate back-references. It carries a single
// position's worth of state (the previous position's literal and, if one
// was found, its best match) forward between steps to implement lazy
// matching: a match isn't committed until the next position fails to beat
// it.
type tokenizer struct {
	window *slidingWindow
	chain  *hashChain
	args   levelArgs

	huffmanOnly bool // level == HuffmanOnly: never search for matches

	prevMatch     match
	havePrevMatch bool
	prevLit       byte
	havePrevLit   bool
}

func newTokenizer(w *slidingWindow, h *hashChain, args levelArgs, huffmanOnly bool) *tokenizer {
	return &tokenizer{window: w, chain: h, args: args, huffmanOnly: huffmanOnly}
}

// step advances the tokenizer by one input position and appends at most two
// tokens to out (a deferred literal plus a freshly committed match; every
// other outcome appends at most one token). It reports
// more=false once activeLookahead has nothing left to offer, at which point
// the caller should call flushPending.
func (t *tokenizer) step(flush bool, out []token) (_ []token, more bool) {
	lh := t.window.activeLookahead(flush)
	if lh == nil {
		return out, false
	}

	pos := t.window.pos()

	minLen := 0
	if t.havePrevMatch {
		minLen = t.prevMatch.length
	}

	var found match
	var ok bool
	if !t.huffmanOnly {
		found, ok = findMatch(t.chain, t.window, pos, lh, minLen, t.args)
	}

	step := 1
	if ok {
		if t.havePrevLit {
			out = append(out, literalToken(t.prevLit))
			t.havePrevLit = false
		}
		if found.length >= t.args.lazy {
			out = append(out, matchToken(found.length, found.dist))
			step = found.length
			t.havePrevMatch = false
		} else {
			t.prevMatch = found
			t.havePrevMatch = true
			t.prevLit = lh[0]
			t.havePrevLit = true
			step = 1
		}
	} else {
		if t.havePrevMatch {
			out = append(out, matchToken(t.prevMatch.length, t.prevMatch.dist))
			step = t.prevMatch.length - 1
			t.havePrevMatch = false
			// prevLit was the literal alternative to this same deferred
			// position; the match won, so that alternative is void, not
			// still pending.
			t.havePrevLit = false
		} else {
			if t.havePrevLit {
				out = append(out, literalToken(t.prevLit))
			}
			t.prevLit = lh[0]
			t.havePrevLit = true
			step = 1
		}
	}

	if step > 1 {
		t.chain.bulkAdd(t.window.buf, step-1, pos+1)
	}
	t.window.advance(step)

	return out, true
}

// flushPending forces an immediate decision on whatever lazy-matching state
// is held back, without waiting for the next position to out-do it. At the
// end of the stream only a deferred literal can remain (the tail lookahead
// is too short to match), but mid-stream a deferred match may still be
// outstanding: emitting it early costs a little compression but keeps the
// invariant that everything written so far is recoverable from the blocks
// already flushed.
func (t *tokenizer) flushPending(out []token) []token {
	if t.havePrevMatch {
		out = append(out, matchToken(t.prevMatch.length, t.prevMatch.dist))
		// Only one byte of this match's span was consumed when it was
		// deferred (advance(1) in step); the rest still needs inserting
		// into the hash chain and advancing over, same as step's own
		// "prior match wins" path.
		if step := t.prevMatch.length - 1; step > 0 {
			pos := t.window.pos()
			t.chain.bulkAdd(t.window.buf, step, pos)
			t.window.advance(step)
		}
		t.havePrevMatch = false
		t.havePrevLit = false
		return out
	}
	if t.havePrevLit {
		out = append(out, literalToken(t.prevLit))
		t.havePrevLit = false
	}
	return out
}
