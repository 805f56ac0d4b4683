package flate

// match is the result of a MatchFinder search: a back-reference of the
// given length starting dist bytes before pos.
type match struct {
	length int
	dist   int
}

// findMatch pushes pos into the hash chain and walks it looking for the
// longest match against the lookahead lh. A candidate only counts if it
// beats both minLen (the length the caller already has in hand) and the
// tokenizer's emission minimum. The walk is bounded by the level's chain
// budget, cut to a quarter once a "good"-length match exists, and stops
// outright at a "nice"-length one. Ties go to the first (most recent)
// candidate found.
func findMatch(h *hashChain, w *slidingWindow, pos int, lh []byte, minLen int, args levelArgs) (match, bool) {
	if len(lh) < minMatchLength {
		return match{}, false
	}

	prev := h.add(lh, pos)

	floor := minLen + 1
	if floor < minMatchLength {
		floor = minMatchLength
	}

	budget := args.chain
	if minLen >= args.good {
		budget >>= 2
	}

	var best match
	for ; budget > 0 && prev > 0; budget-- {
		dist := pos - int(prev)
		if dist > maxMatchOffset {
			break
		}

		length := w.match(int(prev), pos, floor)
		if length > best.length {
			best = match{length: length, dist: dist}
			if length >= args.nice {
				return best, true
			}
			if length >= args.good && budget > args.chain>>2 {
				budget = args.chain >> 2
			}
		}

		prev = h.prev(prev)
	}

	if best.length == 0 {
		return match{}, false
	}
	return best, true
}
