package game

// Score compares guess against the hidden code.
//
// Positions are visited once, in order:
//   - guess[i] == code[i] → black, and the colour is marked as claimed.
//   - else guess[i] appears anywhere in code and is not yet claimed → white,
//     and the colour is marked as claimed.
//   - else nothing.
//
// Claims are keyed by colour, so a colour repeated in the guess earns at most
// one white peg. Pegs follow guess order; blacks are not sorted first. Codes
// never repeat a colour, which is why this is simpler than multiset counting.
func Score(code, guess Code) Feedback {
	present := make(map[Color]struct{}, len(code))
	for _, c := range code {
		present[c] = struct{}{}
	}

	fb := make(Feedback, 0, len(guess))
	claimed := make(map[Color]struct{}, len(guess))
	for i, c := range guess {
		if i < len(code) && code[i] == c {
			claimed[c] = struct{}{}
			fb = append(fb, Black)
			continue
		}
		if _, ok := present[c]; !ok {
			continue
		}
		if _, done := claimed[c]; done {
			continue
		}
		claimed[c] = struct{}{}
		fb = append(fb, White)
	}
	return fb
}

// Solves reports whether fb is a perfect score for a code of length n.
func Solves(fb Feedback, n int) bool {
	if len(fb) != n {
		return false
	}
	for _, p := range fb {
		if p != Black {
			return false
		}
	}
	return true
}
