package font

import "sort"

// Scoring of fonts against a requested spec. The score is a bit-packed
// distance: lower is better, zero is a perfect match. Property priority
// from most to least significant: too-big flag, size, adstyle, family,
// weight, style, stretch, foundry. A registry mismatch rejects the font
// outright.

// NoMatch is the score of a rejected font.
const NoMatch = ^uint32(0)

// score packing; each property occupies its own bit field
const (
	shiftFoundry = 0  // 1 bit
	shiftStretch = 1  // 2 bits, clamped difference
	shiftStyle   = 3  // 2 bits
	shiftWeight  = 5  // 2 bits
	shiftFamily  = 7  // 1 bit
	shiftAdstyle = 8  // 1 bit
	shiftSize    = 9  // 13 bits, relative size difference in 1/16 steps
	shiftTooBig  = 22 // 1 bit, only when the request limits the size
)

// Score computes the distance of a candidate font spec from a request.
// limitedSize penalizes candidates larger than the requested size.
func Score(candidate, request Spec, limitedSize bool) uint32 {
	if request.Registry != "" && candidate.Registry != "" &&
		NormalizeFamily(request.Registry) != NormalizeFamily(candidate.Registry) {
		return NoMatch
	}
	var score uint32
	if request.Foundry != "" && candidate.Foundry != "" &&
		NormalizeFamily(request.Foundry) != NormalizeFamily(candidate.Foundry) {
		score |= 1 << shiftFoundry
	}
	score |= clampDiff(int(candidate.Stretch), int(request.Stretch)) << shiftStretch
	score |= clampDiff(int(candidate.Style), int(request.Style)) << shiftStyle
	score |= clampDiff(int(candidate.Weight), int(request.Weight)) << shiftWeight
	if request.Family != "" && candidate.Family != "" &&
		NormalizeFamily(request.Family) != NormalizeFamily(candidate.Family) {
		score |= 1 << shiftFamily // family mismatch clamps to 1
	}
	if request.Adstyle != "" && candidate.Adstyle != "" &&
		request.Adstyle != candidate.Adstyle {
		score |= 1 << shiftAdstyle
	}
	if request.Size != 0 && candidate.Size != 0 {
		reqPx, candPx := PixelSize(request.Size, 0), PixelSize(candidate.Size, 0)
		if reqPx > 0 && candPx > 0 {
			diff := candPx - reqPx
			if diff < 0 {
				diff = -diff
			}
			rel := uint32(diff * 16 / reqPx)
			if rel > 0x1FFF {
				rel = 0x1FFF
			}
			score |= rel << shiftSize
			if limitedSize && candPx > reqPx {
				score |= 1 << shiftTooBig
			}
		}
	}
	return score
}

func clampDiff(a, b int) uint32 {
	if a == 0 || b == 0 { // unset matches anything
		return 0
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 3 {
		d = 3
	}
	return uint32(d)
}

// PixelSize resolves a spec size field to pixels. Negative sizes are point
// sizes and convert at the given dpi (0 means 100 dpi) with the printer's
// point of 72.27 per inch.
func PixelSize(size int, dpi int) int {
	if size >= 0 {
		return size
	}
	if dpi <= 0 {
		dpi = 100
	}
	pt := -size
	return (pt*dpi*100 + 3613) / 7227 // pt × dpi ÷ 72.27, rounded
}

// SortByScore stably sorts fontset entries by ascending score against a
// request. Each entry is scored against its own spec overlaid with the
// request. Rejected entries sort last.
func SortByScore(entries []Entry, request Spec, limitedSize bool) {
	type scored struct {
		entry Entry
		score uint32
	}
	tmp := make([]scored, len(entries))
	for i, e := range entries {
		tmp[i] = scored{e, Score(*e.Spec, Merge(*e.Spec, request), limitedSize)}
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		return tmp[i].score < tmp[j].score
	})
	for i, s := range tmp {
		entries[i] = s.entry
	}
}
