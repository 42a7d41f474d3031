package generation

import "slices"

const ellipsis = "..."

var sentenceEnds = []rune{'。', '！', '？', '；', '.', '!', '?'}

// Truncate limits text to maxRunes runes plus an ellipsis. It cuts after the
// last sentence end inside the limit when that lies past half of it, and
// hard-cuts otherwise.
func Truncate(text string, maxRunes int) (string, bool) {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text, false
	}
	window := runes[:maxRunes]
	for i := len(window) - 1; i > maxRunes/2; i-- {
		if window[i] == '\n' {
			return string(window[:i]) + ellipsis, true
		}
		if slices.Contains(sentenceEnds, window[i]) {
			return string(window[:i+1]) + ellipsis, true
		}
	}
	return string(window) + ellipsis, true
}
