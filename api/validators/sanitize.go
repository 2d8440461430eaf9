package validators

import (
	"strings"
	"unicode"
)

// CleanText trims input, folds runs of whitespace into one space, drops
// control characters and truncates to maxRunes runes (0 means no limit).
func CleanText(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	space := false
	runes := 0
	for _, r := range strings.TrimSpace(input) {
		if maxRunes > 0 && runes >= maxRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
			runes++
			if maxRunes > 0 && runes >= maxRunes {
				break
			}
		}
		space = false
		b.WriteRune(r)
		runes++
	}
	return strings.TrimSpace(b.String())
}
