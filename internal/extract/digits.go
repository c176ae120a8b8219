package extract

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	variationSelector16 = '\uFE0F'
	combiningKeycap     = '\u20E3'
)

// digitFold maps every supported digit variant onto its ASCII digit.
var digitFold = buildDigitFold()

func buildDigitFold() map[rune]rune {
	m := make(map[rune]rune, 128)
	span := func(zero rune) {
		for i := rune(0); i < 10; i++ {
			m[zero+i] = '0' + i
		}
	}

	span('\uFF10') // fullwidth
	span('\u2080') // subscript
	span('\u09E6') // Bengali

	// Mathematical bold, double-struck, sans-serif, sans-serif bold, monospace.
	for zero := rune(0x1D7CE); zero <= 0x1D7F6; zero += 10 {
		span(zero)
	}

	for i, r := range []rune{'\u2070', '\u00B9', '\u00B2', '\u00B3', '\u2074', '\u2075', '\u2076', '\u2077', '\u2078', '\u2079'} {
		m[r] = '0' + rune(i)
	}

	m['\u24EA'] = '0' // circled zero
	for i := rune(1); i <= 9; i++ {
		m['\u2460'+i-1] = '0' + i
	}
	return m
}

func foldDigit(r rune) rune {
	if d, ok := digitFold[r]; ok {
		return d
	}
	return r
}

func isKeycapMark(r rune) bool {
	return r == variationSelector16 || r == combiningKeycap
}

// Transliterate rewrites decorative and non-Latin digits (fullwidth,
// sub/superscript, circled, mathematical, Bengali, keycap emoji) to ASCII
// digits so the patterns below can stay ASCII-only. Text that cannot be
// transformed is returned as-is.
func Transliterate(s string) string {
	t := transform.Chain(runes.Remove(runes.Predicate(isKeycapMark)), runes.Map(foldDigit))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
