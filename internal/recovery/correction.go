// Package recovery runs the targeted re-OCR search used when a critical
// field is missing or fails its checksum after the general pass: crop the
// regions where the field usually prints, re-OCR every preprocessing
// variant under digit-tuned engine settings, and keep the best candidate.
package recovery

import "strings"

// glyphCorrections maps the letter shapes OCR engines commonly produce when
// misreading digits back to the digit. Applied only to candidates for
// numeric fields, never to free text.
var glyphCorrections = map[rune]rune{
	'O': '0', 'o': '0',
	'I': '1', 'l': '1', '|': '1',
	'S': '5', 's': '5',
	'B': '8',
	'G': '6',
	'Z': '2', 'z': '2',
	'T': '7',
}

// CorrectDigits rewrites commonly confused letter glyphs to digits.
func CorrectDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if digit, ok := glyphCorrections[r]; ok {
			b.WriteRune(digit)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
