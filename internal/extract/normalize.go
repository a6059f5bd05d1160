package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NormalizeAmount converts an OCR amount rendering to the canonical
// "1234.56" form. Argentine documents write "1.234,56" but OCR output also
// shows "1,234.56" and bare "1234.56"; when both separators appear, the
// last one is the decimal mark.
func NormalizeAmount(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return "", fmt.Errorf("no digits in amount %q", raw)
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	var intPart, fracPart string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep := lastDot
		if lastComma > lastDot {
			sep = lastComma
		}
		intPart, fracPart = cleaned[:sep], cleaned[sep+1:]
	case lastDot >= 0:
		intPart, fracPart = splitSingleSeparator(cleaned, lastDot)
	case lastComma >= 0:
		intPart, fracPart = splitSingleSeparator(cleaned, lastComma)
	default:
		intPart = cleaned
	}

	intPart = strings.Map(keepDigit, intPart)
	fracPart = strings.Map(keepDigit, fracPart)
	if intPart == "" {
		return "", fmt.Errorf("no integer digits in amount %q", raw)
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}

	if fracPart == "" {
		return intPart, nil
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	return intPart + "." + fracPart, nil
}

// splitSingleSeparator decides whether a lone separator is a decimal mark
// or a thousands mark. Two trailing digits mean decimals; three mean a
// thousands group.
func splitSingleSeparator(s string, sep int) (string, string) {
	tail := s[sep+1:]
	if len(tail) == 3 && !strings.ContainsAny(tail, ".,") {
		return s[:sep] + tail, ""
	}
	return s[:sep], tail
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// ParseAmount normalizes and parses an amount into a float.
func ParseAmount(raw string) (float64, error) {
	normalized, err := NormalizeAmount(raw)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(normalized, 64)
}

// dateLayouts are the renderings accepted for document dates, tried in
// order.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"02/01/06",
}

// spanishMonths maps the month names printed in long-form Spanish dates.
var spanishMonths = map[string]string{
	"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
	"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
	"septiembre": "09", "octubre": "10", "noviembre": "11", "diciembre": "12",
}

var longSpanishDate = regexp.MustCompile(`^(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})$`)

// NormalizeDate converts a matched date to DD/MM/YYYY. Identity and academic
// documents also print the long Spanish form ("12 de marzo de 2024"), which
// is rewritten before parsing. time.Parse rejects impossible dates, so
// "31/02/2024" fails here rather than downstream.
func NormalizeDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if m := longSpanishDate.FindStringSubmatch(trimmed); m != nil {
		month, ok := spanishMonths[strings.ToLower(m[2])]
		if !ok {
			return "", fmt.Errorf("unknown month in date %q", raw)
		}
		trimmed = fmt.Sprintf("%s/%s/%s", m[1], month, m[3])
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.Format("02/01/2006"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}
