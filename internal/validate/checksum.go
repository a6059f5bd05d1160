// Package validate implements format and checksum rules for extracted
// fields, and the cross-field validation engine that turns a structured
// document into a verdict.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Sentinel validation errors. These classify the failure; the wrapping
// message carries the specifics.
var (
	ErrBadLength   = errors.New("unexpected length")
	ErrNotNumeric  = errors.New("value is not numeric")
	ErrBadPrefix   = errors.New("prefix not in the allowed set")
	ErrCheckDigit  = errors.New("check digit mismatch")
	ErrBadDate     = errors.New("embedded date is not calendar-valid")
	ErrYearOutside = errors.New("embedded year outside plausible window")
	ErrOutOfRange  = errors.New("value outside the issued range")
)

// cuitWeights is the official weighting for the CUIT mod-11 check digit,
// applied to the first ten digits.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// cuitPrefixes is the fixed set of valid two-digit CUIT type prefixes
// (persons 20/23/24/25/26/27, companies 30/33/34).
var cuitPrefixes = map[string]bool{
	"20": true, "23": true, "24": true, "25": true, "26": true, "27": true,
	"30": true, "33": true, "34": true,
}

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CUIT validates an Argentine tax identifier: 11 digits, an allowed type
// prefix, and a weighted mod-11 check digit. Separators are stripped first.
func CUIT(value string) error {
	digits := Digits(value)
	if len(digits) != 11 {
		return fmt.Errorf("%w: CUIT needs 11 digits, got %d", ErrBadLength, len(digits))
	}
	if !cuitPrefixes[digits[:2]] {
		return fmt.Errorf("%w: CUIT prefix %s", ErrBadPrefix, digits[:2])
	}

	sum := 0
	for i, w := range cuitWeights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	expected := remainder
	if remainder >= 2 {
		expected = 11 - remainder
	}
	if expected != int(digits[10]-'0') {
		return fmt.Errorf("%w: computed %d, found %c", ErrCheckDigit, expected, digits[10])
	}
	return nil
}

// CAE validates an AFIP electronic authorization code: exactly 14 digits
// encoding an issuance timestamp as YYYYMMDDHHMMSS, with the year inside
// [yearMin, yearMax] and every component calendar-valid (leap years
// included).
func CAE(value string, yearMin, yearMax int) error {
	digits := Digits(value)
	if len(digits) != 14 {
		return fmt.Errorf("%w: CAE needs 14 digits, got %d", ErrBadLength, len(digits))
	}

	ts, err := CAETimestamp(digits)
	if err != nil {
		return err
	}
	if year := ts.Year(); year < yearMin || year > yearMax {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutside, year, yearMin, yearMax)
	}
	return nil
}

// CAETimestamp parses the YYYYMMDDHHMMSS timestamp embedded in a 14-digit
// CAE. time.Parse enforces calendar validity, so 20230229... fails while
// 20240229... does not.
func CAETimestamp(digits string) (time.Time, error) {
	ts, err := time.Parse("20060102150405", digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, digits)
	}
	return ts, nil
}

// DNI validates an Argentine national identity number: 7 or 8 digits within
// the issued range. DNI numbers carry no check digit, so this is a shape and
// range check only. Separators are stripped first.
func DNI(value string) error {
	digits := Digits(value)
	if len(digits) < 7 || len(digits) > 8 {
		return fmt.Errorf("%w: DNI needs 7 or 8 digits, got %d", ErrBadLength, len(digits))
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNotNumeric, digits)
	}
	if n < 1_000_000 || n > 99_999_999 {
		return fmt.Errorf("%w: DNI %d", ErrOutOfRange, n)
	}
	return nil
}

// Checksum is a field-shape checksum function usable by the candidate
// scorer. Implementations return nil for a valid value.
type Checksum func(value string) error

// CUITChecksum adapts CUIT to the Checksum signature.
func CUITChecksum(value string) error { return CUIT(value) }

// DNIChecksum adapts DNI to the Checksum signature.
func DNIChecksum(value string) error { return DNI(value) }

// CAEChecksumWithWindow binds a year window into a Checksum.
func CAEChecksumWithWindow(yearMin, yearMax int) Checksum {
	return func(value string) error {
		return CAE(value, yearMin, yearMax)
	}
}
