package validate

import (
	"errors"
	"testing"
)

func TestCUIT(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "valid person", value: "20123456786", wantErr: nil},
		{name: "valid company", value: "30716595540", wantErr: nil},
		{name: "valid with hyphens", value: "27-00000000-6", wantErr: nil},
		{name: "valid with dots", value: "20.12345678.6", wantErr: nil},
		{name: "flipped digit", value: "20123456787", wantErr: ErrCheckDigit},
		{name: "transposed digits", value: "20123456876", wantErr: ErrCheckDigit},
		{name: "bad prefix", value: "10123456786", wantErr: ErrBadPrefix},
		{name: "too short", value: "2012345678", wantErr: ErrBadLength},
		{name: "too long", value: "201234567861", wantErr: ErrBadLength},
		{name: "empty", value: "", wantErr: ErrBadLength},
		{name: "letters only", value: "not a cuit", wantErr: ErrBadLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CUIT(tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CUIT(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CUIT(%q) = %v, want %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCAE(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "valid", value: "20241015123456", wantErr: nil},
		{name: "valid leap day", value: "20240229080000", wantErr: nil},
		{name: "leap day in non-leap year", value: "20230229080000", wantErr: ErrBadDate},
		{name: "impossible day", value: "20241099120000", wantErr: ErrBadDate},
		{name: "impossible hour", value: "20241015250000", wantErr: ErrBadDate},
		{name: "year before window", value: "19991231235959", wantErr: ErrYearOutside},
		{name: "year after window", value: "20401015123456", wantErr: ErrYearOutside},
		{name: "thirteen digits", value: "2024101512345", wantErr: ErrBadLength},
		{name: "fifteen digits", value: "202410151234567", wantErr: ErrBadLength},
		{name: "valid with spaces", value: "2024 1015 123456", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CAE(tt.value, 2000, 2035)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CAE(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CAE(%q) = %v, want %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCAETimestamp(t *testing.T) {
	ts, err := CAETimestamp("20241015123456")
	if err != nil {
		t.Fatalf("CAETimestamp returned %v", err)
	}
	if ts.Year() != 2024 || ts.Month() != 10 || ts.Day() != 15 {
		t.Fatalf("CAETimestamp parsed %v, want 2024-10-15", ts)
	}
	if ts.Hour() != 12 || ts.Minute() != 34 || ts.Second() != 56 {
		t.Fatalf("CAETimestamp parsed time %v, want 12:34:56", ts)
	}
}

func TestDNI(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "valid eight digits", value: "35123456", wantErr: nil},
		{name: "valid seven digits", value: "5123456", wantErr: nil},
		{name: "valid with dots", value: "35.123.456", wantErr: nil},
		{name: "below issued range", value: "0999999", wantErr: ErrOutOfRange},
		{name: "too short", value: "123456", wantErr: ErrBadLength},
		{name: "too long", value: "351234567", wantErr: ErrBadLength},
		{name: "empty", value: "", wantErr: ErrBadLength},
		{name: "letters only", value: "sin dni", wantErr: ErrBadLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DNI(tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("DNI(%q) = %v, want nil", tt.value, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DNI(%q) = %v, want %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "20-12345678-6", want: "20123456786"},
		{in: "CAE: 2024 1015", want: "20241015"},
		{in: "abc", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
