package extract

import "testing"

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1.234,56", want: "1234.56"},
		{in: "1,234.56", want: "1234.56"},
		{in: "1234.56", want: "1234.56"},
		{in: "1234,56", want: "1234.56"},
		{in: "1.234", want: "1234"},
		{in: "1,234", want: "1234"},
		{in: "1.234.567,89", want: "1234567.89"},
		{in: "$ 1.234,56", want: "1234.56"},
		{in: "0,50", want: "0.50"},
		{in: "1,5", want: "1.5"},
		{in: "1234", want: "1234"},
		{in: "000123", want: "123"},
		{in: "sin importe", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeAmount(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeAmount(%q) returned %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeAmount(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAmountIdempotent(t *testing.T) {
	first, err := NormalizeAmount("1.234,56")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NormalizeAmount(first)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("normalization not idempotent: %q then %q", first, second)
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("1.234,56")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1234.56 {
		t.Fatalf("ParseAmount = %v, want 1234.56", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "15/10/2024", want: "15/10/2024"},
		{in: "5/3/2024", want: "05/03/2024"},
		{in: "05-03-2024", want: "05/03/2024"},
		{in: "2024-03-05", want: "05/03/2024"},
		{in: "29/02/2024", want: "29/02/2024"},
		{in: "12 de marzo de 2024", want: "12/03/2024"},
		{in: "1 de enero de 2020", want: "01/01/2020"},
		{in: "31 de diciembre de 1999", want: "31/12/1999"},
		{in: "12 de brumario de 2024", wantErr: true},
		{in: "29/02/2023", wantErr: true},
		{in: "31/02/2024", wantErr: true},
		{in: "fecha", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeDate(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDate(%q) returned %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
