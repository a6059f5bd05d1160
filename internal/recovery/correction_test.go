package recovery

import "testing"

func TestCorrectDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2O241O15123456", "20241015123456"},
		{"3O-7I659554-O", "30-71659554-0"},
		{"I.234,5G", "1.234,56"},
		{"SOS", "505"},
		{"B|Z", "812"},
		{"20241015123456", "20241015123456"},
		{"", ""},
		{"ñandú", "ñandú"},
	}

	for _, tt := range tests {
		if got := CorrectDigits(tt.in); got != tt.want {
			t.Errorf("CorrectDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
