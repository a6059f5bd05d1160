package extract

import (
	"testing"

	"afipscan/internal/validate"
)

func TestScorerUsable(t *testing.T) {
	scorer := NewCandidateScorer()

	tests := []struct {
		name    string
		value   string
		numeric bool
		want    bool
	}{
		{name: "normal text", value: "ACME Servicios SRL", want: true},
		{name: "empty", value: "", want: false},
		{name: "single char", value: "A", want: false},
		{name: "stop word", value: "del", want: false},
		{name: "stop word upper", value: "DEL", want: false},
		{name: "digits rejected for text", value: "20123456786", numeric: false, want: false},
		{name: "digits allowed for numeric", value: "20123456786", numeric: true, want: true},
		{name: "over 200 chars", value: string(make([]byte, 201)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Usable(tt.value, tt.numeric); got != tt.want {
				t.Fatalf("Usable(%q, %v) = %v, want %v", tt.value, tt.numeric, got, tt.want)
			}
		})
	}
}

func TestScorerOrdersCandidates(t *testing.T) {
	scorer := NewCandidateScorer()

	// A well-formed company name outranks a short noisy fragment.
	good := scorer.Score("ACME Servicios SRL", nil)
	noisy := scorer.Score("A;;)", nil)
	if good <= noisy {
		t.Fatalf("clean candidate scored %v, noisy scored %v", good, noisy)
	}
}

func TestChecksumBonusRanksValidCUITFirst(t *testing.T) {
	scorer := NewCandidateScorer()
	bonus := ChecksumBonus(validate.CUITChecksum)

	valid := scorer.Score("30716595540", bonus)
	invalid := scorer.Score("30716595541", bonus)
	if valid <= invalid {
		t.Fatalf("checksum-valid CUIT scored %v, invalid scored %v", valid, invalid)
	}
	if valid-invalid != 1.0 {
		t.Fatalf("checksum bonus = %v, want 1.0", valid-invalid)
	}
}

func TestConfidenceBounds(t *testing.T) {
	if got := Confidence(0); got != 0 {
		t.Fatalf("Confidence(0) = %v", got)
	}
	if got := Confidence(maxScore); got != 1 {
		t.Fatalf("Confidence(maxScore) = %v", got)
	}
	if got := Confidence(maxScore * 2); got != 1 {
		t.Fatalf("Confidence above ceiling = %v, want 1", got)
	}
}
