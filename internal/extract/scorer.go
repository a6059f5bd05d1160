package extract

import (
	"regexp"
	"strings"

	"afipscan/internal/validate"
)

// BonusFunc awards the field-specific score bonus for one candidate value.
type BonusFunc func(value string) float64

// CandidateScorer ranks competing matches for the same field. Both the
// general extractor and the recovery search score through the same instance
// so a recovered value and a first-pass value are always comparable.
type CandidateScorer struct {
	stopWords map[string]bool
}

// NewCandidateScorer returns a scorer with the standard Spanish stop-word
// set.
func NewCandidateScorer() *CandidateScorer {
	words := []string{
		"el", "la", "de", "del", "en", "con", "por", "para", "se", "que", "es", "son",
	}
	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[w] = true
	}
	return &CandidateScorer{stopWords: stop}
}

var (
	hasLetter   = regexp.MustCompile(`[A-Za-z]`)
	specialChar = regexp.MustCompile(`[^\w\s]`)
	onlyDigits  = regexp.MustCompile(`^[\d\s\-.]+$`)
)

// Usable is the validity gate applied before scoring. numeric permits
// values that are digits and separators only, which the gate otherwise
// rejects as noise.
func (s *CandidateScorer) Usable(value string, numeric bool) bool {
	if len(value) < 2 || len(value) > 200 {
		return false
	}
	if s.stopWords[strings.ToLower(value)] {
		return false
	}
	if !numeric && onlyDigits.MatchString(value) {
		return false
	}
	return true
}

// Score rates a candidate. Additive: appropriate length, presence of
// letters, and a low special-character ratio each earn a bonus, and the
// optional field-specific bonus comes on top. Scores only order candidates
// for the same field; they are not comparable across fields.
func (s *CandidateScorer) Score(value string, bonus BonusFunc) float64 {
	score := 0.0

	if n := len(value); n >= 5 && n <= 100 {
		score += 1.0
	}
	if hasLetter.MatchString(value) {
		score += 0.5
	}
	if specials := len(specialChar.FindAllString(value, -1)); float64(specials) < float64(len(value))*0.3 {
		score += 0.5
	}
	if bonus != nil {
		score += bonus(value)
	}
	return score
}

// maxScore is the ceiling of Score with a full bonus, used to map scores
// onto a confidence in [0,1].
const maxScore = 3.0

// Confidence converts a candidate score to an extraction confidence.
func Confidence(score float64) float64 {
	c := score / maxScore
	if c > 1 {
		return 1
	}
	return c
}

// ChecksumBonus awards the full bonus when the value passes a checksum.
func ChecksumBonus(check validate.Checksum) BonusFunc {
	return func(value string) float64 {
		if check(value) == nil {
			return 1.0
		}
		return 0
	}
}

// ShapeBonus awards the full bonus when the value matches a shape pattern.
func ShapeBonus(re *regexp.Regexp) BonusFunc {
	return func(value string) float64 {
		if re.MatchString(value) {
			return 1.0
		}
		return 0
	}
}
