package valuation

import (
	"fmt"
	"math"
	"strings"
)

// ConditionAnalyzer scores home condition from the declared age and the
// keyword signal of a walkthrough video transcript. It is pure: identical
// inputs produce identical summaries.
type ConditionAnalyzer struct {
	cfg Config
}

func NewConditionAnalyzer(cfg Config) *ConditionAnalyzer {
	return &ConditionAnalyzer{cfg: cfg}
}

// Analyze produces a ConditionSummary. Photos are accepted for interface
// parity but carry no signal; only pre-extracted text is analyzed. An empty
// transcript falls back to the age-only baseline instead of failing.
func (a *ConditionAnalyzer) Analyze(subject SubjectHome, photos []string, transcript string) (ConditionSummary, error) {
	if err := validateSubject(subject); err != nil {
		return ConditionSummary{}, err
	}

	base := a.cfg.BaseConditionScore + ageAdjustment(a.cfg.referenceYear()-subject.YearBuilt)

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		score := clampInt(base, 0, 100)
		label := labelForScore(score)
		return ConditionSummary{
			OverallCondition:   label,
			ConditionScore:     score,
			Highlights:         []string{},
			Concerns:           []string{},
			Interior:           map[string]string{},
			Exterior:           map[string]string{},
			Summary:            fmt.Sprintf("The property is in %s condition (score %d/100). No walkthrough transcript was provided; the score reflects property age only.", strings.ToLower(string(label)), score),
			TranscriptAnalyzed: false,
		}, nil
	}

	lower := strings.ToLower(transcript)
	pos := countHits(lower, a.cfg.Keywords.Positive)
	neg := countHits(lower, a.cfg.Keywords.Negative)

	// Bounded sentiment tilt: the positive/negative hit ratio shifts the
	// age baseline by at most ±SentimentTiltMax points.
	tilt := 0
	if pos+neg > 0 {
		tilt = int(math.Round(float64(a.cfg.SentimentTiltMax) * float64(pos-neg) / float64(pos+neg)))
	}

	score := clampInt(base+tilt, 0, 100)
	label := labelForScore(score)

	sentences := splitSentences(transcript)
	highlights := matchedContexts(sentences, a.cfg.Keywords.Positive, a.cfg.MaxListedFindings)
	concerns := matchedContexts(sentences, a.cfg.Keywords.Negative, a.cfg.MaxListedFindings)

	return ConditionSummary{
		OverallCondition:   label,
		ConditionScore:     score,
		Highlights:         highlights,
		Concerns:           concerns,
		Interior:           areaMentions(sentences, a.cfg.InteriorAreas),
		Exterior:           areaMentions(sentences, a.cfg.ExteriorAreas),
		Summary:            fmt.Sprintf("The property is in %s condition (score %d/100). The walkthrough surfaced %d highlights and %d concerns.", strings.ToLower(string(label)), score, len(highlights), len(concerns)),
		TranscriptAnalyzed: true,
	}, nil
}

// ageAdjustment shifts the base score by property age band: newer homes
// start higher, homes past fifty years lose ground.
func ageAdjustment(age int) int {
	if age < 0 {
		age = 0
	}
	switch {
	case age < 5:
		return 15
	case age < 10:
		return 10
	case age < 20:
		return 5
	case age > 50:
		return -10
	default:
		return 0
	}
}

// labelForScore maps the integer score onto the five condition bands.
// Integer scoring keeps band edges exact: 50 is always Average.
func labelForScore(score int) ConditionLabel {
	switch {
	case score >= 80:
		return ConditionExcellent
	case score >= 60:
		return ConditionGood
	case score >= 40:
		return ConditionAverage
	case score >= 20:
		return ConditionFair
	default:
		return ConditionPoor
	}
}

func countHits(lower string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += keywordHits(lower, kw)
	}
	return total
}

// keywordHits counts whole-word occurrences of kw in lower. Boundary checks
// on both sides keep short keywords from firing inside longer words, so
// "dated" does not register in "updated" or "outdated".
func keywordHits(lower, kw string) int {
	if kw == "" {
		return 0
	}
	hits := 0
	for start := 0; ; {
		i := strings.Index(lower[start:], kw)
		if i < 0 {
			return hits
		}
		i += start
		before := i == 0 || !isWordByte(lower[i-1])
		after := i+len(kw) == len(lower) || !isWordByte(lower[i+len(kw)])
		if before && after {
			hits++
		}
		start = i + len(kw)
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// matchedContexts returns, in transcript order, the sentences containing at
// least one keyword. Original casing is preserved, duplicates dropped, and
// the list is capped at max keeping first-encountered matches.
func matchedContexts(sentences []string, keywords []string, max int) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, s := range sentences {
		ls := strings.ToLower(s)
		for _, kw := range keywords {
			if keywordHits(ls, kw) > 0 {
				if _, dup := seen[s]; !dup {
					seen[s] = struct{}{}
					out = append(out, s)
				}
				break
			}
		}
		if len(out) >= max {
			break
		}
	}
	return out
}

// areaMentions maps each named area to its first two mentioning sentences.
func areaMentions(sentences []string, areas []string) map[string]string {
	out := map[string]string{}
	for _, area := range areas {
		var hits []string
		for _, s := range sentences {
			if strings.Contains(strings.ToLower(s), area) {
				hits = append(hits, s)
				if len(hits) == 2 {
					break
				}
			}
		}
		if len(hits) > 0 {
			out[area] = strings.Join(hits, " ")
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			if s := strings.TrimSpace(text[start : i+1]); s != "" && s != "." && s != "!" && s != "?" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
