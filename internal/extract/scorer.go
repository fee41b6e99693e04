package extract

import (
	"sort"
	"strings"
	"unicode/utf8"

	"mhdb/internal/config"
)

type signal struct {
	term   string
	weight int
}

// Scorer assigns a 0..100 quality score to a block of text.
type Scorer struct {
	signals      []signal
	base         int
	lengthBonus  int
	shortLength  int
	longLength   int
	contactBonus int
}

// NewScorer builds a scorer from the extraction settings.
func NewScorer(cfg config.ExtractionConfig) *Scorer {
	signals := make([]signal, 0, len(cfg.Signals))
	for term, weight := range cfg.Signals {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}

		signals = append(signals, signal{term: term, weight: weight})
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].term < signals[j].term })

	return &Scorer{
		signals:      signals,
		base:         cfg.BaseScore,
		lengthBonus:  cfg.LengthBonus,
		shortLength:  cfg.ShortLength,
		longLength:   cfg.LongLength,
		contactBonus: cfg.ContactBonus,
	}
}

// Score returns the clamped quality score of text.
func (s *Scorer) Score(text string) int {
	lower := strings.ToLower(text)
	score := s.base

	for _, sig := range s.signals {
		if strings.Contains(lower, sig.term) {
			score += sig.weight
		}
	}

	length := utf8.RuneCountInString(text)
	if length > s.shortLength {
		score += s.lengthBonus
	}

	if length > s.longLength {
		score += s.lengthBonus
	}

	if emailPattern.MatchString(text) {
		score += s.contactBonus
	}

	if phonePattern.MatchString(text) {
		score += s.contactBonus
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
