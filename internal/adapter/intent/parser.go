// Package intent implements rule-based intent parsing: no statistics,
// three static keyword tables, explicit confidence arithmetic.
package intent

import (
	"strings"

	"github.com/jeremyhahn/neurlang/internal/core/domain"
)

// Config tunes the offline-capability threshold.
type Config struct {
	OfflineThreshold float64
}

func DefaultConfig() Config {
	return Config{OfflineThreshold: 0.7}
}

// Parser is the rule-based intent parser. It holds no mutable state beyond
// its config; the rule tables are package-level constants.
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser { return &Parser{cfg: cfg} }

// Parse normalizes prompt and runs protocol/template/feature detection,
// producing a ParsedIntent with an explicit confidence score.
func (p *Parser) Parse(prompt string) domain.ParsedIntent {
	normalized := normalize(prompt)
	words := strings.Fields(normalized)

	protocol, protocolScore := detect(protocolRules, normalized, words, 0.8)
	template, templateScore := detectTemplate(normalized, words)
	features := detectFeatures(normalized, words)

	var matched []string
	if protocol != "" {
		matched = append(matched, protocol)
	}
	matched = append(matched, template)
	matched = append(matched, features...)

	var confidence float64
	if protocol != "" {
		confidence = (protocolScore + templateScore) / 2
	} else {
		confidence = templateScore * 0.7
	}

	offlineCapable := protocol != "" && confidence >= p.cfg.OfflineThreshold

	return domain.ParsedIntent{
		Protocol:        protocol,
		Template:        template,
		Features:        features,
		Confidence:      confidence,
		OfflineCapable:  offlineCapable,
		MatchedKeywords: matched,
	}
}

// normalize lowercases and replaces `-_.,:;` with spaces.
func normalize(input string) string {
	s := strings.ToLower(input)
	s = strings.NewReplacer("-", " ", "_", " ", ".", " ", ",", " ", ";", " ", ":", " ").Replace(s)
	return s
}

// detect finds the best label for the given rule table, scoring single-word
// hits at singleWordScore and multi-word hits at
// min(pattern_len/norm_len, 1) + 0.2.
func detect(rules []rule, normalized string, words []string, singleWordScore float64) (string, float64) {
	best := ""
	bestScore := 0.0

	for _, r := range rules {
		if !strings.Contains(r.pattern, " ") {
			continue
		}
		if strings.Contains(normalized, r.pattern) {
			score := float64(len(r.pattern)) / float64(len(normalized))
			if score > 1 {
				score = 1
			}
			score += 0.2
			if score > bestScore {
				best = r.label
				bestScore = score
			}
		}
	}

	for _, w := range words {
		if label, ok := lookupSingle(rules, w); ok {
			if singleWordScore > bestScore {
				best = label
				bestScore = singleWordScore
			}
		}
	}

	return best, bestScore
}

func detectTemplate(normalized string, words []string) (string, float64) {
	best := defaultTemplate
	bestScore := defaultTemplateScore

	for _, r := range templateRules {
		if !strings.Contains(r.pattern, " ") {
			continue
		}
		if strings.Contains(normalized, r.pattern) {
			score := float64(len(r.pattern)) / float64(len(normalized))
			if score > 1 {
				score = 1
			}
			score += 0.3
			if score > bestScore {
				best = r.label
				bestScore = score
			}
		}
	}

	for _, w := range words {
		if label, ok := lookupSingle(templateRules, w); ok {
			if 0.7 > bestScore {
				best = label
				bestScore = 0.7
			}
		}
	}

	return best, bestScore
}

func detectFeatures(normalized string, words []string) []string {
	var features []string
	seen := make(map[string]bool)

	for _, r := range featureRules {
		if strings.Contains(r.pattern, " ") && strings.Contains(normalized, r.pattern) {
			if !seen[r.label] {
				seen[r.label] = true
				features = append(features, r.label)
			}
		}
	}

	for _, w := range words {
		if label, ok := lookupSingle(featureRules, w); ok {
			if !seen[label] {
				seen[label] = true
				features = append(features, label)
			}
		}
	}

	return features
}

func lookupSingle(rules []rule, word string) (string, bool) {
	for _, r := range rules {
		if !strings.Contains(r.pattern, " ") && r.pattern == word {
			return r.label, true
		}
	}
	return "", false
}
