package services

import (
	"strings"
	"unicode/utf8"
)

// CalculateRelevanceScore computes the naive match score between a text blob
// and a query. The weights (10 exact phrase, 2 per word occurrence, 5 short
// text bonus) and the 100-char threshold are load-bearing: existing clients
// and exports depend on them.
func CalculateRelevanceScore(text, query string) int {
	if query == "" {
		return 1
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	score := 0

	// Exact phrase match gets highest score
	if strings.Contains(lowerText, lowerQuery) {
		score += 10
	}

	// Individual word matches
	for _, word := range strings.Fields(lowerQuery) {
		score += strings.Count(lowerText, word) * 2
	}

	// Title-like (short) texts containing the query get a bonus
	if len(text) < 100 && strings.Contains(lowerText, lowerQuery) {
		score += 5
	}

	return score
}

func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	// Never cut inside a multi-byte rune.
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut]) + "..."
}
