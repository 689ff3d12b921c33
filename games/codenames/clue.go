/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"strings"
	"unicode"
)

// ClueVerdict is the outcome of ValidateClue. Reason is empty when OK.
type ClueVerdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// NormalizeClue trims and uppercases a clue word.
func NormalizeClue(clue string) string {
	return strings.ToUpper(strings.TrimSpace(clue))
}

// ValidateClue checks a clue against the unrevealed words on the board. A
// clue is rejected when it is empty, spans more than one word, or contains
// (or is contained in) a board word. Board words are checked in the order
// given and the first match is reported.
func ValidateClue(clue string, boardWords []string) ClueVerdict {
	normalized := NormalizeClue(clue)

	if normalized == "" {
		return ClueVerdict{Reason: "Clue cannot be empty"}
	}

	if strings.ContainsFunc(normalized, unicode.IsSpace) {
		return ClueVerdict{Reason: "Clue must be a single word"}
	}

	for _, word := range boardWords {
		w := strings.ToUpper(word)
		if w == "" {
			continue
		}
		if strings.Contains(normalized, w) || strings.Contains(w, normalized) {
			return ClueVerdict{Reason: "Clue matches board word: " + word}
		}
	}

	return ClueVerdict{OK: true}
}
