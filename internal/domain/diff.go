package domain

import "strings"

// DiffToken is one word of the actual SQL and whether it departs from the
// expected SQL at the same position.
type DiffToken struct {
	Word    string
	Changed bool
}

// DiffSQL compares actual against expected word by word, ignoring case. It
// is a positional comparison for highlighting, not a scoring algorithm.
func DiffSQL(expected, actual string) []DiffToken {
	actWords := strings.Fields(actual)
	tokens := make([]DiffToken, len(actWords))
	if strings.TrimSpace(expected) == "" {
		for i, w := range actWords {
			tokens[i] = DiffToken{Word: w}
		}
		return tokens
	}
	expWords := strings.Fields(expected)
	for i, w := range actWords {
		changed := i >= len(expWords) || !strings.EqualFold(w, expWords[i])
		tokens[i] = DiffToken{Word: w, Changed: changed}
	}
	return tokens
}

// ChangedCount counts the highlighted words.
func ChangedCount(tokens []DiffToken) int {
	n := 0
	for _, t := range tokens {
		if t.Changed {
			n++
		}
	}
	return n
}
