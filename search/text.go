package search

import "strings"

// Stop words to filter out when tokenizing query text
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize splits text into words, lowercases, and trims punctuation.
func tokenize(text string) []string {
	words := strings.Fields(text)
	cleaned := make([]string, 0, len(words))

	for _, word := range words {
		w := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if w != "" {
			cleaned = append(cleaned, w)
		}
	}

	return cleaned
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := tokenize(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}

	return filtered
}

// containsFold reports whether keyword appears in text as a
// case-insensitive substring.
func containsFold(text, keyword string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}
