package moderation

import "strings"

// blockedTerms are prohibited wherever they appear.
var blockedTerms = [...]string{
	"racista", "racist", "discriminación", "discrimination",
	"supremacía", "supremacy", "odio racial", "racial hate",
	"xenofobia", "xenophobia", "prejuicio", "prejudice",
}

// sensitiveTerms are identity descriptors that must not be paired with a
// socioeconomic term in the same text.
var sensitiveTerms = [...]string{
	"negro", "negra", "indígena", "indigena", "gitano", "gitana",
	"latino", "latina", "asiático", "asiatica", "africano", "africana",
	"etnia", "raza", "racial", "ethnic", "tribe", "tribal",
}

var socioeconomicTerms = [...]string{
	"pobreza", "poverty", "pobre", "poor",
	"miseria", "misery", "hambre", "hunger",
	"marginación", "marginal", "marginalidad",
	"desigualdad", "inequality", "clase baja", "lower class",
}

// IsProhibited reports whether text contains a blocked term, or a
// socioeconomic term together with a sensitive term. Matching is a
// case-insensitive substring match; empty text is never prohibited.
func IsProhibited(text string) bool {
	if text == "" {
		return false
	}
	normalized := strings.ToLower(text)

	if containsAny(normalized, blockedTerms[:]) {
		return true
	}
	return hasSensitiveCombination(normalized)
}

// FilterTags returns the tags that pass IsProhibited, preserving order.
// tags may be a []string or a decoded JSON array; anything else yields an
// empty slice. Non-string elements of a JSON array are dropped.
func FilterTags(tags any) []string {
	filtered := []string{}

	switch v := tags.(type) {
	case []string:
		for _, tag := range v {
			if !IsProhibited(tag) {
				filtered = append(filtered, tag)
			}
		}
	case []any:
		for _, el := range v {
			tag, ok := el.(string)
			if !ok {
				continue
			}
			if !IsProhibited(tag) {
				filtered = append(filtered, tag)
			}
		}
	}

	return filtered
}

// hasSensitiveCombination expects already lower-cased text.
func hasSensitiveCombination(normalized string) bool {
	if !containsAny(normalized, socioeconomicTerms[:]) {
		return false
	}
	return containsAny(normalized, sensitiveTerms[:])
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
