package tagset

import "strings"

// ParseTags splits editor text on commas, trims each word and drops empty
// words and duplicates. The first spelling of a repeated word wins.
func ParseTags(text string) []string {
	seen := make(map[string]struct{})
	words := []string{}
	for _, part := range strings.Split(text, ",") {
		w := strings.TrimSpace(part)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// ToEditString renders tag names back into editor text.
// Names that contain a comma do not survive a ParseTags round trip.
func ToEditString(names []string) string {
	return strings.Join(names, ", ")
}
