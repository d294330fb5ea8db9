package parse

import "strings"

// NamedTemplate is the slice of a stored template the matcher needs: the name
// users refer to it by and the serialized contents the prompt embeds.
type NamedTemplate struct {
	ID      string
	Name    string
	Content string
}

// MatchTemplates returns the templates the reference text plausibly names.
// Matching is case-insensitive containment: the text must contain the
// template's full name or a leading word-prefix of it, so "let's do push day"
// selects "Push Day A" while "arm day" selects nothing. Matching is advisory;
// the model receives the full template list either way and no match simply
// means the phrase is ordinary descriptive text.
func MatchTemplates(templates []NamedTemplate, referenceText string) []NamedTemplate {
	text := normalizeMatchText(referenceText)
	if text == "" {
		return nil
	}

	matched := make([]NamedTemplate, 0, len(templates))
	for _, template := range templates {
		if templateNameMatches(template.Name, text) {
			matched = append(matched, template)
		}
	}
	return matched
}

func templateNameMatches(name, normalizedText string) bool {
	words := strings.Fields(normalizeMatchText(name))
	if len(words) == 0 {
		return false
	}
	for keep := len(words); keep >= 1; keep-- {
		phrase := strings.Join(words[:keep], " ")
		if len(phrase) < 3 {
			continue
		}
		if strings.Contains(normalizedText, phrase) {
			return true
		}
	}
	return false
}

func normalizeMatchText(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(input)), " "))
}
