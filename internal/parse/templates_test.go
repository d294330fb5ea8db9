package parse

import "testing"

func sampleTemplates() []NamedTemplate {
	return []NamedTemplate{
		{ID: "t1", Name: "Push Day A", Content: `{"exercises":[{"name":"Bench Press","sets":4,"reps":8}]}`},
		{ID: "t2", Name: "Leg Day", Content: `{"exercises":[{"name":"Squat","sets":5,"reps":5}]}`},
	}
}

func TestMatchTemplatesPartialNameSelectsOnlyThatTemplate(t *testing.T) {
	matched := MatchTemplates(sampleTemplates(), "I did push day with heavier bench")
	if len(matched) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(matched))
	}
	if matched[0].Name != "Push Day A" {
		t.Fatalf("expected Push Day A, got %q", matched[0].Name)
	}
}

func TestMatchTemplatesIsCaseInsensitive(t *testing.T) {
	matched := MatchTemplates(sampleTemplates(), "LEG DAY went well")
	if len(matched) != 1 || matched[0].Name != "Leg Day" {
		t.Fatalf("expected Leg Day match, got %v", matched)
	}
}

func TestMatchTemplatesUnknownPhraseMatchesNothing(t *testing.T) {
	if matched := MatchTemplates(sampleTemplates(), "arm day was brutal"); len(matched) != 0 {
		t.Fatalf("expected no matches, got %v", matched)
	}
}

func TestMatchTemplatesEmptyTextMatchesNothing(t *testing.T) {
	if matched := MatchTemplates(sampleTemplates(), "   "); len(matched) != 0 {
		t.Fatalf("expected no matches for blank text, got %v", matched)
	}
}
