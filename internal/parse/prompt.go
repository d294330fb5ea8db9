package parse

import (
	"fmt"
	"strings"
	"time"
)

// PromptInput carries everything a parse prompt is built from. The build
// functions are pure: same input, same prompt.
type PromptInput struct {
	Transcript         string
	Templates          []NamedTemplate
	PreviousRecord     string
	ConversationWindow string
	Now                time.Time
	Location           *time.Location
}

const workoutSystemRole = "You convert spoken workout descriptions into structured JSON records for a fitness log. You reply with a single JSON object and nothing else."

const mealSystemRole = "You convert spoken meal descriptions into structured JSON records for a nutrition log. You reply with a single JSON object and nothing else."

const chatSystemRole = "You are a concise, friendly fitness and nutrition coach answering questions about the user's own logged history."

// BuildWorkoutParsePrompt returns the system role string and the full
// instruction prompt for turning a transcript into workout records.
func BuildWorkoutParsePrompt(in PromptInput) (string, string) {
	lines := []string{
		"Parse the user's description of one or more workouts into JSON.",
		"",
		"Output schema:",
		`{"workouts":[{"name":"string","date":"YYYY-MM-DDTHH:MM:SSZ or null","exercises":[{"name":"string","sets":1,"reps":1,"weight":0,"rpe":0,"notes":"string or null"}]}]}`,
		"",
		"Rules:",
		"- Always return a top-level \"workouts\" array, even for a single workout.",
		"- If the user describes multiple distinct workouts (for example \"I did push day and then went for a run\"), return one object per workout, in the order mentioned.",
		"- Standardize exercise names to canonical casing and phrasing (\"bench press\" -> \"Bench Press\", \"squats\" -> \"Squat\").",
		"- Recovery activities (sauna, stretching, foam rolling, ice bath) are valid exercises with sets=1, reps=1, weight=0.",
		"- Cardio activities (running, biking, swimming) are valid exercises; use reps to encode the duration in minutes and set weight=0.",
		"- Weight is in pounds; 0 means bodyweight, cardio, or recovery.",
		"- rpe is a 0-10 effort scale; omit or use 0 when the user did not state it. Never fail because rpe or weight is missing.",
		"- Give each workout a short descriptive name derived from its exercises (for example \"Upper Body Push\") unless it comes from a named template.",
	}
	lines = append(lines, dateContextLines(in.Now, in.Location)...)

	if len(in.Templates) > 0 {
		lines = append(lines,
			"",
			"Available workout templates (full contents):",
		)
		lines = append(lines, templateLines(in.Templates)...)
		lines = append(lines,
			"- If the user references a template by name, even partially (\"push day\" means \"Push Day A\"), reproduce that template's exercises.",
			"- Apply any adjustments the user states (weight or rep changes, added or removed exercises) to the referenced template.",
			"- Entries the user did not adjust must be reproduced exactly as they appear in the template.",
			"- If no template name matches, treat the phrase as an ordinary workout description.",
		)
	}

	if previous := strings.TrimSpace(in.PreviousRecord); previous != "" {
		lines = append(lines,
			"",
			"The user's previous workout, for references like \"same as last time\":",
			previous,
		)
	}
	if window := strings.TrimSpace(in.ConversationWindow); window != "" {
		lines = append(lines,
			"",
			"Recent conversation, for follow-up context:",
			window,
		)
	}

	lines = append(lines,
		"",
		"User input:",
		strings.TrimSpace(in.Transcript),
	)
	return workoutSystemRole, strings.Join(lines, "\n")
}

// BuildMealParsePrompt returns the system role string and the full
// instruction prompt for turning a transcript into meal records.
func BuildMealParsePrompt(in PromptInput) (string, string) {
	lines := []string{
		"Parse the user's description of one or more meals into JSON.",
		"",
		"Output schema:",
		`{"meals":[{"name":"string or null","mealType":"breakfast|lunch|dinner|snack or null","date":"YYYY-MM-DDTHH:MM:SSZ or null","foods":[{"name":"string","portion":"string or null","calories":0,"protein":0,"carbs":0,"fat":0,"notes":"string or null"}]}]}`,
		"",
		"Rules:",
		"- Always return a top-level \"meals\" array, even for a single meal.",
		"- If the user describes multiple meals (\"breakfast was eggs, lunch was a burrito\"), return one object per meal with the matching mealType.",
		"- Default meal times by mealType: breakfast 08:00, lunch 12:00, snack 15:00, dinner 18:00.",
		"- Standardize food names to canonical casing (\"greek yogurt\" -> \"Greek Yogurt\").",
		"- Estimate calories, protein, carbs, and fat when the user does not state them; these are estimates, not verified data.",
		"- Leave a macro field out entirely when you cannot estimate it; never fail because it is missing.",
	}
	lines = append(lines, dateContextLines(in.Now, in.Location)...)

	if len(in.Templates) > 0 {
		lines = append(lines,
			"",
			"Available meal templates (full contents):",
		)
		lines = append(lines, templateLines(in.Templates)...)
		lines = append(lines,
			"- If the user references a template by name, even partially, reproduce that template's foods.",
			"- Apply any adjustments the user states; entries the user did not adjust must be reproduced exactly.",
			"- If no template name matches, treat the phrase as an ordinary meal description.",
		)
	}

	if previous := strings.TrimSpace(in.PreviousRecord); previous != "" {
		lines = append(lines,
			"",
			"The user's previous meal, for references like \"same as last time\":",
			previous,
		)
	}
	if window := strings.TrimSpace(in.ConversationWindow); window != "" {
		lines = append(lines,
			"",
			"Recent conversation, for follow-up context:",
			window,
		)
	}

	lines = append(lines,
		"",
		"User input:",
		strings.TrimSpace(in.Transcript),
	)
	return mealSystemRole, strings.Join(lines, "\n")
}

// BuildChatPrompt returns the system role string and the instruction prompt
// for a conversational query over the user's logged history. The history
// context is embedded as plain text, never as tables.
func BuildChatPrompt(question, historyContext, conversationWindow string) (string, string) {
	lines := []string{
		"Answer the user's question using their logged workout and meal history below.",
		"Keep answers short: two to three paragraphs at most, suitable for a chat bubble.",
		"Use plain text only; no tables.",
		"",
		"Logged history:",
	}
	if history := strings.TrimSpace(historyContext); history != "" {
		lines = append(lines, history)
	} else {
		lines = append(lines, "(no entries logged yet)")
	}
	if window := strings.TrimSpace(conversationWindow); window != "" {
		lines = append(lines,
			"",
			"Recent conversation:",
			window,
		)
	}
	lines = append(lines,
		"",
		"Question:",
		strings.TrimSpace(question),
	)
	return chatSystemRole, strings.Join(lines, "\n")
}

func dateContextLines(now time.Time, loc *time.Location) []string {
	return []string{
		fmt.Sprintf("- Today is %s (%s).", currentDateText(now, loc), weekdayName(now, loc)),
		"- Resolve relative dates (\"yesterday\", \"this past Saturday\") against today and emit an absolute date.",
		"- When the user gives no date, use null.",
	}
}

func templateLines(templates []NamedTemplate) []string {
	lines := make([]string, 0, len(templates))
	for _, template := range templates {
		lines = append(lines, fmt.Sprintf("- %s: %s", template.Name, template.Content))
	}
	return lines
}
