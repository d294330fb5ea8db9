package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/parse"
	"github.com/happypotomus/fitnesstracker/internal/store"
)

const (
	parseTemperature = 0.1
	chatTemperature  = 0.7
)

type transcriptRequest struct {
	Transcript string `json:"transcript"`
}

// writeCompletionError maps the AI and decode error taxonomy onto HTTP
// statuses. Configuration problems are the operator's to fix (503); provider
// and decode failures are retryable upstream trouble (502).
func writeCompletionError(c *gin.Context, err error) {
	var decodeErr *parse.DecodeError
	var serviceErr *ai.ServiceError
	var transportErr *ai.TransportError
	switch {
	case errors.Is(err, ai.ErrNoCredential):
		writeError(c, http.StatusServiceUnavailable, "AI parsing is not configured; set OPENAI_API_KEY")
	case errors.Is(err, ai.ErrInvalidCredential):
		writeError(c, http.StatusBadGateway, "AI provider rejected the configured credentials")
	case errors.Is(err, ai.ErrRateLimited):
		writeError(c, http.StatusTooManyRequests, "AI provider is rate limiting; try again shortly")
	case errors.Is(err, ai.ErrMalformedResponse), errors.As(err, &decodeErr):
		log.Printf("ai response unusable: %v", err)
		writeError(c, http.StatusBadGateway, "AI response could not be understood; try again")
	case errors.As(err, &transportErr), errors.As(err, &serviceErr):
		log.Printf("ai provider unreachable: %v", err)
		writeError(c, http.StatusBadGateway, "AI provider is unavailable; try again")
	default:
		log.Printf("ai query failed: %v", err)
		writeError(c, http.StatusInternalServerError, "AI query failed")
	}
}

// promptContext gathers the per-user context a parse prompt embeds: saved
// templates, the most recent record of the same kind, and the recent chat
// window. Context loading is best effort; a missing piece never blocks a
// parse.
func (a *App) workoutPromptContext(ctx context.Context, userID string) ([]parse.NamedTemplate, string, string) {
	templates := a.workoutTemplatesForPrompt(ctx, userID)

	previous := ""
	if latest, err := a.store.LatestWorkout(ctx, userID); err == nil {
		if encoded, err := json.Marshal(latest); err == nil {
			previous = string(encoded)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("load latest workout failed: user=%s err=%v", userID, err)
	}

	return templates, previous, a.conversationWindow(ctx, userID)
}

func (a *App) mealPromptContext(ctx context.Context, userID string) ([]parse.NamedTemplate, string, string) {
	templates := a.mealTemplatesForPrompt(ctx, userID)

	previous := ""
	if latest, err := a.store.LatestMeal(ctx, userID); err == nil {
		if encoded, err := json.Marshal(latest); err == nil {
			previous = string(encoded)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("load latest meal failed: user=%s err=%v", userID, err)
	}

	return templates, previous, a.conversationWindow(ctx, userID)
}

func (a *App) workoutTemplatesForPrompt(ctx context.Context, userID string) []parse.NamedTemplate {
	sessions, err := a.store.ListWorkouts(ctx, userID, store.ListFilter{TemplatesOnly: true})
	if err != nil {
		log.Printf("load workout templates failed: user=%s err=%v", userID, err)
		return nil
	}
	templates := make([]parse.NamedTemplate, 0, len(sessions))
	for _, session := range sessions {
		encoded, err := json.Marshal(session.Exercises)
		if err != nil {
			continue
		}
		templates = append(templates, parse.NamedTemplate{
			ID:      session.ID,
			Name:    session.Name,
			Content: string(encoded),
		})
	}
	return templates
}

func (a *App) mealTemplatesForPrompt(ctx context.Context, userID string) []parse.NamedTemplate {
	sessions, err := a.store.ListMeals(ctx, userID, store.ListFilter{TemplatesOnly: true})
	if err != nil {
		log.Printf("load meal templates failed: user=%s err=%v", userID, err)
		return nil
	}
	templates := make([]parse.NamedTemplate, 0, len(sessions))
	for _, session := range sessions {
		encoded, err := json.Marshal(session.Foods)
		if err != nil {
			continue
		}
		templates = append(templates, parse.NamedTemplate{
			ID:      session.ID,
			Name:    session.Name,
			Content: string(encoded),
		})
	}
	return templates
}

func (a *App) conversationWindow(ctx context.Context, userID string) string {
	turns, err := a.store.ListChatMessages(ctx, userID, parse.DefaultConversationWindow)
	if err != nil {
		log.Printf("load chat window failed: user=%s err=%v", userID, err)
		return ""
	}
	memory := parse.NewMemory(parse.DefaultConversationWindow)
	for _, turn := range turns {
		memory.Append(turn)
	}
	return memory.FormatForPrompt()
}

// parseTimeRange reads optional start/end query params as YYYY-MM-DD. Bounds
// are interpreted in the configured local timezone, matching the zone entry
// timestamps are anchored in; the end bound is inclusive of its whole day.
func (a *App) parseTimeRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, a.loc)
		if err != nil {
			return nil, nil, errors.New("start must be YYYY-MM-DD")
		}
		start = &parsed
	}
	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, a.loc)
		if err != nil {
			return nil, nil, errors.New("end must be YYYY-MM-DD")
		}
		dayEnd := parsed.Add(24*time.Hour - time.Nanosecond)
		end = &dayEnd
	}
	return start, end, nil
}

func listFilterFor(start, end *time.Time) store.ListFilter {
	return store.ListFilter{Start: start, End: end}
}

func listTemplatesFilter() store.ListFilter {
	return store.ListFilter{TemplatesOnly: true}
}

func writeStoreError(c *gin.Context, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, notFound)
		return
	}
	log.Printf("store operation failed: %v", err)
	writeError(c, http.StatusInternalServerError, failed)
}

func logWarnings(kind, userID string, warnings []string) {
	for _, warning := range warnings {
		log.Printf("%s parse warning: user=%s %s", kind, userID, warning)
	}
}

// logTemplateHints records which saved templates a transcript appears to name.
// The match is advisory only; the prompt always carries the full template list
// and the model decides what applies.
func logTemplateHints(kind, userID string, matched []parse.NamedTemplate) {
	for _, template := range matched {
		log.Printf("%s parse template hint: user=%s template=%q", kind, userID, template.Name)
	}
}
