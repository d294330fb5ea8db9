package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/model"
	"github.com/happypotomus/fitnesstracker/internal/parse"
	"github.com/happypotomus/fitnesstracker/internal/store"
)

// chatHistoryDays bounds how much logged history a chat prompt carries.
const chatHistoryDays = 30

// chatQuery answers a free-form question over the user's logged history. The
// question and answer are both recorded so follow-ups have context.
func (a *App) chatQuery(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload struct {
		Question string `json:"question"`
	}
	if !mustJSON(c, &payload) {
		return
	}
	question := strings.TrimSpace(payload.Question)
	if question == "" {
		writeError(c, http.StatusBadRequest, "question is required")
		return
	}

	ctx := c.Request.Context()
	window := a.conversationWindow(ctx, userID)
	history := a.historyContext(ctx, userID)
	system, user := parse.BuildChatPrompt(question, history, window)

	answer, err := a.ai.Complete(ctx, ai.Request{
		System:      system,
		User:        user,
		Temperature: chatTemperature,
		MaxTokens:   a.cfg.AIMaxOutputTokens,
	})
	if err != nil {
		writeCompletionError(c, err)
		return
	}

	now := a.now()
	userTurn := model.ConversationTurn{
		ID:        uuid.NewString(),
		Content:   question,
		FromUser:  true,
		Timestamp: now,
	}
	// The answer lands a millisecond later so the pair stays ordered even
	// after the database truncates timestamps to microseconds.
	assistantTurn := model.ConversationTurn{
		ID:        uuid.NewString(),
		Content:   answer,
		Timestamp: now.Add(time.Millisecond),
	}
	if err := a.store.AppendChatMessage(ctx, userID, userTurn); err != nil {
		log.Printf("record chat question failed: user=%s err=%v", userID, err)
	}
	if err := a.store.AppendChatMessage(ctx, userID, assistantTurn); err != nil {
		log.Printf("record chat answer failed: user=%s err=%v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (a *App) clearChatHistory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := a.store.ClearChatMessages(c.Request.Context(), userID); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to clear chat history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// historyContext renders recent logged sessions as plain text lines for the
// chat prompt. Best effort: a load failure just shrinks the context.
func (a *App) historyContext(ctx context.Context, userID string) string {
	since := a.now().AddDate(0, 0, -chatHistoryDays)
	filter := store.ListFilter{Start: &since}
	lines := make([]string, 0)

	workouts, err := a.store.ListWorkouts(ctx, userID, filter)
	if err != nil {
		log.Printf("load workout history failed: user=%s err=%v", userID, err)
	}
	for _, session := range workouts {
		lines = append(lines, workoutHistoryLine(session))
	}

	meals, err := a.store.ListMeals(ctx, userID, filter)
	if err != nil {
		log.Printf("load meal history failed: user=%s err=%v", userID, err)
	}
	for _, session := range meals {
		lines = append(lines, mealHistoryLine(session))
	}

	return strings.Join(lines, "\n")
}

func workoutHistoryLine(session model.WorkoutSession) string {
	parts := make([]string, 0, len(session.Exercises))
	for _, entry := range session.Exercises {
		part := fmt.Sprintf("%s %dx%d", entry.Name, entry.Sets, entry.Reps)
		if entry.Weight > 0 {
			part += fmt.Sprintf(" @%glb", entry.Weight)
		}
		parts = append(parts, part)
	}
	name := session.Name
	if name == "" {
		name = "Workout"
	}
	return fmt.Sprintf("Workout %s: %s (%s)",
		session.Timestamp.Format("2006-01-02"), name, strings.Join(parts, ", "))
}

func mealHistoryLine(session model.MealSession) string {
	names := make([]string, 0, len(session.Foods))
	for _, food := range session.Foods {
		names = append(names, food.Name)
	}
	totals := session.Totals()
	label := session.MealType
	if label == "" {
		label = "meal"
	}
	return fmt.Sprintf("Meal %s %s: %s (%.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat)",
		session.Timestamp.Format("2006-01-02"), label,
		strings.Join(names, ", "),
		totals.Calories, totals.Protein, totals.Carbs, totals.Fat)
}
