package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/model"
	"github.com/happypotomus/fitnesstracker/internal/parse"
)

// parseWorkouts turns a transcript into structured workout sessions without
// persisting them. The client reviews and confirms with POST /workouts.
func (a *App) parseWorkouts(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	payload := transcriptRequest{}
	if !mustJSON(c, &payload) {
		return
	}
	transcript := strings.TrimSpace(payload.Transcript)
	if transcript == "" {
		writeError(c, http.StatusBadRequest, "transcript is required")
		return
	}

	ctx := c.Request.Context()
	templates, previous, window := a.workoutPromptContext(ctx, userID)
	logTemplateHints("workout", userID, parse.MatchTemplates(templates, transcript))
	system, user := parse.BuildWorkoutParsePrompt(parse.PromptInput{
		Transcript:         transcript,
		Templates:          templates,
		PreviousRecord:     previous,
		ConversationWindow: window,
		Now:                a.now(),
		Location:           a.loc,
	})

	reply, err := a.ai.Complete(ctx, ai.Request{
		System:       system,
		User:         user,
		JSONResponse: true,
		Temperature:  parseTemperature,
		MaxTokens:    a.cfg.AIMaxOutputTokens,
	})
	if err != nil {
		writeCompletionError(c, err)
		return
	}

	sessions, warnings, err := parse.DecodeWorkouts(reply, a.now(), a.loc)
	if err != nil {
		writeCompletionError(c, err)
		return
	}
	logWarnings("workout", userID, warnings)

	for _, session := range sessions {
		if err := parse.ValidateWorkout(session); err != nil {
			writeError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"workouts": sessions})
}

// createWorkouts persists a confirmed batch. Each session is validated and
// saved independently; failures are reported per index.
func (a *App) createWorkouts(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload struct {
		Workouts []model.WorkoutSession `json:"workouts"`
	}
	if !mustJSON(c, &payload) {
		return
	}
	if len(payload.Workouts) == 0 {
		writeError(c, http.StatusBadRequest, "workouts is required")
		return
	}

	ctx := c.Request.Context()
	saved := make([]model.WorkoutSession, 0, len(payload.Workouts))
	failures := make([]gin.H, 0)
	for idx, session := range payload.Workouts {
		session.IsTemplate = false
		session.ReindexExercises()
		if err := parse.ValidateWorkout(session); err != nil {
			failures = append(failures, gin.H{"index": idx, "detail": err.Error()})
			continue
		}
		if err := a.store.CreateWorkout(ctx, userID, session); err != nil {
			failures = append(failures, gin.H{"index": idx, "detail": "Failed to save workout"})
			continue
		}
		saved = append(saved, session)
	}

	status := http.StatusCreated
	if len(failures) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"saved": saved, "failures": failures})
}

func (a *App) listWorkouts(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	start, end, err := a.parseTimeRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := a.store.ListWorkouts(c.Request.Context(), userID, listFilterFor(start, end))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load workouts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": sessions})
}

func (a *App) deleteWorkout(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := a.store.DeleteWorkout(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeStoreError(c, err, "Workout not found", "Failed to delete workout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *App) listWorkoutTemplates(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	sessions, err := a.store.ListWorkouts(c.Request.Context(), userID, listTemplatesFilter())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": sessions})
}

// saveWorkoutAsTemplate copies an existing session into a named template.
func (a *App) saveWorkoutAsTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if !mustJSON(c, &payload) {
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(c, http.StatusBadRequest, "name is required")
		return
	}

	ctx := c.Request.Context()
	session, err := a.store.GetWorkout(ctx, userID, c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Workout not found", "Failed to load workout")
		return
	}

	template := session.Instantiate(a.now())
	template.Name = name
	template.IsTemplate = true
	if err := a.store.CreateWorkout(ctx, userID, template); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to save template")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": template})
}

func (a *App) updateWorkoutTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload model.WorkoutSession
	if !mustJSON(c, &payload) {
		return
	}

	ctx := c.Request.Context()
	existing, err := a.store.GetWorkout(ctx, userID, c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Template not found", "Failed to load template")
		return
	}
	if !existing.IsTemplate {
		writeError(c, http.StatusBadRequest, "Not a template")
		return
	}

	payload.ID = existing.ID
	payload.IsTemplate = true
	if payload.Timestamp.IsZero() {
		payload.Timestamp = existing.Timestamp
	}
	payload.ReindexExercises()
	if err := parse.ValidateWorkout(payload); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := a.store.UpdateWorkout(ctx, userID, payload); err != nil {
		writeStoreError(c, err, "Template not found", "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": payload})
}

// instantiateWorkoutTemplate logs a fresh session from a template, leaving
// the template untouched.
func (a *App) instantiateWorkoutTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx := c.Request.Context()
	template, err := a.store.GetWorkout(ctx, userID, c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Template not found", "Failed to load template")
		return
	}
	if !template.IsTemplate {
		writeError(c, http.StatusBadRequest, "Not a template")
		return
	}

	session := template.Instantiate(a.now())
	if err := a.store.CreateWorkout(ctx, userID, session); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to save workout")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workout": session})
}
