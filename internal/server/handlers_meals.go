package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/model"
	"github.com/happypotomus/fitnesstracker/internal/parse"
)

func (a *App) parseMeals(c *gin.Context) {
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
	templates, previous, window := a.mealPromptContext(ctx, userID)
	logTemplateHints("meal", userID, parse.MatchTemplates(templates, transcript))
	system, user := parse.BuildMealParsePrompt(parse.PromptInput{
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

	sessions, warnings, err := parse.DecodeMeals(reply, a.now(), a.loc)
	if err != nil {
		writeCompletionError(c, err)
		return
	}
	logWarnings("meal", userID, warnings)

	for _, session := range sessions {
		if err := parse.ValidateMeal(session); err != nil {
			writeError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"meals": sessions})
}

func (a *App) createMeals(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload struct {
		Meals []model.MealSession `json:"meals"`
	}
	if !mustJSON(c, &payload) {
		return
	}
	if len(payload.Meals) == 0 {
		writeError(c, http.StatusBadRequest, "meals is required")
		return
	}

	ctx := c.Request.Context()
	saved := make([]model.MealSession, 0, len(payload.Meals))
	failures := make([]gin.H, 0)
	for idx, session := range payload.Meals {
		session.IsTemplate = false
		session.ReindexFoods()
		if err := parse.ValidateMeal(session); err != nil {
			failures = append(failures, gin.H{"index": idx, "detail": err.Error()})
			continue
		}
		if err := a.store.CreateMeal(ctx, userID, session); err != nil {
			failures = append(failures, gin.H{"index": idx, "detail": "Failed to save meal"})
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

// listMeals includes per-session macro totals so clients render a day view
// without re-summing.
func (a *App) listMeals(c *gin.Context) {
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

	sessions, err := a.store.ListMeals(c.Request.Context(), userID, listFilterFor(start, end))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load meals")
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, gin.H{
			"meal":   session,
			"totals": session.Totals(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"meals": items})
}

func (a *App) deleteMeal(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := a.store.DeleteMeal(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeStoreError(c, err, "Meal not found", "Failed to delete meal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *App) listMealTemplates(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	sessions, err := a.store.ListMeals(c.Request.Context(), userID, listTemplatesFilter())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": sessions})
}

func (a *App) saveMealAsTemplate(c *gin.Context) {
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
	session, err := a.store.GetMeal(ctx, userID, c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Meal not found", "Failed to load meal")
		return
	}

	template := session.Instantiate(a.now())
	template.Name = name
	template.IsTemplate = true
	if err := a.store.CreateMeal(ctx, userID, template); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to save template")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": template})
}

func (a *App) updateMealTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var payload model.MealSession
	if !mustJSON(c, &payload) {
		return
	}

	ctx := c.Request.Context()
	existing, err := a.store.GetMeal(ctx, userID, c.Param("id"))
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
	payload.ReindexFoods()
	if err := parse.ValidateMeal(payload); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := a.store.UpdateMeal(ctx, userID, payload); err != nil {
		writeStoreError(c, err, "Template not found", "Failed to update template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": payload})
}

func (a *App) instantiateMealTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx := c.Request.Context()
	template, err := a.store.GetMeal(ctx, userID, c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Template not found", "Failed to load template")
		return
	}
	if !template.IsTemplate {
		writeError(c, http.StatusBadRequest, "Not a template")
		return
	}

	session := template.Instantiate(a.now())
	if err := a.store.CreateMeal(ctx, userID, session); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to save meal")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meal": session})
}
