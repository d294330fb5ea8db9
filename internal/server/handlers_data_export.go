package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/happypotomus/fitnesstracker/internal/model"
	"github.com/happypotomus/fitnesstracker/internal/parse"
	"github.com/happypotomus/fitnesstracker/internal/store"
)

// exportData returns the user's complete log, templates included, as a
// versioned document that POST /import accepts unchanged.
func (a *App) exportData(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	ctx := c.Request.Context()
	filter := store.ListFilter{IncludeTemplates: true}

	workouts, err := a.store.ListWorkouts(ctx, userID, filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load workouts")
		return
	}
	meals, err := a.store.ListMeals(ctx, userID, filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to load meals")
		return
	}

	c.JSON(http.StatusOK, model.BackupDocument{
		Version:    model.BackupVersion,
		ExportDate: a.now().UTC(),
		Workouts:   workouts,
		Meals:      meals,
	})
}

// importData restores records from an exported document, ids included.
// Records that fail validation or collide with existing ids are skipped and
// counted, never aborting the rest.
func (a *App) importData(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var document model.BackupDocument
	if !mustJSON(c, &document) {
		return
	}
	if document.Version != model.BackupVersion {
		writeError(c, http.StatusBadRequest, "Unsupported backup version")
		return
	}

	ctx := c.Request.Context()
	workoutsImported, workoutsSkipped := 0, 0
	for _, session := range document.Workouts {
		session.ReindexExercises()
		if session.ID == "" || parse.ValidateWorkout(session) != nil {
			workoutsSkipped++
			continue
		}
		if err := a.store.CreateWorkout(ctx, userID, session); err != nil {
			workoutsSkipped++
			continue
		}
		workoutsImported++
	}

	mealsImported, mealsSkipped := 0, 0
	for _, session := range document.Meals {
		session.ReindexFoods()
		if session.ID == "" || parse.ValidateMeal(session) != nil {
			mealsSkipped++
			continue
		}
		if err := a.store.CreateMeal(ctx, userID, session); err != nil {
			mealsSkipped++
			continue
		}
		mealsImported++
	}

	c.JSON(http.StatusOK, gin.H{
		"workoutsImported": workoutsImported,
		"workoutsSkipped":  workoutsSkipped,
		"mealsImported":    mealsImported,
		"mealsSkipped":     mealsSkipped,
	})
}
