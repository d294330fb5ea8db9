package parse

import (
	"fmt"
	"strings"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// ValidationError reports a record that failed structural checks before
// persistence.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Field, e.Detail)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Detail: fmt.Sprintf(format, args...)}
}

// ValidateWorkout checks a session is persistable: a timestamp, at least one
// exercise, named entries with positive set and rep counts, non-negative
// weight, effort within 0-10, and a dense 0..n-1 order sequence.
func ValidateWorkout(session model.WorkoutSession) error {
	if session.Timestamp.IsZero() {
		return validationErrorf("timestamp", "missing")
	}
	if len(session.Exercises) == 0 {
		return validationErrorf("exercises", "workout has no exercises")
	}
	if session.IsTemplate && strings.TrimSpace(session.Name) == "" {
		return validationErrorf("name", "template must be named")
	}
	for idx, entry := range session.Exercises {
		field := fmt.Sprintf("exercises[%d]", idx)
		if strings.TrimSpace(entry.Name) == "" {
			return validationErrorf(field+".name", "missing")
		}
		if entry.Sets < 1 {
			return validationErrorf(field+".sets", "must be at least 1, got %d", entry.Sets)
		}
		if entry.Reps < 1 {
			return validationErrorf(field+".reps", "must be at least 1, got %d", entry.Reps)
		}
		if entry.Weight < 0 {
			return validationErrorf(field+".weight", "must not be negative, got %g", entry.Weight)
		}
		if entry.EffortScale < 0 || entry.EffortScale > 10 {
			return validationErrorf(field+".effortScale", "must be within 0-10, got %d", entry.EffortScale)
		}
		if entry.Order != idx {
			return validationErrorf(field+".order", "expected %d, got %d", idx, entry.Order)
		}
	}
	return nil
}

// ValidateMeal checks a meal is persistable. Macro fields stay optional:
// absence means unknown, not invalid.
func ValidateMeal(session model.MealSession) error {
	if session.Timestamp.IsZero() {
		return validationErrorf("timestamp", "missing")
	}
	if len(session.Foods) == 0 {
		return validationErrorf("foods", "meal has no foods")
	}
	if session.IsTemplate && strings.TrimSpace(session.Name) == "" {
		return validationErrorf("name", "template must be named")
	}
	if session.MealType != "" {
		if _, ok := mealDefaultHours[session.MealType]; !ok {
			return validationErrorf("mealType", "unknown meal type %q", session.MealType)
		}
	}
	for idx, food := range session.Foods {
		field := fmt.Sprintf("foods[%d]", idx)
		if strings.TrimSpace(food.Name) == "" {
			return validationErrorf(field+".name", "missing")
		}
		for macro, value := range map[string]*float64{
			field + ".calories": food.Calories,
			field + ".protein":  food.Protein,
			field + ".carbs":    food.Carbs,
			field + ".fat":      food.Fat,
		} {
			if value != nil && *value < 0 {
				return validationErrorf(macro, "must not be negative, got %g", *value)
			}
		}
		if food.Order != idx {
			return validationErrorf(field+".order", "expected %d, got %d", idx, food.Order)
		}
	}
	return nil
}
