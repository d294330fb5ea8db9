package parse

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// DecodeError marks a model reply that could not be turned into records. The
// whole batch is rejected: callers never persist a partially decoded reply.
type DecodeError struct {
	Detail string
}

func (e *DecodeError) Error() string {
	return "decode ai response: " + e.Detail
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Detail: fmt.Sprintf(format, args...)}
}

type workoutBatchPayload struct {
	Workouts []workoutPayload `json:"workouts"`
}

type workoutPayload struct {
	Name      string            `json:"name"`
	Date      *string           `json:"date"`
	Exercises []exercisePayload `json:"exercises"`
}

type exercisePayload struct {
	Name   string   `json:"name"`
	Sets   *int     `json:"sets"`
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
	RPE    *float64 `json:"rpe"`
	Notes  *string  `json:"notes"`
}

type mealBatchPayload struct {
	Meals []mealPayload `json:"meals"`
}

type mealPayload struct {
	Name     *string       `json:"name"`
	MealType *string       `json:"mealType"`
	Date     *string       `json:"date"`
	Foods    []foodPayload `json:"foods"`
}

type foodPayload struct {
	Name     string   `json:"name"`
	Portion  *string  `json:"portion"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
	Notes    *string  `json:"notes"`
}

// DecodeWorkouts converts a model reply into workout sessions with fresh ids,
// resolved timestamps, and dense exercise ordering. The returned warnings are
// non-fatal notes (unparseable dates) the caller may log.
func DecodeWorkouts(raw string, now time.Time, loc *time.Location) ([]model.WorkoutSession, []string, error) {
	var payload workoutBatchPayload
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &payload); err != nil {
		return nil, nil, decodeErrorf("invalid json: %v", err)
	}
	if len(payload.Workouts) == 0 {
		return nil, nil, decodeErrorf("missing workouts array")
	}

	var warnings []string
	sessions := make([]model.WorkoutSession, 0, len(payload.Workouts))
	for idx, workout := range payload.Workouts {
		if len(workout.Exercises) == 0 {
			return nil, nil, decodeErrorf("workout %d has no exercises", idx)
		}
		timestamp, ok := ResolveEntryDate(stringValue(workout.Date), now, loc)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("workout %d: unparseable date %q, using current time", idx, stringValue(workout.Date)))
		}
		session := model.WorkoutSession{
			ID:        uuid.NewString(),
			Timestamp: timestamp,
			Name:      strings.TrimSpace(workout.Name),
			Exercises: make([]model.ExerciseEntry, 0, len(workout.Exercises)),
		}
		for entryIdx, exercise := range workout.Exercises {
			name := strings.TrimSpace(exercise.Name)
			if name == "" {
				return nil, nil, decodeErrorf("workout %d exercise %d has no name", idx, entryIdx)
			}
			session.Exercises = append(session.Exercises, model.ExerciseEntry{
				ID:          uuid.NewString(),
				Name:        name,
				Sets:        intOrDefault(exercise.Sets, 1),
				Reps:        intOrDefault(exercise.Reps, 1),
				Weight:      floatOrDefault(exercise.Weight, 0),
				EffortScale: clampEffortScale(exercise.RPE),
				Notes:       trimmedOrNil(exercise.Notes),
				Order:       entryIdx,
			})
		}
		sessions = append(sessions, session)
	}
	return sessions, warnings, nil
}

// DecodeMeals converts a model reply into meal sessions. A meal without a date
// falls back to its meal type's conventional hour today rather than the
// date-only anchor.
func DecodeMeals(raw string, now time.Time, loc *time.Location) ([]model.MealSession, []string, error) {
	var payload mealBatchPayload
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &payload); err != nil {
		return nil, nil, decodeErrorf("invalid json: %v", err)
	}
	if len(payload.Meals) == 0 {
		return nil, nil, decodeErrorf("missing meals array")
	}

	var warnings []string
	sessions := make([]model.MealSession, 0, len(payload.Meals))
	for idx, meal := range payload.Meals {
		if len(meal.Foods) == 0 {
			return nil, nil, decodeErrorf("meal %d has no foods", idx)
		}
		mealType := normalizeMealType(stringValue(meal.MealType))
		var timestamp time.Time
		if raw := strings.TrimSpace(stringValue(meal.Date)); raw == "" {
			timestamp = defaultMealTime(mealType, now, loc)
		} else {
			var ok bool
			timestamp, ok = ResolveEntryDate(raw, now, loc)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("meal %d: unparseable date %q, using current time", idx, raw))
			}
		}
		session := model.MealSession{
			ID:        uuid.NewString(),
			Timestamp: timestamp,
			Name:      strings.TrimSpace(stringValue(meal.Name)),
			MealType:  mealType,
			Foods:     make([]model.FoodEntry, 0, len(meal.Foods)),
		}
		for entryIdx, food := range meal.Foods {
			name := strings.TrimSpace(food.Name)
			if name == "" {
				return nil, nil, decodeErrorf("meal %d food %d has no name", idx, entryIdx)
			}
			session.Foods = append(session.Foods, model.FoodEntry{
				ID:       uuid.NewString(),
				Name:     name,
				Portion:  trimmedOrNil(food.Portion),
				Calories: food.Calories,
				Protein:  food.Protein,
				Carbs:    food.Carbs,
				Fat:      food.Fat,
				Notes:    trimmedOrNil(food.Notes),
				Order:    entryIdx,
			})
		}
		sessions = append(sessions, session)
	}
	return sessions, warnings, nil
}

var mealDefaultHours = map[string]int{
	"breakfast": 8,
	"lunch":     12,
	"snack":     15,
	"dinner":    18,
}

func defaultMealTime(mealType string, now time.Time, loc *time.Location) time.Time {
	hour, ok := mealDefaultHours[mealType]
	if !ok {
		return now
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}

func normalizeMealType(raw string) string {
	mealType := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := mealDefaultHours[mealType]; ok {
		return mealType
	}
	return ""
}

// stripJSONFences removes a markdown code fence some models wrap JSON replies
// in despite JSON response mode.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func intOrDefault(value *int, fallback int) int {
	if value == nil || *value <= 0 {
		return fallback
	}
	return *value
}

func floatOrDefault(value *float64, fallback float64) float64 {
	if value == nil || *value < 0 {
		return fallback
	}
	return *value
}

func clampEffortScale(value *float64) int {
	if value == nil {
		return 0
	}
	scale := int(math.Round(*value))
	if scale < 0 {
		return 0
	}
	if scale > 10 {
		return 10
	}
	return scale
}
