package model

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseEntry is one exercise inside a workout session. For cardio-style
// entries Reps carries the duration in minutes; Weight 0 means bodyweight,
// cardio, or recovery work.
type ExerciseEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	EffortScale int     `json:"effortScale"`
	Notes       *string `json:"notes,omitempty"`
	Order       int     `json:"order"`
}

type WorkoutSession struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Name       string          `json:"name,omitempty"`
	IsTemplate bool            `json:"isTemplate"`
	Exercises  []ExerciseEntry `json:"exercises"`
}

// FoodEntry keeps macro fields nullable: an unknown calorie count is not the
// same thing as zero calories.
type FoodEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Portion  *string  `json:"portion,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
	Order    int      `json:"order"`
}

type MealSession struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Name       string      `json:"name,omitempty"`
	IsTemplate bool        `json:"isTemplate"`
	MealType   string      `json:"mealType,omitempty"`
	Foods      []FoodEntry `json:"foods"`
}

type ConversationTurn struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	FromUser  bool      `json:"fromUser"`
	Timestamp time.Time `json:"timestamp"`
}

// MealTotals sums a meal's macros treating missing values as 0. The per-entry
// nil is preserved on the entries themselves.
type MealTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (w WorkoutSession) TotalSets() int {
	total := 0
	for _, entry := range w.Exercises {
		total += entry.Sets
	}
	return total
}

func (w WorkoutSession) TotalRepVolume() int {
	total := 0
	for _, entry := range w.Exercises {
		total += entry.Sets * entry.Reps
	}
	return total
}

// ReindexExercises restores the dense 0..n-1 order sequence in slice order.
func (w *WorkoutSession) ReindexExercises() {
	for idx := range w.Exercises {
		w.Exercises[idx].Order = idx
	}
}

// RemoveExercise deletes the entry at the given position and reindexes the
// remainder, preserving relative sequence.
func (w *WorkoutSession) RemoveExercise(index int) {
	if index < 0 || index >= len(w.Exercises) {
		return
	}
	w.Exercises = append(w.Exercises[:index], w.Exercises[index+1:]...)
	w.ReindexExercises()
}

// Instantiate copies a template into a fresh editable session: new ids for the
// session and every exercise, IsTemplate cleared, timestamp set to now.
func (w WorkoutSession) Instantiate(now time.Time) WorkoutSession {
	copied := WorkoutSession{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Name:       w.Name,
		IsTemplate: false,
		Exercises:  make([]ExerciseEntry, len(w.Exercises)),
	}
	for idx, entry := range w.Exercises {
		entry.ID = uuid.NewString()
		entry.Order = idx
		copied.Exercises[idx] = entry
	}
	return copied
}

func (m MealSession) Totals() MealTotals {
	totals := MealTotals{}
	for _, food := range m.Foods {
		if food.Calories != nil {
			totals.Calories += *food.Calories
		}
		if food.Protein != nil {
			totals.Protein += *food.Protein
		}
		if food.Carbs != nil {
			totals.Carbs += *food.Carbs
		}
		if food.Fat != nil {
			totals.Fat += *food.Fat
		}
	}
	return totals
}

func (m *MealSession) ReindexFoods() {
	for idx := range m.Foods {
		m.Foods[idx].Order = idx
	}
}

func (m *MealSession) RemoveFood(index int) {
	if index < 0 || index >= len(m.Foods) {
		return
	}
	m.Foods = append(m.Foods[:index], m.Foods[index+1:]...)
	m.ReindexFoods()
}

func (m MealSession) Instantiate(now time.Time) MealSession {
	copied := MealSession{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Name:       m.Name,
		IsTemplate: false,
		MealType:   m.MealType,
		Foods:      make([]FoodEntry, len(m.Foods)),
	}
	for idx, food := range m.Foods {
		food.ID = uuid.NewString()
		food.Order = idx
		copied.Foods[idx] = food
	}
	return copied
}
