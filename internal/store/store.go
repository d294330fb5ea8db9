package store

import (
	"context"
	"errors"
	"time"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// ErrNotFound is returned when a record does not exist or belongs to another
// user. Callers cannot tell the two apart, which keeps ids unguessable.
var ErrNotFound = errors.New("store: record not found")

// ListFilter bounds a session listing. Nil bounds are open; IncludeTemplates
// widens the listing to template records (exports use this).
type ListFilter struct {
	Start            *time.Time
	End              *time.Time
	IncludeTemplates bool
	TemplatesOnly    bool
}

// Store is the persistence surface the API serves from. Every operation is
// scoped to a user id taken from the verified token, never from the payload.
type Store interface {
	CreateWorkout(ctx context.Context, userID string, session model.WorkoutSession) error
	GetWorkout(ctx context.Context, userID, id string) (model.WorkoutSession, error)
	UpdateWorkout(ctx context.Context, userID string, session model.WorkoutSession) error
	DeleteWorkout(ctx context.Context, userID, id string) error
	ListWorkouts(ctx context.Context, userID string, filter ListFilter) ([]model.WorkoutSession, error)
	LatestWorkout(ctx context.Context, userID string) (model.WorkoutSession, error)

	CreateMeal(ctx context.Context, userID string, session model.MealSession) error
	GetMeal(ctx context.Context, userID, id string) (model.MealSession, error)
	UpdateMeal(ctx context.Context, userID string, session model.MealSession) error
	DeleteMeal(ctx context.Context, userID, id string) error
	ListMeals(ctx context.Context, userID string, filter ListFilter) ([]model.MealSession, error)
	LatestMeal(ctx context.Context, userID string) (model.MealSession, error)

	AppendChatMessage(ctx context.Context, userID string, turn model.ConversationTurn) error
	ListChatMessages(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error)
	ClearChatMessages(ctx context.Context, userID string) error
}
