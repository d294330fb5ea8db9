package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// Memory is an in-process Store used by handler tests and local development
// without a database. Semantics mirror the Postgres implementation.
type Memory struct {
	mu       sync.RWMutex
	workouts map[string]map[string]model.WorkoutSession
	meals    map[string]map[string]model.MealSession
	chats    map[string][]model.ConversationTurn
}

func NewMemory() *Memory {
	return &Memory{
		workouts: make(map[string]map[string]model.WorkoutSession),
		meals:    make(map[string]map[string]model.MealSession),
		chats:    make(map[string][]model.ConversationTurn),
	}
}

func (s *Memory) CreateWorkout(_ context.Context, userID string, session model.WorkoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workouts[userID] == nil {
		s.workouts[userID] = make(map[string]model.WorkoutSession)
	}
	s.workouts[userID][session.ID] = cloneWorkout(session)
	return nil
}

func (s *Memory) GetWorkout(_ context.Context, userID, id string) (model.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.workouts[userID][id]
	if !ok {
		return model.WorkoutSession{}, ErrNotFound
	}
	return cloneWorkout(session), nil
}

func (s *Memory) UpdateWorkout(_ context.Context, userID string, session model.WorkoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workouts[userID][session.ID]; !ok {
		return ErrNotFound
	}
	s.workouts[userID][session.ID] = cloneWorkout(session)
	return nil
}

func (s *Memory) DeleteWorkout(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workouts[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.workouts[userID], id)
	return nil
}

func (s *Memory) ListWorkouts(_ context.Context, userID string, filter ListFilter) ([]model.WorkoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]model.WorkoutSession, 0)
	for _, session := range s.workouts[userID] {
		if !matchesFilter(session.IsTemplate, session.Timestamp, filter) {
			continue
		}
		sessions = append(sessions, cloneWorkout(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Memory) LatestWorkout(_ context.Context, userID string) (model.WorkoutSession, error) {
	sessions, _ := s.ListWorkouts(context.Background(), userID, ListFilter{})
	if len(sessions) == 0 {
		return model.WorkoutSession{}, ErrNotFound
	}
	return sessions[0], nil
}

func (s *Memory) CreateMeal(_ context.Context, userID string, session model.MealSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meals[userID] == nil {
		s.meals[userID] = make(map[string]model.MealSession)
	}
	s.meals[userID][session.ID] = cloneMeal(session)
	return nil
}

func (s *Memory) GetMeal(_ context.Context, userID, id string) (model.MealSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.meals[userID][id]
	if !ok {
		return model.MealSession{}, ErrNotFound
	}
	return cloneMeal(session), nil
}

func (s *Memory) UpdateMeal(_ context.Context, userID string, session model.MealSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meals[userID][session.ID]; !ok {
		return ErrNotFound
	}
	s.meals[userID][session.ID] = cloneMeal(session)
	return nil
}

func (s *Memory) DeleteMeal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meals[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.meals[userID], id)
	return nil
}

func (s *Memory) ListMeals(_ context.Context, userID string, filter ListFilter) ([]model.MealSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]model.MealSession, 0)
	for _, session := range s.meals[userID] {
		if !matchesFilter(session.IsTemplate, session.Timestamp, filter) {
			continue
		}
		sessions = append(sessions, cloneMeal(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Memory) LatestMeal(_ context.Context, userID string) (model.MealSession, error) {
	sessions, _ := s.ListMeals(context.Background(), userID, ListFilter{})
	if len(sessions) == 0 {
		return model.MealSession{}, ErrNotFound
	}
	return sessions[0], nil
}

func (s *Memory) AppendChatMessage(_ context.Context, userID string, turn model.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[userID] = append(s.chats[userID], turn)
	return nil
}

func (s *Memory) ListChatMessages(_ context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := append([]model.ConversationTurn(nil), s.chats[userID]...)
	sort.SliceStable(turns, func(i, j int) bool {
		if turns[i].Timestamp.Equal(turns[j].Timestamp) {
			return turns[i].FromUser && !turns[j].FromUser
		}
		return turns[i].Timestamp.Before(turns[j].Timestamp)
	})
	start := len(turns) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	return turns[start:], nil
}

func (s *Memory) ClearChatMessages(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, userID)
	return nil
}

func matchesFilter(isTemplate bool, timestamp time.Time, filter ListFilter) bool {
	switch {
	case filter.TemplatesOnly:
		if !isTemplate {
			return false
		}
	case !filter.IncludeTemplates:
		if isTemplate {
			return false
		}
	}
	if filter.Start != nil && timestamp.Before(*filter.Start) {
		return false
	}
	if filter.End != nil && timestamp.After(*filter.End) {
		return false
	}
	return true
}

func cloneWorkout(session model.WorkoutSession) model.WorkoutSession {
	copied := session
	copied.Exercises = append([]model.ExerciseEntry(nil), session.Exercises...)
	return copied
}

func cloneMeal(session model.MealSession) model.MealSession {
	copied := session
	copied.Foods = append([]model.FoodEntry(nil), session.Foods...)
	return copied
}

var _ Store = (*Memory)(nil)
