package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// Postgres persists sessions in three tables. Exercise and food entries live
// as JSONB documents on their session row; sessions are the unit of read and
// write, so there is no gain in normalizing entries out.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema creates the tables and indexes when they do not exist yet.
func (s *Postgres) Schema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS "Workout" (
			"id" TEXT PRIMARY KEY,
			"userId" TEXT NOT NULL,
			"timestamp" TIMESTAMPTZ NOT NULL,
			"name" TEXT NOT NULL DEFAULT '',
			"isTemplate" BOOLEAN NOT NULL DEFAULT FALSE,
			"exercisesJson" JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS "Workout_userId_timestamp_idx" ON "Workout" ("userId", "timestamp")`,
		`CREATE TABLE IF NOT EXISTS "Meal" (
			"id" TEXT PRIMARY KEY,
			"userId" TEXT NOT NULL,
			"timestamp" TIMESTAMPTZ NOT NULL,
			"name" TEXT NOT NULL DEFAULT '',
			"isTemplate" BOOLEAN NOT NULL DEFAULT FALSE,
			"mealType" TEXT NOT NULL DEFAULT '',
			"foodsJson" JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS "Meal_userId_timestamp_idx" ON "Meal" ("userId", "timestamp")`,
		`CREATE TABLE IF NOT EXISTS "ChatMessage" (
			"id" TEXT PRIMARY KEY,
			"userId" TEXT NOT NULL,
			"content" TEXT NOT NULL,
			"fromUser" BOOLEAN NOT NULL,
			"timestamp" TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS "ChatMessage_userId_timestamp_idx" ON "ChatMessage" ("userId", "timestamp")`,
	}
	for _, statement := range statements {
		if _, err := s.pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *Postgres) CreateWorkout(ctx context.Context, userID string, session model.WorkoutSession) error {
	exercisesJSON, err := json.Marshal(session.Exercises)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO "Workout" ("id", "userId", "timestamp", "name", "isTemplate", "exercisesJson")
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, userID, session.Timestamp, session.Name, session.IsTemplate, exercisesJSON,
	)
	return err
}

func (s *Postgres) GetWorkout(ctx context.Context, userID, id string) (model.WorkoutSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT "id", "timestamp", "name", "isTemplate", "exercisesJson"
		 FROM "Workout" WHERE "id" = $1 AND "userId" = $2`,
		id, userID,
	)
	return scanWorkout(row)
}

func (s *Postgres) UpdateWorkout(ctx context.Context, userID string, session model.WorkoutSession) error {
	exercisesJSON, err := json.Marshal(session.Exercises)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE "Workout"
		 SET "timestamp" = $3, "name" = $4, "isTemplate" = $5, "exercisesJson" = $6
		 WHERE "id" = $1 AND "userId" = $2`,
		session.ID, userID, session.Timestamp, session.Name, session.IsTemplate, exercisesJSON,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteWorkout(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM "Workout" WHERE "id" = $1 AND "userId" = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListWorkouts(ctx context.Context, userID string, filter ListFilter) ([]model.WorkoutSession, error) {
	query, args := listQuery(`SELECT "id", "timestamp", "name", "isTemplate", "exercisesJson" FROM "Workout"`, userID, filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.WorkoutSession, 0)
	for rows.Next() {
		session, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Postgres) LatestWorkout(ctx context.Context, userID string) (model.WorkoutSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT "id", "timestamp", "name", "isTemplate", "exercisesJson"
		 FROM "Workout" WHERE "userId" = $1 AND "isTemplate" = FALSE
		 ORDER BY "timestamp" DESC LIMIT 1`,
		userID,
	)
	return scanWorkout(row)
}

func (s *Postgres) CreateMeal(ctx context.Context, userID string, session model.MealSession) error {
	foodsJSON, err := json.Marshal(session.Foods)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO "Meal" ("id", "userId", "timestamp", "name", "isTemplate", "mealType", "foodsJson")
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, userID, session.Timestamp, session.Name, session.IsTemplate, session.MealType, foodsJSON,
	)
	return err
}

func (s *Postgres) GetMeal(ctx context.Context, userID, id string) (model.MealSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT "id", "timestamp", "name", "isTemplate", "mealType", "foodsJson"
		 FROM "Meal" WHERE "id" = $1 AND "userId" = $2`,
		id, userID,
	)
	return scanMeal(row)
}

func (s *Postgres) UpdateMeal(ctx context.Context, userID string, session model.MealSession) error {
	foodsJSON, err := json.Marshal(session.Foods)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE "Meal"
		 SET "timestamp" = $3, "name" = $4, "isTemplate" = $5, "mealType" = $6, "foodsJson" = $7
		 WHERE "id" = $1 AND "userId" = $2`,
		session.ID, userID, session.Timestamp, session.Name, session.IsTemplate, session.MealType, foodsJSON,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteMeal(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM "Meal" WHERE "id" = $1 AND "userId" = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListMeals(ctx context.Context, userID string, filter ListFilter) ([]model.MealSession, error) {
	query, args := listQuery(`SELECT "id", "timestamp", "name", "isTemplate", "mealType", "foodsJson" FROM "Meal"`, userID, filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.MealSession, 0)
	for rows.Next() {
		session, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Postgres) LatestMeal(ctx context.Context, userID string) (model.MealSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT "id", "timestamp", "name", "isTemplate", "mealType", "foodsJson"
		 FROM "Meal" WHERE "userId" = $1 AND "isTemplate" = FALSE
		 ORDER BY "timestamp" DESC LIMIT 1`,
		userID,
	)
	return scanMeal(row)
}

func (s *Postgres) AppendChatMessage(ctx context.Context, userID string, turn model.ConversationTurn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO "ChatMessage" ("id", "userId", "content", "fromUser", "timestamp")
		 VALUES ($1, $2, $3, $4, $5)`,
		turn.ID, userID, turn.Content, turn.FromUser, turn.Timestamp,
	)
	return err
}

// ListChatMessages returns the newest `limit` turns in chronological order.
// Equal timestamps order the user turn before the assistant turn so an
// exchange never renders reversed after timestamp truncation.
func (s *Postgres) ListChatMessages(ctx context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT "id", "content", "fromUser", "timestamp" FROM (
			SELECT "id", "content", "fromUser", "timestamp"
			FROM "ChatMessage" WHERE "userId" = $1
			ORDER BY "timestamp" DESC, "fromUser" ASC LIMIT $2
		 ) recent ORDER BY "timestamp" ASC, "fromUser" DESC`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]model.ConversationTurn, 0, limit)
	for rows.Next() {
		var turn model.ConversationTurn
		if err := rows.Scan(&turn.ID, &turn.Content, &turn.FromUser, &turn.Timestamp); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *Postgres) ClearChatMessages(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM "ChatMessage" WHERE "userId" = $1`, userID)
	return err
}

func listQuery(base, userID string, filter ListFilter) (string, []any) {
	query := base + ` WHERE "userId" = $1`
	args := []any{userID}
	switch {
	case filter.TemplatesOnly:
		query += ` AND "isTemplate" = TRUE`
	case !filter.IncludeTemplates:
		query += ` AND "isTemplate" = FALSE`
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		query += fmt.Sprintf(` AND "timestamp" >= $%d`, len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		query += fmt.Sprintf(` AND "timestamp" <= $%d`, len(args))
	}
	query += ` ORDER BY "timestamp" DESC`
	return query, args
}

func scanWorkout(row pgx.Row) (model.WorkoutSession, error) {
	var session model.WorkoutSession
	var exercisesJSON []byte
	err := row.Scan(&session.ID, &session.Timestamp, &session.Name, &session.IsTemplate, &exercisesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WorkoutSession{}, ErrNotFound
	}
	if err != nil {
		return model.WorkoutSession{}, err
	}
	if err := json.Unmarshal(exercisesJSON, &session.Exercises); err != nil {
		return model.WorkoutSession{}, err
	}
	return session, nil
}

func scanMeal(row pgx.Row) (model.MealSession, error) {
	var session model.MealSession
	var foodsJSON []byte
	err := row.Scan(&session.ID, &session.Timestamp, &session.Name, &session.IsTemplate, &session.MealType, &foodsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MealSession{}, ErrNotFound
	}
	if err != nil {
		return model.MealSession{}, err
	}
	if err := json.Unmarshal(foodsJSON, &session.Foods); err != nil {
		return model.MealSession{}, err
	}
	return session, nil
}

var _ Store = (*Postgres)(nil)
