package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/model"
)

const bulkWorkoutReply = `{"workouts":[
	{"name":"Push Day A","date":"2026-03-14","exercises":[
		{"name":"Bench Press","sets":4,"reps":8,"weight":185,"rpe":8}
	]},
	{"name":"Run","date":"2026-03-14","exercises":[
		{"name":"Run","sets":1,"reps":20,"weight":0}
	]}
]}`

func TestParseWorkoutsSplitsBulkTranscript(t *testing.T) {
	app := newTestApp(t)
	app.ai.Replies = []string{bulkWorkoutReply}
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "push day and then a 20 minute run"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONMap(t, rec)
	workouts, _ := body["workouts"].([]any)
	if len(workouts) != 2 {
		t.Fatalf("expected 2 workouts, got %d", len(workouts))
	}
	if app.ai.CallCount() != 1 {
		t.Fatalf("expected one AI call, got %d", app.ai.CallCount())
	}
	request := app.ai.Requests[0]
	if !request.JSONResponse {
		t.Fatalf("parse requests must use JSON response mode")
	}
	if request.Temperature != parseTemperature {
		t.Fatalf("expected temperature %v, got %v", parseTemperature, request.Temperature)
	}
}

func TestParseWorkoutsEmbedsSavedTemplates(t *testing.T) {
	app := newTestApp(t)
	app.ai.Replies = []string{bulkWorkoutReply}
	token := signToken(t, "user-1", nil)

	ctx := context.Background()
	err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
		ID:         "tpl-1",
		Timestamp:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Name:       "Push Day A",
		IsTemplate: true,
		Exercises:  []model.ExerciseEntry{{ID: "e0", Name: "Bench Press", Sets: 4, Reps: 8, Weight: 185, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}
	err = app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
		ID:         "tpl-2",
		Timestamp:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Name:       "Leg Day",
		IsTemplate: true,
		Exercises:  []model.ExerciseEntry{{ID: "e1", Name: "Squat", Sets: 5, Reps: 5, Weight: 225, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "push day"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	// Template resolution is model-driven, so the prompt carries every saved
	// template, not just the one the transcript appears to name.
	prompt := app.ai.Requests[0].User
	if !containsAll(prompt, "Push Day A", "Bench Press", "Leg Day", "Squat") {
		t.Fatalf("prompt must carry all saved templates:\n%s", prompt)
	}
}

func TestParseWorkoutsPromptKeepsLooselyReferencedTemplates(t *testing.T) {
	app := newTestApp(t)
	app.ai.Replies = []string{bulkWorkoutReply}
	token := signToken(t, "user-1", nil)

	ctx := context.Background()
	seed := func(id, name, exercise string) {
		err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
			ID:         id,
			Timestamp:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
			Name:       name,
			IsTemplate: true,
			Exercises:  []model.ExerciseEntry{{ID: id + "-e0", Name: exercise, Sets: 3, Reps: 10, Order: 0}},
		})
		if err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}
	seed("tpl-run", "Run Club", "Run")
	seed("tpl-legs", "Leg Day", "Squat")

	// "run" matches Run Club by name while "lower body session" describes
	// Leg Day without naming it. Both templates must still reach the model.
	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "went for a run, then my usual lower body session"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	prompt := app.ai.Requests[0].User
	if !containsAll(prompt, "Run Club", "Leg Day", "Squat") {
		t.Fatalf("prompt dropped a saved template:\n%s", prompt)
	}
}

func TestParseWorkoutsWithoutCredentialIsServiceUnavailable(t *testing.T) {
	app := newTestApp(t)
	app.ai.Err = ai.ErrNoCredential
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "push day"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if detail := responseDetail(t, rec); !containsAll(detail, "OPENAI_API_KEY") {
		t.Fatalf("detail should name the missing setting, got %q", detail)
	}
}

func TestParseWorkoutsRateLimitPropagates(t *testing.T) {
	app := newTestApp(t)
	app.ai.Err = ai.ErrRateLimited
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "push day"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestParseWorkoutsUnusableReplyIsBadGateway(t *testing.T) {
	app := newTestApp(t)
	app.ai.Replies = []string{`{"foo": 1}`}
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "push day"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestParseWorkoutsRequiresTranscript(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/parse", token,
		map[string]string{"transcript": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if app.ai.CallCount() != 0 {
		t.Fatalf("blank transcript must not reach the AI, got %d calls", app.ai.CallCount())
	}
}

func TestCreateWorkoutsReportsPerItemFailures(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)

	payload := map[string]any{"workouts": []model.WorkoutSession{
		{
			ID:        "w-ok",
			Timestamp: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
			Name:      "Push Day A",
			Exercises: []model.ExerciseEntry{{ID: "e0", Name: "Bench Press", Sets: 4, Reps: 8, Order: 0}},
		},
		{
			ID:        "w-bad",
			Timestamp: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
			Name:      "Broken",
			Exercises: []model.ExerciseEntry{},
		},
	}}

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts", token, payload)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONMap(t, rec)
	saved, _ := body["saved"].([]any)
	failures, _ := body["failures"].([]any)
	if len(saved) != 1 || len(failures) != 1 {
		t.Fatalf("expected 1 saved and 1 failure, got %d/%d", len(saved), len(failures))
	}
	if _, err := app.store.GetWorkout(context.Background(), "user-1", "w-ok"); err != nil {
		t.Fatalf("valid workout should be persisted: %v", err)
	}
}

func TestListWorkoutsFiltersByRangeAndExcludesTemplates(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)
	ctx := context.Background()

	seed := func(id string, day int, isTemplate bool) {
		err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
			ID:         id,
			Timestamp:  time.Date(2026, 3, day, 8, 0, 0, 0, time.UTC),
			Name:       "Session " + id,
			IsTemplate: isTemplate,
			Exercises:  []model.ExerciseEntry{{ID: id + "-e0", Name: "Squat", Sets: 3, Reps: 5, Order: 0}},
		})
		if err != nil {
			t.Fatalf("seed workout: %v", err)
		}
	}
	seed("w1", 1, false)
	seed("w2", 10, false)
	seed("tpl", 10, true)

	rec := performRequest(t, app.router, http.MethodGet, "/api/v1/workouts?start=2026-03-05&end=2026-03-12", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSONMap(t, rec)
	workouts, _ := body["workouts"].([]any)
	if len(workouts) != 1 {
		t.Fatalf("expected only w2 in range, got %d", len(workouts))
	}
	first, _ := workouts[0].(map[string]any)
	if first["id"] != "w2" {
		t.Fatalf("expected w2, got %v", first["id"])
	}
}

func TestListWorkoutsRangeBoundsUseLocalTimezone(t *testing.T) {
	cfg := baseTestConfig
	cfg.LocalTimezone = "America/Los_Angeles"
	app := newTestAppWithConfig(t, cfg)
	token := signToken(t, "user-1", nil)

	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// An evening session is past midnight UTC; the date bounds must still
	// cover it because they are interpreted in the configured zone.
	err = app.store.CreateWorkout(context.Background(), "user-1", model.WorkoutSession{
		ID:        "w-evening",
		Timestamp: time.Date(2026, 3, 10, 20, 0, 0, 0, loc),
		Name:      "Evening Session",
		Exercises: []model.ExerciseEntry{{ID: "e0", Name: "Squat", Sets: 3, Reps: 5, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	rec := performRequest(t, app.router, http.MethodGet, "/api/v1/workouts?start=2026-03-10&end=2026-03-10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSONMap(t, rec)
	workouts, _ := body["workouts"].([]any)
	if len(workouts) != 1 {
		t.Fatalf("expected the evening session inside the local-day range, got %d", len(workouts))
	}
}

func TestDeleteWorkoutScopedToUser(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
		ID:        "w1",
		Timestamp: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		Exercises: []model.ExerciseEntry{{ID: "e0", Name: "Squat", Sets: 3, Reps: 5, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	otherToken := signToken(t, "user-2", nil)
	rec := performRequest(t, app.router, http.MethodDelete, "/api/v1/workouts/w1", otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's workout, got %d", rec.Code)
	}

	ownerToken := signToken(t, "user-1", nil)
	rec = performRequest(t, app.router, http.MethodDelete, "/api/v1/workouts/w1", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = performRequest(t, app.router, http.MethodDelete, "/api/v1/workouts/w1", ownerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", rec.Code)
	}
}

func TestWorkoutTemplateLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)
	ctx := context.Background()

	err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
		ID:        "w1",
		Timestamp: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Name:      "Heavy Push",
		Exercises: []model.ExerciseEntry{{ID: "e0", Name: "Bench Press", Sets: 4, Reps: 8, Weight: 185, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/w1/template", token,
		map[string]string{"name": "Push Day A"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONMap(t, rec)
	template, _ := body["template"].(map[string]any)
	templateID, _ := template["id"].(string)
	if templateID == "" || templateID == "w1" {
		t.Fatalf("template must get a fresh id, got %q", templateID)
	}
	if template["isTemplate"] != true {
		t.Fatalf("expected isTemplate true, got %v", template["isTemplate"])
	}

	rec = performRequest(t, app.router, http.MethodGet, "/api/v1/workouts/templates", token, nil)
	body = decodeJSONMap(t, rec)
	templates, _ := body["templates"].([]any)
	if len(templates) != 1 {
		t.Fatalf("expected one template, got %d", len(templates))
	}

	rec = performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/templates/"+templateID+"/instantiate", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body = decodeJSONMap(t, rec)
	workout, _ := body["workout"].(map[string]any)
	if workout["isTemplate"] != false {
		t.Fatalf("instantiated session must not be a template")
	}
	if workout["id"] == templateID {
		t.Fatalf("instantiated session must get a fresh id")
	}

	// Instantiating a plain session is rejected.
	rec = performRequest(t, app.router, http.MethodPost, "/api/v1/workouts/templates/w1/instantiate", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-template, got %d", rec.Code)
	}
}

func TestUpdateWorkoutTemplateValidatesPayload(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)
	ctx := context.Background()

	err := app.store.CreateWorkout(ctx, "user-1", model.WorkoutSession{
		ID:         "tpl-1",
		Timestamp:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Name:       "Push Day A",
		IsTemplate: true,
		Exercises:  []model.ExerciseEntry{{ID: "e0", Name: "Bench Press", Sets: 4, Reps: 8, Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}

	update := model.WorkoutSession{
		Name: "Push Day A",
		Exercises: []model.ExerciseEntry{
			{ID: "e0", Name: "Bench Press", Sets: 5, Reps: 5, Weight: 195, Order: 0},
			{ID: "e1", Name: "Dips", Sets: 3, Reps: 12, Order: 1},
		},
	}
	rec := performRequest(t, app.router, http.MethodPut, "/api/v1/workouts/templates/tpl-1", token, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := app.store.GetWorkout(ctx, "user-1", "tpl-1")
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if len(stored.Exercises) != 2 || stored.Exercises[0].Sets != 5 {
		t.Fatalf("template not updated: %+v", stored.Exercises)
	}
	if !stored.IsTemplate {
		t.Fatalf("update must not clear the template flag")
	}

	update.Exercises[0].Sets = 0
	rec = performRequest(t, app.router, http.MethodPut, "/api/v1/workouts/templates/tpl-1", token, update)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid exercises, got %d", rec.Code)
	}

	// A template without a name can never be referenced again.
	update.Exercises[0].Sets = 5
	update.Name = ""
	rec = performRequest(t, app.router, http.MethodPut, "/api/v1/workouts/templates/tpl-1", token, update)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unnamed template, got %d", rec.Code)
	}
}
