package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

const mealParseReply = `{"meals":[
	{"name":"Breakfast","mealType":"breakfast","date":"2026-03-14","foods":[
		{"name":"Greek Yogurt","portion":"1 cup","calories":150,"protein":20},
		{"name":"Black Coffee"}
	]},
	{"name":"Lunch","mealType":"lunch","date":"2026-03-14","foods":[
		{"name":"Chicken Burrito","calories":650,"protein":40,"carbs":70,"fat":22}
	]}
]}`

func TestParseMealsSplitsMultipleMeals(t *testing.T) {
	app := newTestApp(t)
	app.ai.Replies = []string{mealParseReply}
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/meals/parse", token,
		map[string]string{"transcript": "breakfast was yogurt and coffee, lunch was a burrito"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONMap(t, rec)
	meals, _ := body["meals"].([]any)
	if len(meals) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(meals))
	}
	first, _ := meals[0].(map[string]any)
	if first["mealType"] != "breakfast" {
		t.Fatalf("expected breakfast, got %v", first["mealType"])
	}
	foods, _ := first["foods"].([]any)
	coffee, _ := foods[1].(map[string]any)
	if _, present := coffee["calories"]; present {
		t.Fatalf("unstated macros must be omitted, got %v", coffee)
	}
}

func TestCreateAndListMealsIncludesTotals(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)

	calories := 650.0
	protein := 40.0
	payload := map[string]any{"meals": []model.MealSession{{
		ID:        "m1",
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Name:      "Lunch",
		MealType:  "lunch",
		Foods: []model.FoodEntry{
			{ID: "f0", Name: "Chicken Burrito", Calories: &calories, Protein: &protein, Order: 0},
			{ID: "f1", Name: "Side Salad", Order: 1},
		},
	}}}

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/meals", token, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(t, app.router, http.MethodGet, "/api/v1/meals", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSONMap(t, rec)
	meals, _ := body["meals"].([]any)
	if len(meals) != 1 {
		t.Fatalf("expected one meal, got %d", len(meals))
	}
	item, _ := meals[0].(map[string]any)
	totals, _ := item["totals"].(map[string]any)
	if totals["calories"] != 650.0 || totals["protein"] != 40.0 {
		t.Fatalf("unexpected totals %v", totals)
	}
}

func TestMealTemplateLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)
	ctx := context.Background()

	err := app.store.CreateMeal(ctx, "user-1", model.MealSession{
		ID:        "m1",
		Timestamp: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Name:      "Usual Breakfast",
		MealType:  "breakfast",
		Foods:     []model.FoodEntry{{ID: "f0", Name: "Greek Yogurt", Order: 0}},
	})
	if err != nil {
		t.Fatalf("seed meal: %v", err)
	}

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/meals/m1/template", token,
		map[string]string{"name": "Usual Breakfast"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSONMap(t, rec)
	template, _ := body["template"].(map[string]any)
	templateID, _ := template["id"].(string)

	rec = performRequest(t, app.router, http.MethodPost, "/api/v1/meals/templates/"+templateID+"/instantiate", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body = decodeJSONMap(t, rec)
	meal, _ := body["meal"].(map[string]any)
	if meal["isTemplate"] != false || meal["id"] == templateID {
		t.Fatalf("instantiation must produce a fresh editable session, got %v", meal)
	}
	if meal["mealType"] != "breakfast" {
		t.Fatalf("meal type must carry over, got %v", meal["mealType"])
	}
}

func TestCreateMealsRejectsEmptyBatch(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, "user-1", nil)

	rec := performRequest(t, app.router, http.MethodPost, "/api/v1/meals", token,
		map[string]any{"meals": []model.MealSession{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
