package repository

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/models"
)

func TestParseHabitComplete(t *testing.T) {
	doc := docstore.Document{
		ID: "h1",
		Fields: docstore.Fields{
			"name":           "Gym",
			"category":       "Health",
			"emoji":          "💪",
			"color":          "#FF0000",
			"completedDates": []any{"2024-03-04", "2024-03-05"},
			"streak":         float64(2),
			"createdAt":      "2024-03-01T08:00:00Z",
		},
	}

	want := models.Habit{
		ID:             "h1",
		Name:           "Gym",
		Category:       models.CategoryHealth,
		Emoji:          "💪",
		Color:          "#FF0000",
		CompletedDates: []string{"2024-03-04", "2024-03-05"},
		Streak:         2,
		CreatedAt:      "2024-03-01T08:00:00Z",
	}

	if got := ParseHabit(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseHabit() = %+v, want %+v", got, want)
	}
}

func TestParseHabitDefaults(t *testing.T) {
	got := ParseHabit(docstore.Document{ID: "h1"})

	if got.ID != "h1" {
		t.Errorf("ID = %q, want h1", got.ID)
	}
	if got.Name != constants.UnnamedHabit {
		t.Errorf("Name = %q, want %q", got.Name, constants.UnnamedHabit)
	}
	if got.Category != models.CategoryHealth {
		t.Errorf("Category = %q, want Health", got.Category)
	}
	if got.Emoji != constants.DefaultEmoji() || got.Color != constants.DefaultColor() {
		t.Errorf("Emoji/Color = %q/%q, want palette defaults", got.Emoji, got.Color)
	}
	if got.CompletedDates == nil || len(got.CompletedDates) != 0 {
		t.Errorf("CompletedDates = %#v, want empty non-nil slice", got.CompletedDates)
	}
	if got.Streak != 0 {
		t.Errorf("Streak = %d, want 0", got.Streak)
	}
}

func TestParseHabitMalformedFields(t *testing.T) {
	doc := docstore.Document{
		ID: "h1",
		Fields: docstore.Fields{
			"name":           "   ",
			"category":       "mindfulness",
			"emoji":          42,
			"color":          []any{"#fff"},
			"completedDates": []any{"2024-03-05", 7, "", nil, "2024-03-05", "2024-03-06"},
			"streak":         "3",
			"createdAt":      12345,
		},
	}

	got := ParseHabit(doc)
	if got.Name != constants.UnnamedHabit {
		t.Errorf("blank name should become %q, got %q", constants.UnnamedHabit, got.Name)
	}
	if got.Category != models.CategoryMindfulness {
		t.Errorf("Category = %q, want Mindfulness", got.Category)
	}
	if got.Emoji != constants.DefaultEmoji() {
		t.Errorf("non-string emoji should default, got %q", got.Emoji)
	}
	if got.Color != constants.DefaultColor() {
		t.Errorf("non-string color should default, got %q", got.Color)
	}
	if want := []string{"2024-03-05", "2024-03-06"}; !reflect.DeepEqual(got.CompletedDates, want) {
		t.Errorf("CompletedDates = %v, want %v", got.CompletedDates, want)
	}
	if got.Streak != 3 {
		t.Errorf("Streak = %d, want 3", got.Streak)
	}
	if got.CreatedAt != "" {
		t.Errorf("non-string createdAt should be dropped, got %q", got.CreatedAt)
	}
}

func TestParseHabitNonListDates(t *testing.T) {
	for _, v := range []any{"2024-03-05", map[string]any{"0": "2024-03-05"}, 3.0, nil} {
		got := ParseHabit(docstore.Document{ID: "h", Fields: docstore.Fields{"completedDates": v}})
		if len(got.CompletedDates) != 0 {
			t.Errorf("completedDates %#v should normalize to empty, got %v", v, got.CompletedDates)
		}
	}
}

func TestParseHabitUnknownCategory(t *testing.T) {
	got := ParseHabit(docstore.Document{ID: "h", Fields: docstore.Fields{"category": "Fitness"}})
	if got.Category != models.CategoryHealth {
		t.Errorf("Category = %q, want Health", got.Category)
	}
}

func TestParseStreak(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"float", float64(4), 4},
		{"fractional", 2.7, 2},
		{"int", 5, 5},
		{"int64", int64(6), 6},
		{"json number", json.Number("8"), 8},
		{"numeric string", " 9 ", 9},
		{"bad string", "many", 0},
		{"empty string", "", 0},
		{"true", true, 1},
		{"false", false, 0},
		{"negative", float64(-3), 0},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 0},
		{"nil", nil, 0},
		{"list", []any{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseStreak(tt.in); got != tt.want {
				t.Errorf("parseStreak(%#v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestHabitFieldsOmitsID(t *testing.T) {
	fields := habitFields(models.Habit{ID: "h1", Name: "Gym", Category: models.CategoryHealth})

	if _, ok := fields["id"]; ok {
		t.Error("payload must not contain the id")
	}
	if dates, ok := fields[constants.FieldCompletedDates].([]string); !ok || dates == nil {
		t.Errorf("completedDates = %#v, want empty list", fields[constants.FieldCompletedDates])
	}
	if _, ok := fields[constants.FieldCreatedAt]; ok {
		t.Error("empty createdAt should be omitted")
	}
}
