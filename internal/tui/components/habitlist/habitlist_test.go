package habitlist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitflow/internal/models"
)

func sample() []models.Habit {
	return []models.Habit{
		{ID: "a", Name: "Gym", Category: models.CategoryHealth, Emoji: "💪", Color: "#FF0000", CompletedDates: []string{"2024-03-05"}, Streak: 2},
		{ID: "b", Name: "Read", Category: models.CategoryProductivity, Emoji: "📚", Color: "#007AFF"},
	}
}

func TestSetHabitsMarksToday(t *testing.T) {
	m := New(80, 20)
	m.SetHabits(sample(), "2024-03-05")

	items := m.list.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].(Item).Done || items[1].(Item).Done {
		t.Errorf("done flags = %v, %v", items[0].(Item).Done, items[1].(Item).Done)
	}
}

func TestSetHabitsKeepsSelection(t *testing.T) {
	m := New(80, 20)
	m.SetHabits(sample(), "2024-03-05")
	m.list.Select(1)

	// a new habit is prepended
	habits := append([]models.Habit{{ID: "c", Name: "Walk"}}, sample()...)
	m.SetHabits(habits, "2024-03-05")

	if got := m.SelectedID(); got != "b" {
		t.Errorf("SelectedID() = %q, want b", got)
	}
}

func TestKeysEmitMessages(t *testing.T) {
	m := New(80, 20)
	m.SetHabits(sample(), "2024-03-05")

	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, AddHabitMsg{}},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, ToggleHabitMsg{ID: "a"}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}, DeleteHabitMsg{ID: "a", Name: "Gym"}},
	}

	for _, tt := range tests {
		_, cmd := m.Update(tt.key)
		if cmd == nil {
			t.Fatalf("%q produced no command", tt.key.String())
		}
		if got := cmd(); got != tt.want {
			t.Errorf("%q produced %#v, want %#v", tt.key.String(), got, tt.want)
		}
	}
}

func TestEmptyView(t *testing.T) {
	m := New(80, 20)
	if got := m.View(); got == "" {
		t.Error("empty list should render a hint")
	}
}
