package repository

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/models"
)

// ParseHabit converts a stored document into a Habit. It never fails:
// missing or malformed fields fall back to safe defaults.
func ParseHabit(doc docstore.Document) models.Habit {
	f := doc.Fields

	h := models.Habit{
		ID:             doc.ID,
		Name:           constants.UnnamedHabit,
		Category:       models.Categories[0],
		Emoji:          constants.DefaultEmoji(),
		Color:          constants.DefaultColor(),
		CompletedDates: parseDates(f[constants.FieldCompletedDates]),
		Streak:         parseStreak(f[constants.FieldStreak]),
	}

	if name := stringField(f, constants.FieldName); name != "" {
		h.Name = name
	}
	if c, err := models.ParseCategory(stringField(f, constants.FieldCategory)); err == nil {
		h.Category = c
	}
	if emoji := stringField(f, constants.FieldEmoji); emoji != "" {
		h.Emoji = emoji
	}
	if color := stringField(f, constants.FieldColor); color != "" {
		h.Color = color
	}
	if createdAt, ok := f[constants.FieldCreatedAt].(string); ok {
		h.CreatedAt = createdAt
	}

	return h
}

// habitFields is the wire payload for h. The id is kept out of it.
func habitFields(h models.Habit) docstore.Fields {
	dates := h.CompletedDates
	if dates == nil {
		dates = []string{}
	}
	fields := docstore.Fields{
		constants.FieldName:           h.Name,
		constants.FieldCategory:       string(h.Category),
		constants.FieldEmoji:          h.Emoji,
		constants.FieldColor:          h.Color,
		constants.FieldCompletedDates: dates,
		constants.FieldStreak:         h.Streak,
	}
	if h.CreatedAt != "" {
		fields[constants.FieldCreatedAt] = h.CreatedAt
	}
	return fields
}

func stringField(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return strings.TrimSpace(s)
}

// parseDates keeps non-empty strings from a list value, dropping repeats.
func parseDates(v any) []string {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		items = make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
	default:
		return []string{}
	}

	dates := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		dates = append(dates, s)
	}
	return dates
}

// parseStreak coerces v to a non-negative whole number.
func parseStreak(v any) int {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		n = f
	case bool:
		if x {
			n = 1
		}
	default:
		return 0
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
