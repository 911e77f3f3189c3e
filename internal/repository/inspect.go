package repository

import (
	"context"
	"math"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/models"
)

// RawHabit decodes doc as stored, without the defaults and clean-up of
// ParseHabit, so integrity checks can see what is really there.
func RawHabit(doc docstore.Document) models.Habit {
	f := doc.Fields
	h := models.Habit{
		ID:             doc.ID,
		Name:           stringField(f, constants.FieldName),
		Category:       models.Category(stringField(f, constants.FieldCategory)),
		Emoji:          stringField(f, constants.FieldEmoji),
		Color:          stringField(f, constants.FieldColor),
		CompletedDates: rawDates(f[constants.FieldCompletedDates]),
		Streak:         rawStreak(f[constants.FieldStreak]),
	}
	if createdAt, ok := f[constants.FieldCreatedAt].(string); ok {
		h.CreatedAt = createdAt
	}
	return h
}

func rawDates(v any) []string {
	dates := []string{}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				dates = append(dates, s)
			}
		}
	case []string:
		dates = append(dates, list...)
	}
	return dates
}

// rawStreak is parseStreak without the clamp at zero.
func rawStreak(v any) int {
	switch x := v.(type) {
	case float64:
		if x < 0 && !math.IsInf(x, 0) {
			return int(math.Max(x, math.MinInt32))
		}
	case int:
		if x < 0 {
			return x
		}
	case int64:
		if x < 0 {
			return int(x)
		}
	}
	return parseStreak(v)
}

// Inspect lists every stored habit as RawHabit values. Unlike FetchAll it
// returns storage errors.
func (r *HabitRepository) Inspect(ctx context.Context) ([]models.Habit, error) {
	docs, err := r.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	habits := make([]models.Habit, 0, len(docs))
	for _, doc := range docs {
		habits = append(habits, RawHabit(doc))
	}
	return habits, nil
}
