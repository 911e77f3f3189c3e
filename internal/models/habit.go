package models

import (
	"fmt"
	"slices"
	"strings"
)

// Category is the closed set of habit categories
type Category string

const (
	CategoryHealth       Category = "Health"
	CategoryProductivity Category = "Productivity"
	CategoryMindfulness  Category = "Mindfulness"
	CategorySocial       Category = "Social"
)

// Categories lists every category in display order. The first entry is the default.
var Categories = []Category{CategoryHealth, CategoryProductivity, CategoryMindfulness, CategorySocial}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory matches s against the known categories, ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q (expected one of Health, Productivity, Mindfulness, Social)", s)
}

// Habit represents a tracked recurring activity
type Habit struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Emoji          string   `json:"emoji"`
	Color          string   `json:"color"`
	CompletedDates []string `json:"completedDates"` // YYYY-MM-DD format
	Streak         int      `json:"streak"`
	CreatedAt      string   `json:"createdAt,omitempty"`
}

// CompletedOn reports whether the habit was marked done on day (YYYY-MM-DD).
func (h Habit) CompletedOn(day string) bool {
	return slices.Contains(h.CompletedDates, day)
}

// Clone returns a copy of h that shares no memory with it.
func (h Habit) Clone() Habit {
	c := h
	c.CompletedDates = slices.Clone(h.CompletedDates)
	if c.CompletedDates == nil {
		c.CompletedDates = []string{}
	}
	return c
}

// NewHabitData is the user-supplied part of a habit at creation time
type NewHabitData struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Emoji    string   `json:"emoji"`
	Color    string   `json:"color"`
}

// HabitStats holds the metrics derived from the full habit list. It is never persisted.
type HabitStats struct {
	TodayProgress       float64 `json:"todayProgress"` // 0 - 1
	TotalCompletedToday int     `json:"totalCompletedToday"`
	TotalStreak         int     `json:"totalStreak"`
	LongestStreak       int     `json:"longestStreak"`
	ActiveDays          int     `json:"activeDays"`
	Completions         int     `json:"completions"`
	ActiveHabits        int     `json:"activeHabits"`
}
