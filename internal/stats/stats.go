// Package stats derives aggregate metrics from a list of habits.
package stats

import "github.com/julianstephens/habitflow/internal/models"

// Compute derives HabitStats from habits as of today (YYYY-MM-DD).
// It is pure: the same input always yields the same output.
func Compute(habits []models.Habit, today string) models.HabitStats {
	var (
		completions      int
		todayCompletions int
		totalStreak      int
		longestStreak    int
	)
	uniqueDates := make(map[string]struct{})

	for _, habit := range habits {
		doneToday := false
		for _, day := range habit.CompletedDates {
			uniqueDates[day] = struct{}{}
			if day == today {
				doneToday = true
			}
		}
		completions += len(habit.CompletedDates)
		if doneToday {
			todayCompletions++
		}

		totalStreak += habit.Streak
		if habit.Streak > longestStreak {
			longestStreak = habit.Streak
		}
	}

	activeHabits := len(habits)
	progress := 0.0
	if activeHabits > 0 {
		progress = float64(todayCompletions) / float64(activeHabits)
	}

	return models.HabitStats{
		TodayProgress:       progress,
		TotalCompletedToday: todayCompletions,
		TotalStreak:         totalStreak,
		LongestStreak:       longestStreak,
		ActiveDays:          len(uniqueDates),
		Completions:         completions,
		ActiveHabits:        activeHabits,
	}
}
