package progress

import (
	"github.com/julianstephens/habitflow/internal/cli"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	ctx.LoadHabits()
	snap := ctx.Habits.Snapshot()
	s := snap.Stats

	ctx.Printf("Stats for %s\n\n", snap.Today)
	ctx.Printf("  Today's progress:   %3.0f%% (%d/%d)\n", s.TodayProgress*100, s.TotalCompletedToday, s.ActiveHabits)
	ctx.Printf("  Active habits:      %d\n", s.ActiveHabits)
	ctx.Printf("  Total streak:       %d\n", s.TotalStreak)
	ctx.Printf("  Longest streak:     %d\n", s.LongestStreak)
	ctx.Printf("  Active days:        %d\n", s.ActiveDays)
	ctx.Printf("  Completions:        %d\n", s.Completions)
	return nil
}
