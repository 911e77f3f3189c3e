package progress

import (
	"fmt"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/utils"
)

type HistoryCmd struct {
	Date string `help:"Day to show (YYYY-MM-DD). The day before is shown too. Defaults to today."`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	day := c.Date
	if day == "" {
		day = ctx.Habits.Today()
	}
	if !utils.ValidateDateFormat(day) {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}
	prev, err := utils.PreviousDay(day)
	if err != nil {
		return err
	}

	ctx.LoadHabits()

	today := ctx.Habits.Today()
	for _, d := range []string{day, prev} {
		ctx.Printf("%s\n", dayLabel(d, today))
		done := ctx.Habits.CompletionsForDate(d)
		if len(done) == 0 {
			ctx.Println("  No habits completed.")
		}
		for _, h := range done {
			ctx.Printf("  ✓ %s %s\n", h.Emoji, h.Name)
		}
		ctx.Println()
	}

	s := ctx.Habits.Stats()
	ctx.Printf("Completions: %d   Active habits: %d\n", s.Completions, s.ActiveHabits)
	return nil
}

func dayLabel(day, today string) string {
	if day == today {
		return fmt.Sprintf("Today (%s)", day)
	}
	if yesterday, err := utils.PreviousDay(today); err == nil && day == yesterday {
		return fmt.Sprintf("Yesterday (%s)", day)
	}
	return day
}
