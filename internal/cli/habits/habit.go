package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/models"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with today's status."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark a habit done today, or undo it."`
	Remove HabitRemoveCmd `cmd:"" aliases:"rm,delete" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Category string `help:"Category: Health, Productivity, Mindfulness or Social." default:"Health"`
	Emoji    string `help:"Emoji shown next to the habit."`
	Color    string `help:"Hex color, e.g. #7B61FF."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	category, err := models.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	ctx.LoadHabits()
	habit, err := ctx.Habits.AddHabit(ctx.Context(), models.NewHabitData{
		Name:     c.Name,
		Category: category,
		Emoji:    c.Emoji,
		Color:    c.Color,
	})
	if errors.Is(err, habits.ErrNotPersisted) {
		return fmt.Errorf("could not save habit %q, check the log for details", c.Name)
	}
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s %s (%s)\n", habit.Emoji, habit.Name, habit.ID)
	return nil
}

type HabitListCmd struct {
	Done bool `help:"Only show habits done today."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	ctx.LoadHabits()
	snap := ctx.Habits.Snapshot()

	if len(snap.Habits) == 0 {
		ctx.Println("No habits yet. Add one with 'habitflow habit add NAME'.")
		return nil
	}

	shown := 0
	for _, h := range snap.Habits {
		done := h.CompletedOn(snap.Today)
		if c.Done && !done {
			continue
		}
		mark := "[ ]"
		if done {
			mark = "[x]"
		}
		ctx.Printf("%s %s %-24s %-13s streak %-8s %s\n", mark, h.Emoji, h.Name, h.Category, cli.FormatStreak(h.Streak), h.ID)
		shown++
	}
	if shown == 0 {
		ctx.Println("Nothing done yet today.")
	}

	ctx.Printf("\n%d/%d done today (%.0f%%)\n", snap.Stats.TotalCompletedToday, snap.Stats.ActiveHabits, snap.Stats.TodayProgress*100)
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if err := ctx.Habits.ToggleHabitToday(ctx.Context(), habit.ID); err != nil {
		if errors.Is(err, habits.ErrRolledBack) {
			return fmt.Errorf("could not save %q, nothing was changed", habit.Name)
		}
		return err
	}

	updated, _ := ctx.Habits.Find(habit.ID)
	if ctx.Habits.IsHabitCompletedToday(updated) {
		ctx.Printf("✓ %s done for %s (streak %s)\n", updated.Name, ctx.Habits.Today(), cli.FormatStreak(updated.Streak))
	} else {
		ctx.Printf("○ %s unmarked for %s (streak %s)\n", updated.Name, ctx.Habits.Today(), cli.FormatStreak(updated.Streak))
	}
	return nil
}

type HabitRemoveCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitRemoveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed, err := cli.Confirm(fmt.Sprintf("Delete %q and its history?", habit.Name))
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := ctx.Habits.RemoveHabit(ctx.Context(), habit.ID); err != nil {
		if errors.Is(err, habits.ErrRolledBack) {
			return fmt.Errorf("could not delete %q, it was kept", habit.Name)
		}
		return err
	}

	ctx.Printf("Deleted habit: %s\n", strings.TrimSpace(habit.Emoji+" "+habit.Name))
	return nil
}
