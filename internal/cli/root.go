package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/backup"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/notifier"
	"github.com/julianstephens/habitflow/internal/repository"
	"github.com/julianstephens/habitflow/internal/session"
)

// ErrHabitNotFound is returned when a habit reference matches nothing
var ErrHabitNotFound = errors.New("habit not found")

type Context struct {
	Docs     docstore.Provider
	Habits   *habits.Store
	Repo     *repository.HabitRepository
	Session  *session.Store
	Notifier *notifier.Notifier
	Location *time.Location
	Ctx      context.Context
	Debug    bool
	Out      io.Writer
}

// Context returns the command's context.Context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes formatted command output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

// Println writes a line of command output.
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// LoadHabits fetches habits into the store. Only the first call hits storage.
func (c *Context) LoadHabits() {
	c.Habits.Load(c.Context())
}

// PerformAutomaticBackup backs up a SQLite database and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if docstore.Backend(c.Docs) != "sqlite" {
		return
	}
	mgr := backup.NewManager(c.Docs.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveHabit finds a habit by id, then by case-insensitive name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	c.LoadHabits()

	ref = strings.TrimSpace(ref)
	if h, ok := c.Habits.Find(ref); ok {
		return h, nil
	}

	var matches []models.Habit
	for _, h := range c.Habits.Habits() {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %q", ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, h := range matches {
			ids[i] = h.ID
		}
		return models.Habit{}, fmt.Errorf("%d habits are named %q, use an id: %s", len(matches), ref, strings.Join(ids, ", "))
	}
}

// FormatStreak renders a streak count for display.
func FormatStreak(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
