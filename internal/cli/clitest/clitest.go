// Package clitest builds command contexts over temporary storage for tests.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/repository"
	"github.com/julianstephens/habitflow/internal/session"
)

// Today is the day every test context treats as the current one.
const Today = "2024-03-05"

var now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// Env is a command context plus the buffer its output goes to.
type Env struct {
	Ctx *cli.Context
	Out *bytes.Buffer
	Dir string
}

// Output returns everything written so far and resets the buffer.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}

// New returns a context over an initialized SQLite database in a temp dir.
func New(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()
	docs := docstore.NewSQLiteStore(filepath.Join(dir, "habitflow.db"))
	if err := docs.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return NewWithProvider(t, dir, docs)
}

// NewWithProvider wraps docs, which the caller has already opened or not.
func NewWithProvider(t *testing.T, dir string, docs docstore.Provider) *Env {
	t.Helper()
	t.Cleanup(func() { docs.Close() })

	sess, err := session.Open(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("session.Open failed: %v", err)
	}

	repo := repository.NewFromProvider(docs, repository.WithNow(func() time.Time { return now }))
	out := &bytes.Buffer{}
	return &Env{
		Ctx: &cli.Context{
			Docs: docs,
			Habits: habits.New(repo,
				habits.WithClock(func() time.Time { return now }),
				habits.WithLocation(time.UTC),
			),
			Repo:     repo,
			Session:  sess,
			Location: time.UTC,
			Ctx:      context.Background(),
			Out:      out,
		},
		Out: out,
		Dir: dir,
	}
}

// Seed stores habits directly, bypassing the context's habit store.
func (e *Env) Seed(t *testing.T, habits ...models.Habit) []models.Habit {
	t.Helper()
	ctx := context.Background()
	saved := make([]models.Habit, len(habits))
	for i, h := range habits {
		created, ok := e.Ctx.Repo.Create(ctx, models.NewHabitData{Name: h.Name, Category: h.Category, Emoji: h.Emoji, Color: h.Color})
		if !ok {
			t.Fatalf("seeding %q failed", h.Name)
		}
		created.CompletedDates = h.CompletedDates
		created.Streak = h.Streak
		if _, ok := e.Ctx.Repo.Update(ctx, created); !ok {
			t.Fatalf("seeding %q failed", h.Name)
		}
		saved[i] = created
	}
	return saved
}
