// Package repository maps habit documents in a docstore collection to
// models.Habit values.
package repository

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
)

// HabitRepository reads and writes habits. Failures never escape as
// errors: reads degrade to an empty list and writes report false.
type HabitRepository struct {
	coll     docstore.Collection
	reporter Reporter
	now      func() time.Time
}

type Option func(*HabitRepository)

// WithReporter forwards every failure to r.
func WithReporter(r Reporter) Option {
	return func(repo *HabitRepository) { repo.reporter = r }
}

// WithNow overrides the clock used for createdAt.
func WithNow(now func() time.Time) Option {
	return func(repo *HabitRepository) { repo.now = now }
}

// New returns a repository over coll.
func New(coll docstore.Collection, opts ...Option) *HabitRepository {
	r := &HabitRepository{
		coll: coll,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromProvider returns a repository over the provider's habits collection.
func NewFromProvider(p docstore.Provider, opts ...Option) *HabitRepository {
	return New(p.Collection(constants.HabitsCollection), opts...)
}

func (r *HabitRepository) log() *log.Logger {
	return logger.With("component", "repository")
}

func (r *HabitRepository) fail(op string, err error, keyvals ...interface{}) {
	r.log().Error("habit "+op+" failed", append([]interface{}{"error", err}, keyvals...)...)
	if r.reporter != nil {
		r.reporter.ReportError(op, err)
	}
}

// FetchAll returns every stored habit, newest first. On failure it
// returns an empty slice.
func (r *HabitRepository) FetchAll(ctx context.Context) []models.Habit {
	docs, err := r.coll.List(ctx)
	if err != nil {
		r.fail(OpFetchAll, err)
		return []models.Habit{}
	}

	habits := make([]models.Habit, 0, len(docs))
	for _, doc := range docs {
		habits = append(habits, ParseHabit(doc))
	}
	r.log().Debug("fetched habits", "count", len(habits))
	return habits
}

// Create stores a new habit with no completions and a zero streak.
func (r *HabitRepository) Create(ctx context.Context, data models.NewHabitData) (models.Habit, bool) {
	h := models.Habit{
		Name:           data.Name,
		Category:       data.Category,
		Emoji:          data.Emoji,
		Color:          data.Color,
		CompletedDates: []string{},
		Streak:         0,
		CreatedAt:      r.now().UTC().Format(time.RFC3339),
	}

	id, err := r.coll.Create(ctx, habitFields(h))
	if err != nil {
		r.fail(OpCreate, err, "name", data.Name)
		return models.Habit{}, false
	}
	h.ID = id
	return h, true
}

// Update writes every field of h except its id.
func (r *HabitRepository) Update(ctx context.Context, h models.Habit) (models.Habit, bool) {
	if err := r.coll.Update(ctx, h.ID, habitFields(h)); err != nil {
		r.fail(OpUpdate, err, "id", h.ID)
		return models.Habit{}, false
	}
	return h, true
}

// Remove deletes the habit with the given id.
func (r *HabitRepository) Remove(ctx context.Context, id string) bool {
	if err := r.coll.Delete(ctx, id); err != nil {
		r.fail(OpRemove, err, "id", id)
		return false
	}
	return true
}
