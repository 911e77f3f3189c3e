// Package habits owns the in-memory habit list and keeps it in step with
// the repository through optimistic updates.
package habits

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/stats"
	"github.com/julianstephens/habitflow/internal/utils"
	"github.com/julianstephens/habitflow/internal/validation"
)

var (
	// ErrNotPersisted means a new habit could not be saved and was not added.
	ErrNotPersisted = errors.New("habit could not be saved")
	// ErrRolledBack means a change was shown locally, failed to save and was reverted.
	ErrRolledBack = errors.New("change could not be saved and was reverted")
)

// Repository is the remote side of the store.
type Repository interface {
	FetchAll(ctx context.Context) []models.Habit
	Create(ctx context.Context, data models.NewHabitData) (models.Habit, bool)
	Update(ctx context.Context, h models.Habit) (models.Habit, bool)
	Remove(ctx context.Context, id string) bool
}

// Snapshot is a consistent view of the store at one instant.
type Snapshot struct {
	Habits  []models.Habit
	Loading bool
	Today   string
	Stats   models.HabitStats
}

type Option func(*Store)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the timezone in which calendar days are computed.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Store is the single owner of the habit list. It is safe for concurrent
// use. Mutations on the same habit id are applied in call order.
type Store struct {
	repo  Repository
	now   func() time.Time
	loc   *time.Location
	queue *keyedQueue

	loadOnce sync.Once

	mu      sync.RWMutex
	habits  []models.Habit // replaced, never mutated in place
	loading bool
	// ids removed while the initial fetch was in flight
	removedDuringLoad map[string]struct{}

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New returns an empty store backed by repo. Call Load to populate it.
func New(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		now:    time.Now,
		loc:    time.Local,
		queue:  newKeyedQueue(),
		habits: []models.Habit{},
		subs:   make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the remote habit list. Only the first call has any effect.
func (s *Store) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		s.loading = true
		s.removedDuringLoad = make(map[string]struct{})
		s.mu.Unlock()
		s.notify()

		fetched := s.repo.FetchAll(ctx)

		s.mu.Lock()
		s.habits = mergeLoaded(s.habits, fetched, s.removedDuringLoad)
		s.loading = false
		s.removedDuringLoad = nil
		count := len(s.habits)
		s.mu.Unlock()
		s.notify()

		s.log().Debug("habits loaded", "count", count)
	})
}

// mergeLoaded puts habits that exist only locally in front of the fetched
// list. Where both sides have an id the local version wins.
func mergeLoaded(local, fetched []models.Habit, removed map[string]struct{}) []models.Habit {
	localByID := make(map[string]models.Habit, len(local))
	for _, h := range local {
		localByID[h.ID] = h
	}
	fetchedIDs := make(map[string]struct{}, len(fetched))
	for _, h := range fetched {
		fetchedIDs[h.ID] = struct{}{}
	}

	merged := make([]models.Habit, 0, len(local)+len(fetched))
	for _, h := range local {
		if _, ok := fetchedIDs[h.ID]; !ok {
			merged = append(merged, h)
		}
	}
	for _, h := range fetched {
		if _, gone := removed[h.ID]; gone {
			continue
		}
		if l, ok := localByID[h.ID]; ok {
			h = l
		}
		merged = append(merged, h.Clone())
	}
	return merged
}

// AddHabit validates data, saves it and puts the new habit first. The
// list only changes once the save succeeds.
func (s *Store) AddHabit(ctx context.Context, data models.NewHabitData) (models.Habit, error) {
	data, err := validation.ValidateNewHabit(data)
	if err != nil {
		return models.Habit{}, err
	}

	created, ok := s.repo.Create(ctx, data)
	if !ok {
		s.log().Warn("habit not added", "name", data.Name)
		return models.Habit{}, ErrNotPersisted
	}
	created = created.Clone()

	s.mu.Lock()
	next := make([]models.Habit, 0, len(s.habits)+1)
	next = append(next, created)
	next = append(next, s.habits...)
	s.habits = next
	s.mu.Unlock()
	s.notify()

	s.log().Info("habit added", "id", created.ID, "name", created.Name)
	return created.Clone(), nil
}

// ToggleHabitToday marks the habit done today, or undoes that if it is
// already done. The change is visible before it is saved and is reverted
// if saving fails. An unknown id is ignored.
func (s *Store) ToggleHabitToday(ctx context.Context, id string) error {
	release, err := s.queue.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	today := s.Today()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	prev := s.habits[idx]
	next := toggled(prev, today)
	s.replaceAt(idx, next)
	s.mu.Unlock()
	s.notify()

	if _, ok := s.repo.Update(ctx, next.Clone()); ok {
		return nil
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.replaceAt(i, prev)
	}
	s.mu.Unlock()
	s.notify()

	s.log().Warn("toggle rolled back", "id", id, "day", today)
	return ErrRolledBack
}

// toggled returns a copy of h with today's completion flipped.
func toggled(h models.Habit, today string) models.Habit {
	next := h.Clone()
	if h.CompletedOn(today) {
		next.CompletedDates = slices.DeleteFunc(next.CompletedDates, func(d string) bool { return d == today })
		next.Streak = max(0, next.Streak-1)
	} else {
		next.CompletedDates = append(next.CompletedDates, today)
		next.Streak++
	}
	return next
}

// RemoveHabit deletes the habit locally, then remotely. If the remote
// delete fails the habit goes back to its old position. An unknown id is
// ignored.
func (s *Store) RemoveHabit(ctx context.Context, id string) error {
	release, err := s.queue.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.habits[idx]
	next := make([]models.Habit, 0, len(s.habits)-1)
	next = append(next, s.habits[:idx]...)
	next = append(next, s.habits[idx+1:]...)
	s.habits = next
	if s.removedDuringLoad != nil {
		s.removedDuringLoad[id] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()

	if s.repo.Remove(ctx, id) {
		s.log().Info("habit removed", "id", id)
		return nil
	}

	s.mu.Lock()
	if s.indexOf(id) < 0 {
		pos := min(idx, len(s.habits))
		restored := make([]models.Habit, 0, len(s.habits)+1)
		restored = append(restored, s.habits[:pos]...)
		restored = append(restored, removed)
		restored = append(restored, s.habits[pos:]...)
		s.habits = restored
	}
	if s.removedDuringLoad != nil {
		delete(s.removedDuringLoad, id)
	}
	s.mu.Unlock()
	s.notify()

	s.log().Warn("remove rolled back", "id", id)
	return ErrRolledBack
}

func (s *Store) log() *log.Logger {
	return logger.With("component", "habits")
}

// indexOf returns the position of id, or -1. Callers hold s.mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.habits, func(h models.Habit) bool { return h.ID == id })
}

// replaceAt swaps in a new slice with h at idx. Callers hold s.mu.
func (s *Store) replaceAt(idx int, h models.Habit) {
	next := slices.Clone(s.habits)
	next[idx] = h
	s.habits = next
}

// Today returns the current calendar day in the store's timezone.
func (s *Store) Today() string {
	return utils.DayString(s.now(), s.loc)
}

// Location returns the timezone used for calendar days.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Habits returns a copy of the current list in display order.
func (s *Store) Habits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.habits)
}

// Loading reports whether the initial fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Stats computes statistics from the current list as of today.
func (s *Store) Stats() models.HabitStats {
	s.mu.RLock()
	habits := s.habits
	s.mu.RUnlock()
	return stats.Compute(habits, s.Today())
}

// Snapshot returns the list, loading flag and statistics as one consistent view.
func (s *Store) Snapshot() Snapshot {
	today := s.Today()
	s.mu.RLock()
	habits := s.habits
	loading := s.loading
	s.mu.RUnlock()

	return Snapshot{
		Habits:  cloneAll(habits),
		Loading: loading,
		Today:   today,
		Stats:   stats.Compute(habits, today),
	}
}

// CompletionsForDate returns the habits completed on day (YYYY-MM-DD).
func (s *Store) CompletionsForDate(day string) []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	done := []models.Habit{}
	for _, h := range s.habits {
		if h.CompletedOn(day) {
			done = append(done, h.Clone())
		}
	}
	return done
}

// IsHabitCompletedToday reports whether h has today's date recorded.
func (s *Store) IsHabitCompletedToday(h models.Habit) bool {
	return h.CompletedOn(s.Today())
}

// Find returns the habit with the given id.
func (s *Store) Find(id string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.habits[i].Clone(), true
	}
	return models.Habit{}, false
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications coalesce: a slow reader sees at most one pending value.
// Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func cloneAll(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		out[i] = h.Clone()
	}
	return out
}
