package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// ErrInvalidHabit is wrapped by every error returned from ValidateNewHabit
var ErrInvalidHabit = errors.New("invalid habit")

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ConflictType represents the type of integrity problem found in stored habits
type ConflictType string

const (
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidDate        ConflictType = "invalid_date"
	ConflictDuplicateDate      ConflictType = "duplicate_date"
	ConflictNegativeStreak     ConflictType = "negative_streak"
	ConflictUnknownCategory    ConflictType = "unknown_category"
	ConflictInvalidColor       ConflictType = "invalid_color"
	ConflictMissingHabitID     ConflictType = "missing_habit_id"
)

// Conflict represents a detected problem in one or more habits
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Habit names involved
	HabitIDs    []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// IsHexColor reports whether s is a #RGB, #RRGGBB or #RRGGBBAA color token.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// ValidateNewHabit checks user input for a new habit and fills in
// defaults for the cosmetic fields. The returned data is what should be
// persisted.
func ValidateNewHabit(data models.NewHabitData) (models.NewHabitData, error) {
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		return data, fmt.Errorf("%w: name is required", ErrInvalidHabit)
	}

	if data.Category == "" {
		data.Category = models.Categories[0]
	}
	if !data.Category.Valid() {
		c, err := models.ParseCategory(string(data.Category))
		if err != nil {
			return data, fmt.Errorf("%w: %v", ErrInvalidHabit, err)
		}
		data.Category = c
	}

	data.Emoji = strings.TrimSpace(data.Emoji)
	if data.Emoji == "" {
		data.Emoji = constants.DefaultEmoji()
	}

	data.Color = strings.TrimSpace(data.Color)
	if data.Color == "" {
		data.Color = constants.DefaultColor()
	}
	if !IsHexColor(data.Color) {
		return data, fmt.Errorf("%w: color %q must be a hex value like #7B61FF", ErrInvalidHabit, data.Color)
	}

	return data, nil
}

// Validator checks stored habits for integrity problems
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateHabits checks habits for problems that normalization on read
// would hide or that the UI cannot represent.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	var result ValidationResult

	byName := make(map[string][]models.Habit)
	var nameOrder []string

	for _, h := range habits {
		if h.ID == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingHabitID,
				Description: fmt.Sprintf("Habit %q has no ID", h.Name),
				Items:       []string{h.Name},
			})
		}

		key := strings.ToLower(strings.TrimSpace(h.Name))
		if _, seen := byName[key]; !seen {
			nameOrder = append(nameOrder, key)
		}
		byName[key] = append(byName[key], h)

		if !h.Category.Valid() {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownCategory,
				Description: fmt.Sprintf("Habit %q has unknown category %q", h.Name, h.Category),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		if h.Streak < 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictNegativeStreak,
				Description: fmt.Sprintf("Habit %q has negative streak %d", h.Name, h.Streak),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		if h.Color != "" && !IsHexColor(h.Color) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidColor,
				Description: fmt.Sprintf("Habit %q has invalid color %q", h.Name, h.Color),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		seenDates := make(map[string]struct{}, len(h.CompletedDates))
		for _, d := range h.CompletedDates {
			if !utils.ValidateDateFormat(d) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidDate,
					Description: fmt.Sprintf("Habit %q has invalid completion date %q", h.Name, d),
					Items:       []string{h.Name},
					HabitIDs:    []string{h.ID},
				})
			}
			if _, dup := seenDates[d]; dup {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictDuplicateDate,
					Description: fmt.Sprintf("Habit %q lists %s more than once", h.Name, d),
					Items:       []string{h.Name},
					HabitIDs:    []string{h.ID},
				})
			}
			seenDates[d] = struct{}{}
		}
	}

	for _, key := range nameOrder {
		group := byName[key]
		if len(group) < 2 {
			continue
		}
		ids := make([]string, 0, len(group))
		for _, h := range group {
			ids = append(ids, h.ID)
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateHabitName,
			Description: fmt.Sprintf("Duplicate habit name: %s (appears %d times)", group[0].Name, len(group)),
			Items:       []string{group[0].Name},
			HabitIDs:    ids,
		})
	}

	return result
}
