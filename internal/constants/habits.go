package constants

const (
	// UnnamedHabit replaces a missing or blank name on stored habits
	UnnamedHabit = "Unnamed Habit"

	DefaultTimezone = "Local" // Use system local timezone by default

	// Habit document field names, as stored in the habits collection
	FieldName           = "name"
	FieldCategory       = "category"
	FieldEmoji          = "emoji"
	FieldColor          = "color"
	FieldCompletedDates = "completedDates"
	FieldStreak         = "streak"
	FieldCreatedAt      = "createdAt"
)

// EmojiOptions are the emojis offered when creating a habit. The first entry is the default.
var EmojiOptions = []string{"🧘", "💧", "📚", "💪", "🏃", "🎨", "🎵", "🧑‍💻", "🌱", "🧠"}

// ColorOptions are the habit colors offered when creating a habit. The first entry is the default.
var ColorOptions = []string{"#7B61FF", "#007AFF", "#00C853", "#FF9500", "#FF3B30", "#EC4899", "#14B8A6"}

// DefaultEmoji returns the emoji used when none is given or stored.
func DefaultEmoji() string { return EmojiOptions[0] }

// DefaultColor returns the color used when none is given or stored.
func DefaultColor() string { return ColorOptions[0] }
