package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateHome:
		content = m.viewHome()
	case StateHistory:
		content = m.viewHistory()
	case StateProfile:
		content = m.viewProfile()
	case StateLogin, StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		style := mutedStyle
		if m.statusErr {
			style = warningStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if m.state != StateLogin && m.state != StateAddHabit {
		parts = append(parts, m.help.View(m))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) greeting() string {
	if m.userName == "" {
		return "Hello!"
	}
	return fmt.Sprintf("Hello, %s!", m.userName)
}

func (m Model) viewHome() string {
	st := m.snapshot.Stats

	var b strings.Builder
	b.WriteString(headingStyle.Render(m.greeting()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.snapshot.Today))
	b.WriteString("\n\n")

	if m.snapshot.Loading {
		b.WriteString(mutedStyle.Render("Loading habits..."))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Today: %d/%d done\n", st.TotalCompletedToday, st.ActiveHabits)
	b.WriteString(m.progress.ViewAs(st.TodayProgress))
	b.WriteString("\n\n")
	b.WriteString(m.habitList.View())

	return docStyle.Render(b.String())
}

func (m Model) viewHistory() string {
	today := m.snapshot.Today
	yesterday, err := utils.PreviousDay(today)

	var b strings.Builder
	b.WriteString(headingStyle.Render("History"))
	b.WriteString("\n\n")

	b.WriteString(m.viewDay("Today", today))
	if err == nil {
		b.WriteString("\n")
		b.WriteString(m.viewDay("Yesterday", yesterday))
	}
	b.WriteString("\n")
	b.WriteString(m.viewStatCards())

	return docStyle.Render(b.String())
}

func (m Model) viewDay(label, day string) string {
	var done []models.Habit
	for _, h := range m.snapshot.Habits {
		if h.CompletedOn(day) {
			done = append(done, h)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headingStyle.Render(label), mutedStyle.Render(day))
	if len(done) == 0 {
		b.WriteString(mutedStyle.Render("  Nothing completed"))
		b.WriteString("\n")
		return b.String()
	}
	for _, h := range done {
		fmt.Fprintf(&b, "  %s %s %s\n", swatch(h.Color), h.Emoji, h.Name)
	}
	return b.String()
}

func (m Model) viewStatCards() string {
	st := m.snapshot.Stats
	card := func(title string, value int) string {
		return cardStyle.Render(fmt.Sprintf("%s\n%s", mutedStyle.Render(title), headingStyle.Render(fmt.Sprint(value))))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top,
			card("Completions", st.Completions),
			card("Active days", st.ActiveDays),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			card("Total streak", st.TotalStreak),
			card("Longest streak", st.LongestStreak),
		),
	)
}

func (m Model) viewProfile() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Profile"))
	b.WriteString("\n\n")

	name := m.userName
	if name == "" {
		name = "(not logged in)"
	}
	fmt.Fprintf(&b, "Name:   %s\n", name)
	if img, ok := m.session.ProfileImage(); ok {
		fmt.Fprintf(&b, "Photo:  %s\n", img)
	} else {
		fmt.Fprintf(&b, "Photo:  %s\n", mutedStyle.Render("none (set one with 'habitflow profile photo')"))
	}
	fmt.Fprintf(&b, "Habits: %d\n\n", m.snapshot.Stats.ActiveHabits)
	b.WriteString(m.viewStatCards())

	return docStyle.Render(b.String())
}

func (m Model) viewConfirmDelete() string {
	height := max(m.height-4, 0)
	return lipgloss.Place(m.width, height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete Habit?"),
			"",
			fmt.Sprintf("Are you sure you want to delete %q?", m.habitToDeleteName),
			"Its completion history will be lost.",
			"",
			"[y] Yes    [n] No",
		),
	)
}
