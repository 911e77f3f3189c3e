package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/tui/components/habitlist"
)

const statusTimeout = 3 * time.Second

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-8, 10), 60)
		m.habitList.SetSize(msg.Width-4, max(msg.Height-12, 3))
		return m, nil

	case loadedMsg:
		m.refresh()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case dayChangedMsg:
		m.refresh()
		m.setStatus("A new day has started", false)
		return m, tea.Batch(waitForDay(m.days.C), clearStatusAfter(statusTimeout))

	case opResultMsg:
		m.refresh()
		if msg.err != nil {
			m.setStatus(describeFailure(msg), true)
		} else if msg.flash != "" {
			m.setStatus(msg.flash, false)
		}
		return m, clearStatusAfter(statusTimeout)

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case habitlist.AddHabitMsg:
		m.startAddHabit()
		return m, m.form.Init()

	case habitlist.ToggleHabitMsg:
		return m, m.toggleCmd(msg.ID)

	case habitlist.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.habitToDeleteName = msg.Name
		m.state = StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case StateLogin:
		return m.updateLogin(msg)
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		filtering := m.state == StateHome && m.habitList.Filtering()
		switch {
		case key.Matches(msg, m.keys.Quit) && !(filtering && msg.String() == "q"):
			m.shutdown()
			return m, tea.Quit
		case filtering:
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		// On Home the list owns the arrow and vim keys.
		case key.Matches(msg, m.keys.Tab) && (m.state != StateHome || msg.String() == "tab"):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab) && (m.state != StateHome || msg.String() == "shift+tab"):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case m.state == StateProfile && key.Matches(msg, m.keys.Logout):
			return m.logout()
		}
	}

	if m.state == StateHome {
		var cmd tea.Cmd
		m.habitList, cmd = m.habitList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// quitOnInterrupt ends the program on ctrl+c while a form has focus.
func (m *Model) quitOnInterrupt(msg tea.Msg) bool {
	k, ok := msg.(tea.KeyMsg)
	return ok && k.Type == tea.KeyCtrlC
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitOnInterrupt(msg) {
		m.shutdown()
		return m, tea.Quit
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.session.SetDisplayName(m.loginForm.Name); err != nil {
			m.setStatus(fmt.Sprintf("Could not save name: %v", err), true)
			m.startLogin()
			return m, m.form.Init()
		}
		m.userName, _ = m.session.DisplayName()
		m.form = nil
		m.state = StateHome
		m.setStatus(fmt.Sprintf("Welcome, %s!", m.userName), false)
		return m, clearStatusAfter(statusTimeout)
	case huh.StateAborted:
		m.shutdown()
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitOnInterrupt(msg) {
		m.shutdown()
		return m, tea.Quit
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		data := m.habitForm.Data()
		m.form = nil
		m.state = StateHome
		return m, m.addCmd(data)
	case huh.StateAborted:
		m.form = nil
		m.state = StateHome
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case k.Type == tea.KeyCtrlC:
		m.shutdown()
		return m, tea.Quit
	case key.Matches(k, m.keys.Confirm):
		id := m.habitToDeleteID
		name := m.habitToDeleteName
		m.habitToDeleteID, m.habitToDeleteName = "", ""
		m.state = StateHome
		return m, m.removeCmd(id, name)
	case key.Matches(k, m.keys.Cancel):
		m.habitToDeleteID, m.habitToDeleteName = "", ""
		m.state = StateHome
	}
	return m, nil
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.session.Logout(); err != nil {
		m.setStatus(fmt.Sprintf("Could not log out: %v", err), true)
		return m, clearStatusAfter(statusTimeout)
	}
	m.userName = ""
	m.startLogin()
	return m, m.form.Init()
}

func (m Model) addCmd(data models.NewHabitData) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		h, err := store.AddHabit(ctx, data)
		return opResultMsg{verb: "add", name: data.Name, err: err, flash: fmt.Sprintf("Added %s %s", h.Emoji, h.Name)}
	}
}

func (m Model) toggleCmd(id string) tea.Cmd {
	ctx, store := m.ctx, m.store
	name := ""
	if h, ok := store.Find(id); ok {
		name = h.Name
	}
	return func() tea.Msg {
		return opResultMsg{verb: "update", name: name, err: store.ToggleHabitToday(ctx, id)}
	}
}

func (m Model) removeCmd(id, name string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		err := store.RemoveHabit(ctx, id)
		return opResultMsg{verb: "delete", name: name, err: err, flash: fmt.Sprintf("Deleted %s", name)}
	}
}

func describeFailure(r opResultMsg) string {
	switch {
	case errors.Is(r.err, habits.ErrNotPersisted):
		return fmt.Sprintf("Could not save %q. Nothing was added.", r.name)
	case errors.Is(r.err, habits.ErrRolledBack):
		return fmt.Sprintf("Could not %s %q. The change was undone.", r.verb, r.name)
	default:
		return fmt.Sprintf("Could not %s %q: %v", r.verb, r.name, r.err)
	}
}
