package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/session"
	"github.com/julianstephens/habitflow/internal/tui/components/habitlist"
)

type SessionState int

const (
	StateHome SessionState = iota
	StateHistory
	StateProfile
	StateLogin
	StateAddHabit
	StateConfirmDelete
)

// tabCount is the number of tabbed states, which come first.
const tabCount = 3

var tabTitles = []string{"Home", "History", "Profile"}

type Model struct {
	ctx     context.Context
	store   *habits.Store
	session *session.Store

	state     SessionState
	keys      KeyMap
	help      help.Model
	habitList habitlist.Model
	progress  progress.Model

	form      *huh.Form
	loginForm *LoginFormModel
	habitForm *HabitFormModel

	snapshot habits.Snapshot
	userName string
	status   string
	// statusErr marks status as a failure message
	statusErr bool

	habitToDeleteID   string
	habitToDeleteName string

	changes     <-chan struct{}
	unsubscribe func()
	days        *dayWatcher

	quitting bool
	width    int
	height   int
}

// NewModel builds the TUI over store. The store is loaded by Init.
func NewModel(ctx context.Context, store *habits.Store, sess *session.Store) Model {
	changes, unsubscribe := store.Subscribe()

	m := Model{
		ctx:         ctx,
		store:       store,
		session:     sess,
		state:       StateHome,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitList:   habitlist.New(0, 0),
		progress:    progress.New(progress.WithDefaultGradient()),
		changes:     changes,
		unsubscribe: unsubscribe,
		days:        newDayWatcher(store.Location()),
	}
	m.refresh()

	if name, ok := sess.DisplayName(); ok {
		m.userName = name
	} else {
		m.startLogin()
	}
	return m
}

func (m *Model) startLogin() {
	m.loginForm = &LoginFormModel{}
	m.form = NewLoginForm(m.loginForm)
	m.state = StateLogin
}

func (m *Model) startAddHabit() {
	m.habitForm = newHabitFormModel()
	m.form = NewHabitForm(m.habitForm)
	m.state = StateAddHabit
}

// refresh copies the store's current state into the view.
func (m *Model) refresh() {
	m.snapshot = m.store.Snapshot()
	m.habitList.SetHabits(m.snapshot.Habits, m.snapshot.Today)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateHome:
		hk := habitlist.DefaultKeyMap()
		keys = append(keys, hk.Add, hk.Toggle, hk.Delete)
	case StateProfile:
		keys = append(keys, m.keys.Logout)
	case StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}

	var actions []key.Binding
	switch m.state {
	case StateHome:
		hk := habitlist.DefaultKeyMap()
		actions = []key.Binding{hk.Add, hk.Toggle, hk.Delete}
	case StateProfile:
		actions = []key.Binding{m.keys.Logout}
	}
	return [][]key.Binding{global, actions}
}

func (m Model) Init() tea.Cmd {
	m.days.Start()
	cmds := []tea.Cmd{
		loadCmd(m.ctx, m.store),
		waitForChange(m.changes),
		waitForDay(m.days.C),
	}
	if m.form != nil {
		cmds = append(cmds, m.form.Init())
	}
	return tea.Batch(cmds...)
}

// shutdown releases the subscription and the midnight job.
func (m *Model) shutdown() {
	m.quitting = true
	m.unsubscribe()
	m.days.Stop()
}

type loadedMsg struct{}

type storeChangedMsg struct{}

type dayChangedMsg struct{}

type opResultMsg struct {
	verb string
	name string
	err  error
	// flash is shown on success
	flash string
}

type clearStatusMsg struct{}

func loadCmd(ctx context.Context, store *habits.Store) tea.Cmd {
	return func() tea.Msg {
		store.Load(ctx)
		return loadedMsg{}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func waitForDay(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return dayChangedMsg{}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}
