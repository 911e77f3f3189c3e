package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/validation"
)

type LoginFormModel struct {
	Name string
}

type HabitFormModel struct {
	Name     string
	Category models.Category
	Emoji    string
	Color    string
}

func (f *HabitFormModel) Data() models.NewHabitData {
	return models.NewHabitData{
		Name:     f.Name,
		Category: f.Category,
		Emoji:    f.Emoji,
		Color:    f.Color,
	}
}

func newHabitFormModel() *HabitFormModel {
	return &HabitFormModel{
		Category: models.Categories[0],
		Emoji:    constants.DefaultEmoji(),
		Color:    constants.DefaultColor(),
	}
}

func NewLoginForm(fm *LoginFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to habitflow").
				Description("Build better habits, one day at a time."),
			huh.NewInput().
				Title("What should we call you?").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func NewHabitForm(fm *HabitFormModel) *huh.Form {
	categories := make([]huh.Option[models.Category], len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = huh.NewOption(string(c), c)
	}

	emojis := make([]huh.Option[string], len(constants.EmojiOptions))
	for i, e := range constants.EmojiOptions {
		emojis[i] = huh.NewOption(e, e)
	}

	colors := make([]huh.Option[string], len(constants.ColorOptions))
	for i, c := range constants.ColorOptions {
		colors[i] = huh.NewOption(swatch(c)+" "+c, c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(categories...).
				Value(&fm.Category),
			huh.NewSelect[string]().
				Title("Emoji").
				Options(emojis...).
				Value(&fm.Emoji),
			huh.NewSelect[string]().
				Title("Color").
				Options(colors...).
				Value(&fm.Color).
				Validate(func(s string) error {
					if !validation.IsHexColor(s) {
						return fmt.Errorf("invalid color %q", s)
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
