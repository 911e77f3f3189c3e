package profile

import (
	"github.com/julianstephens/habitflow/internal/cli"
)

type LoginCmd struct {
	Name string `arg:"" help:"Display name."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	if err := ctx.Session.SetDisplayName(c.Name); err != nil {
		return err
	}
	name, _ := ctx.Session.DisplayName()
	ctx.Printf("Welcome, %s!\n", name)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	name, ok := ctx.Session.DisplayName()
	if !ok {
		ctx.Println("Not logged in.")
		return nil
	}
	if err := ctx.Session.Logout(); err != nil {
		return err
	}
	ctx.Printf("Goodbye, %s.\n", name)
	return nil
}

type ProfileCmd struct {
	Show  ProfileShowCmd  `cmd:"" default:"1" help:"Show your profile and streaks."`
	Photo ProfilePhotoCmd `cmd:"" help:"Set the profile image."`
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	name, ok := ctx.Session.DisplayName()
	if !ok {
		name = "(not logged in)"
	}
	image, ok := ctx.Session.ProfileImage()
	if !ok {
		image = "(none)"
	}

	ctx.LoadHabits()
	s := ctx.Habits.Stats()

	ctx.Printf("Name:            %s\n", name)
	ctx.Printf("Profile image:   %s\n", image)
	ctx.Println()
	ctx.Printf("Total streak:    %d\n", s.TotalStreak)
	ctx.Printf("Longest streak:  %d\n", s.LongestStreak)
	ctx.Printf("Active days:     %d\n", s.ActiveDays)
	ctx.Printf("Completions:     %d\n", s.Completions)
	return nil
}

type ProfilePhotoCmd struct {
	Path string `arg:"" type:"path" help:"Image file."`
}

func (c *ProfilePhotoCmd) Run(ctx *cli.Context) error {
	if err := ctx.Session.SetProfileImage(c.Path); err != nil {
		return err
	}
	image, _ := ctx.Session.ProfileImage()
	ctx.Printf("Profile image set to %s\n", image)
	return nil
}
