package system

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" help:"Show database path."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump a stored habit document as JSON."`
	DumpStats DebugDumpStatsCmd `cmd:"" help:"Dump current statistics as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	path := ctx.Docs.GetConfigPath()
	if docstore.Backend(ctx.Docs) == "postgresql" {
		path = maskPassword(path)
	}

	// Output in machine-readable format
	return printJSON(ctx, map[string]string{
		"path":    path,
		"backend": docstore.Backend(ctx.Docs),
		"session": ctx.Session.Path(),
	})
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

// Run prints the document exactly as stored, before any normalization.
func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	docs, err := ctx.Docs.Collection(constants.HabitsCollection).List(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to read habits: %w", err)
	}

	ref := strings.TrimSpace(cmd.Habit)
	for _, doc := range docs {
		name, _ := doc.Fields[constants.FieldName].(string)
		if doc.ID == ref || strings.EqualFold(name, ref) {
			return printJSON(ctx, map[string]any{
				"id":     doc.ID,
				"fields": doc.Fields,
			})
		}
	}
	return fmt.Errorf("%w: %q", cli.ErrHabitNotFound, ref)
}

type DebugDumpStatsCmd struct{}

func (cmd *DebugDumpStatsCmd) Run(ctx *cli.Context) error {
	ctx.LoadHabits()
	snap := ctx.Habits.Snapshot()
	return printJSON(ctx, map[string]any{
		"today": snap.Today,
		"stats": snap.Stats,
	})
}
