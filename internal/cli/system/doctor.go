package system

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/backup"
	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/notifier"
	"github.com/julianstephens/habitflow/internal/validation"
)

const pingTimeout = 5 * time.Second

type DoctorCmd struct{}

type check struct {
	name string
	// warnOnly checks never fail the run
	warnOnly bool
	needsDB  bool
	run      func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Habit integrity", needsDB: true, run: checkHabitIntegrity},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Session", warnOnly: true, run: checkSession},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
	{name: "Tray notifier", warnOnly: true, run: checkNotifier},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true

	for i, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}

		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %s\n", indent(err.Error()))
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %s\n", indent(err.Error()))
			hasError = true
		}
		if i == 0 && err != nil {
			dbReachable = false
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n   ")
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Docs.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx.Context(), pingTimeout)
	defer cancel()
	if err := ctx.Docs.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Docs.(docstore.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'habitflow migrate')", current, latest)
	}
	return nil
}

func checkHabitIntegrity(ctx *cli.Context) error {
	habits, err := ctx.Repo.Inspect(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to read habits: %w", err)
	}
	result := validation.New().ValidateHabits(habits)
	if result.HasConflicts() {
		return errors.New(result.FormatReport())
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Location == nil {
		return errors.New("no timezone configured")
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if docstore.Backend(ctx.Docs) != "sqlite" {
		return nil
	}
	mgr := backup.NewManager(ctx.Docs.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitflow backup create'")
	}
	return nil
}

func checkSession(ctx *cli.Context) error {
	if ctx.Session == nil {
		return errors.New("session file could not be opened")
	}
	if _, ok := ctx.Session.DisplayName(); !ok {
		return errors.New("not logged in - run 'habitflow login NAME'")
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if docstore.Backend(ctx.Docs) != "postgresql" {
		return nil
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkNotifier(ctx *cli.Context) error {
	if ctx.Notifier == nil {
		return nil
	}
	if err := ctx.Notifier.Available(); err != nil {
		if errors.Is(err, notifier.ErrTrayNotRunning) {
			return errors.New("tray app not running - save failures are only logged")
		}
		return err
	}
	return nil
}
