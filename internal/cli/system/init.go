package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing database before initialization."`
	Source string `help:"Database path or connection string to copy habits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Docs.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Docs.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying habits from: %s\n", c.Source)
		n, err := copyHabits(ctx, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("Copied %d habits.\n", n)
	}
	return nil
}

// reset removes a file-backed database. PostgreSQL databases are left alone.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if docstore.Backend(ctx.Docs) == "postgresql" {
		return errors.New("--force is not supported for PostgreSQL, drop the habitflow schema instead")
	}

	dbPath := ctx.Docs.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	_, err := os.Stat(dbPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	if err := ctx.Docs.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

// copyHabits copies every habit document from source into the current
// store, oldest first so the newest-first order survives. Documents get
// new ids.
func copyHabits(ctx *cli.Context, source string) (int, error) {
	src, err := docstore.New(source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	docs, err := src.Collection(constants.HabitsCollection).List(ctx.Context())
	if err != nil {
		return 0, fmt.Errorf("failed to read habits from source: %w", err)
	}

	dst := ctx.Docs.Collection(constants.HabitsCollection)
	for i := len(docs) - 1; i >= 0; i-- {
		if _, err := dst.Create(ctx.Context(), docs[i].Fields); err != nil {
			return len(docs) - 1 - i, fmt.Errorf("failed to copy habit %s: %w", docs[i].ID, err)
		}
	}
	return len(docs), nil
}
