package system

import (
	"fmt"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Repo.Inspect(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}

	ctx.Printf("Validating %d habits...\n\n", len(habits))
	result := validation.New().ValidateHabits(habits)
	ctx.Println(result.FormatReport())

	// Conflicts are reported, not treated as a failure
	return nil
}
