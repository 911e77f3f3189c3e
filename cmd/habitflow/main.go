package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/cli/backups"
	"github.com/julianstephens/habitflow/internal/cli/habits"
	"github.com/julianstephens/habitflow/internal/cli/profile"
	"github.com/julianstephens/habitflow/internal/cli/progress"
	"github.com/julianstephens/habitflow/internal/cli/system"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/errors"
	habitstore "github.com/julianstephens/habitflow/internal/habits"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/notifier"
	"github.com/julianstephens/habitflow/internal/repository"
	"github.com/julianstephens/habitflow/internal/session"
	"github.com/julianstephens/habitflow/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database file path, JSON file path or PostgreSQL connection string. PostgreSQL passwords must not be embedded; store the connection string with 'habitflow keyring set' instead." type:"string" env:"HABITFLOW_CONFIG"`
	Timezone string `help:"IANA timezone used to decide the current day." default:"Local" env:"HABITFLOW_TIMEZONE"`
	Verbose  bool   `help:"Enable debug logging." env:"HABITFLOW_DEBUG"`

	Init    system.InitCmd      `cmd:"" help:"Initialize habitflow storage."`
	Migrate system.MigrateCmd   `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd       `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit   habits.HabitCmd     `cmd:"" help:"Manage habits and mark them done."`
	Stats   progress.StatsCmd   `cmd:"" help:"Show habit statistics."`
	History progress.HistoryCmd `cmd:"" help:"Show completions for a day and the day before."`
	Login   profile.LoginCmd    `cmd:"" help:"Set your display name."`
	Logout  profile.LogoutCmd   `cmd:"" help:"Clear your display name."`
	Profile profile.ProfileCmd  `cmd:"" help:"Show or edit your profile."`
	Keyring system.KeyringCmd   `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

// noLoad lists commands that open storage themselves or not at all.
var noLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with streaks and statistics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := strings.Fields(ctx.Command())[0]

	docs, config, err := openStorage(CLI.Config)
	if stderrors.Is(err, docstore.ErrEmbeddedCredentials) {
		errors.Fatal(errors.WithHint(err, "store the connection string with 'habitflow keyring set' and omit --config"))
	}
	if err != nil {
		errors.Fatal(err)
	}

	configDir := filepath.Dir(utils.ExpandPath(constants.DefaultConfigPath))
	if !docstore.IsPostgres(config) {
		configDir = filepath.Dir(config)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Verbose,
		ConfigDir: configDir,
		Console:   command != "tui",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("starting", "command", ctx.Command(), "backend", docstore.Backend(docs))

	if !utils.ValidateTimezone(CLI.Timezone) {
		errors.Fatal(errors.WithHint(fmt.Errorf("invalid timezone %q", CLI.Timezone), "use an IANA name such as Europe/Berlin, or Local"))
	}
	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		errors.Fatal(err)
	}

	if !noLoad[command] {
		if err := docs.Load(); err != nil {
			errors.Fatal(err)
		}
	}
	defer docs.Close()

	sess, err := session.Open(session.PathFor(config))
	if err != nil {
		errors.Fatal(err)
	}

	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := notifier.New()
	repo := repository.NewFromProvider(docs, repository.WithReporter(n))

	err = ctx.Run(&cli.Context{
		Docs:     docs,
		Habits:   habitstore.New(repo, habitstore.WithLocation(loc)),
		Repo:     repo,
		Session:  sess,
		Notifier: n,
		Location: loc,
		Ctx:      appCtx,
		Debug:    CLI.Verbose,
	})
	if !n.Flush(constants.NotifyTimeout) {
		logger.Debug("tray notification still pending at exit")
	}
	if err != nil {
		docs.Close()
		errors.Fatal(err)
	}
}

// openStorage resolves the storage location from the flag or environment,
// then the OS keyring, then the default path.
func openStorage(config string) (docstore.Provider, string, error) {
	config = strings.TrimSpace(config)
	if config != "" {
		config = expandLocal(config)
		docs, err := docstore.New(config)
		return docs, config, err
	}

	// The keyring is the one place a password is allowed to live.
	if connStr, ok := keyring.LookupConnectionString(); ok {
		return docstore.NewPostgresStore(connStr), connStr, nil
	}

	config = utils.ExpandPath(constants.DefaultConfigPath)
	return docstore.NewSQLiteStore(config), config, nil
}

func expandLocal(config string) string {
	if docstore.IsPostgres(config) {
		return config
	}
	return utils.ExpandPath(config)
}
