package system

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/habitflow/internal/cli/clitest"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/docstore"
	"github.com/julianstephens/habitflow/internal/models"
)

func TestDoctorHealthyDatabase(t *testing.T) {
	env := clitest.New(t)
	env.Seed(t, models.Habit{Name: "Gym", Category: models.CategoryHealth, CompletedDates: []string{clitest.Today}, Streak: 1})

	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, env.Out.String())
	}
	out := env.Output()
	for _, want := range []string{
		"✓ Database reachable: OK",
		"✓ Schema version: OK",
		"✓ Habit integrity: OK",
		"⚠ Backups present: WARNING",
		"⚠ Session: WARNING",
		"All diagnostics passed!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorReportsBadHabits(t *testing.T) {
	env := clitest.New(t)
	coll := env.Ctx.Docs.Collection(constants.HabitsCollection)
	_, err := coll.Create(context.Background(), docstore.Fields{
		constants.FieldName:           "Gym",
		constants.FieldCategory:       "Cooking",
		constants.FieldCompletedDates: []any{"2024-03-05", "2024-03-05", "yesterday"},
		constants.FieldStreak:         -2,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
		t.Fatal("doctor should fail on bad habits")
	}
	out := env.Output()
	if !strings.Contains(out, "❌ Habit integrity: FAIL") {
		t.Errorf("integrity check should fail:\n%s", out)
	}
	if !strings.Contains(out, "Diagnostics completed with errors.") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestDoctorSkipsChecksWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	env := clitest.NewWithProvider(t, dir, docstore.NewSQLiteStore(filepath.Join(dir, "missing.db")))

	if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
		t.Fatal("doctor should fail without a database")
	}
	out := env.Output()
	if !strings.Contains(out, "❌ Database reachable: FAIL") {
		t.Errorf("expected reachability failure:\n%s", out)
	}
	if !strings.Contains(out, "⊘ Schema version: SKIPPED") || !strings.Contains(out, "⊘ Habit integrity: SKIPPED") {
		t.Errorf("database checks should be skipped:\n%s", out)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "habitflow.db")
	env := clitest.NewWithProvider(t, dir, docstore.NewSQLiteStore(dbPath))

	if err := (&InitCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Initialized habitflow storage at: "+dbPath) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestInitForceResets(t *testing.T) {
	env := clitest.New(t)
	env.Seed(t, models.Habit{Name: "Gym", Category: models.CategoryHealth})

	if err := (&InitCmd{Force: true}).Run(env.Ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Deleted existing database") {
		t.Errorf("unexpected output: %q", out)
	}

	docs, err := env.Ctx.Docs.Collection(constants.HabitsCollection).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected an empty database, got %d habits", len(docs))
	}
}

func TestInitCopiesFromSource(t *testing.T) {
	src := clitest.New(t)
	src.Seed(t,
		models.Habit{Name: "Gym", Category: models.CategoryHealth, CompletedDates: []string{"2024-03-04"}, Streak: 1},
		models.Habit{Name: "Read", Category: models.CategoryProductivity},
	)
	srcPath := src.Ctx.Docs.GetConfigPath()

	dir := t.TempDir()
	env := clitest.NewWithProvider(t, dir, docstore.NewSQLiteStore(filepath.Join(dir, "copy.db")))

	if err := (&InitCmd{Source: srcPath}).Run(env.Ctx); err != nil {
		t.Fatalf("init --source failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Copied 2 habits.") {
		t.Errorf("unexpected output: %q", out)
	}

	copied := env.Ctx.Repo.FetchAll(context.Background())
	if len(copied) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(copied))
	}
	names := map[string]models.Habit{}
	for _, h := range copied {
		names[h.Name] = h
	}
	if gym := names["Gym"]; !gym.CompletedOn("2024-03-04") || gym.Streak != 1 {
		t.Errorf("Gym not copied faithfully: %+v", gym)
	}
}

func TestInitForceRejectsSameSource(t *testing.T) {
	env := clitest.New(t)
	err := (&InitCmd{Force: true, Source: env.Ctx.Docs.GetConfigPath()}).Run(env.Ctx)
	if err == nil || !strings.Contains(err.Error(), "same") {
		t.Errorf("error = %v, want same-path error", err)
	}
}

func TestMigrate(t *testing.T) {
	env := clitest.New(t)
	if err := (&MigrateCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "up to date") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestMigrateJSONBackend(t *testing.T) {
	dir := t.TempDir()
	docs := docstore.NewJSONStore(filepath.Join(dir, "habits.json"))
	if err := docs.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	env := clitest.NewWithProvider(t, dir, docs)

	if err := (&MigrateCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "json backend has no schema") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url with password", "postgres://bob:secret@db:5432/habits", "postgres://bob:****@db:5432/habits"},
		{"url without password", "postgres://bob@db/habits", "postgres://bob@db/habits"},
		{"url with query", "postgresql://bob:secret@db/habits?sslmode=require", "postgresql://bob:****@db/habits?sslmode=require"},
		{"url with escaped password", "postgres://bob:p%40ss@db/habits", "postgres://bob:****@db/habits"},
		{"url with at sign in password", "postgres://bob:p@ss@db/habits", "postgres://bob:****@db/habits"},
		{"url without user info", "postgres://db/habits", "postgres://db/habits"},
		{"dsn with password", "host=db user=bob password=secret dbname=habits", "host=db user=bob password=**** dbname=habits"},
		{"dsn without password", "host=db user=bob", "host=db user=bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskPassword(tt.in); got != tt.want {
				t.Errorf("maskPassword(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyringCommands(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)

	if err := (&KeyringGetCmd{}).Run(env.Ctx); err == nil {
		t.Error("get should fail when nothing is stored")
	}

	set := &KeyringSetCmd{ConnectionString: "postgres://bob:secret@db:5432/habits"}
	if err := set.Run(env.Ctx); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	env.Output()

	if err := (&KeyringGetCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out := env.Output(); strings.Contains(out, "secret") || !strings.Contains(out, "****") {
		t.Errorf("password should be masked: %q", out)
	}

	if err := (&KeyringStatusCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Connection string is stored") {
		t.Errorf("unexpected status output: %q", out)
	}

	if err := (&KeyringDeleteCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(env.Ctx); err == nil {
		t.Error("second delete should fail")
	}
}

func TestKeyringSetRejectsNonPostgres(t *testing.T) {
	gokeyring.MockInit()
	env := clitest.New(t)
	if err := (&KeyringSetCmd{ConnectionString: "/tmp/habits.db"}).Run(env.Ctx); err == nil {
		t.Error("expected an error for a file path")
	}
}

func TestValidate(t *testing.T) {
	env := clitest.New(t)
	env.Seed(t,
		models.Habit{Name: "Gym", Category: models.CategoryHealth},
		models.Habit{Name: "gym", Category: models.CategoryHealth},
	)

	if err := (&ValidateCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	out := env.Output()
	if !strings.Contains(out, "Validating 2 habits") || !strings.Contains(out, "Conflicts detected:") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDebugCommands(t *testing.T) {
	env := clitest.New(t)
	seeded := env.Seed(t, models.Habit{Name: "Gym", Category: models.CategoryHealth, CompletedDates: []string{clitest.Today}, Streak: 1})

	if err := (&DebugDBPathCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("db-path failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, `"backend": "sqlite"`) || !strings.Contains(out, env.Ctx.Docs.GetConfigPath()) {
		t.Errorf("unexpected db-path output:\n%s", out)
	}

	if err := (&DebugDumpHabitCmd{Habit: "GYM"}).Run(env.Ctx); err != nil {
		t.Fatalf("dump-habit failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, seeded[0].ID) || !strings.Contains(out, clitest.Today) {
		t.Errorf("unexpected dump-habit output:\n%s", out)
	}

	if err := (&DebugDumpHabitCmd{Habit: "missing"}).Run(env.Ctx); err == nil {
		t.Error("dump-habit should fail for an unknown habit")
	}

	if err := (&DebugDumpStatsCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("dump-stats failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, `"totalCompletedToday": 1`) {
		t.Errorf("unexpected dump-stats output:\n%s", out)
	}
}
