package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitflow/internal/cli/clitest"
)

func TestLoginLogout(t *testing.T) {
	env := clitest.New(t)

	if err := (&LoginCmd{Name: "  Ada  "}).Run(env.Ctx); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Welcome, Ada!") {
		t.Errorf("unexpected output: %q", out)
	}

	if err := (&LogoutCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Goodbye, Ada.") {
		t.Errorf("unexpected output: %q", out)
	}
	if _, ok := env.Ctx.Session.DisplayName(); ok {
		t.Error("display name should be cleared")
	}

	if err := (&LogoutCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "Not logged in.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLoginRejectsBlankName(t *testing.T) {
	env := clitest.New(t)
	if err := (&LoginCmd{Name: " "}).Run(env.Ctx); err == nil {
		t.Error("expected an error for a blank name")
	}
}

func TestProfileShowAndPhoto(t *testing.T) {
	env := clitest.New(t)

	if err := (&ProfileShowCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, "(not logged in)") || !strings.Contains(out, "(none)") {
		t.Errorf("unexpected output: %q", out)
	}

	img := filepath.Join(env.Dir, "me.png")
	if err := os.WriteFile(img, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := (&ProfilePhotoCmd{Path: img}).Run(env.Ctx); err != nil {
		t.Fatalf("photo failed: %v", err)
	}
	env.Output()

	if err := (&ProfileShowCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if out := env.Output(); !strings.Contains(out, img) {
		t.Errorf("profile should show the image path:\n%s", out)
	}
}

func TestProfilePhotoMissingFile(t *testing.T) {
	env := clitest.New(t)
	if err := (&ProfilePhotoCmd{Path: filepath.Join(env.Dir, "missing.png")}).Run(env.Ctx); err == nil {
		t.Error("expected an error for a missing file")
	}
}
