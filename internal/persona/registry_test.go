package persona

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writePersona(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "nova.yaml", "name: Nova\nprompt: You are Nova.\n")
	writePersona(t, dir, "sage.yaml", "name: Sage\ndescription: calm mentor\nprompt: You are Sage.\n")
	writePersona(t, dir, "notes.txt", "not a persona")

	r, err := LoadDir(dir, "Nova", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.System(); !reflect.DeepEqual(got, []string{"Nova", "Sage"}) {
		t.Errorf("System() = %v", got)
	}

	p, ok := r.Get("u1", "Sage")
	if !ok || p.Prompt != "You are Sage." {
		t.Errorf("Get(Sage) = %+v ok=%v", p, ok)
	}
}

func TestLoadDir_NameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "Echo.yaml", "prompt: You are Echo.\n")

	r, err := LoadDir(dir, "Echo", 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("u1", "Echo"); !ok {
		t.Error("persona named after file should exist")
	}
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	r, err := LoadDir(filepath.Join(t.TempDir(), "nope"), "Nova", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.System()) != 0 {
		t.Errorf("System() = %v, want empty", r.System())
	}
}

func TestSelectAndActiveFor(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "nova.yaml", "name: Nova\nprompt: You are Nova.\n")
	writePersona(t, dir, "sage.yaml", "name: Sage\nprompt: You are Sage.\n")

	r, err := LoadDir(dir, "Nova", 5)
	if err != nil {
		t.Fatal(err)
	}

	// Default applies before any selection.
	if got := r.ActiveFor("u1"); got.Name != "Nova" {
		t.Errorf("default active = %s, want Nova", got.Name)
	}

	if err := r.Select("u1", "Sage"); err != nil {
		t.Fatal(err)
	}
	if got := r.ActiveFor("u1"); got.Name != "Sage" {
		t.Errorf("active = %s, want Sage", got.Name)
	}

	if err := r.Select("u1", "Ghost"); !errors.Is(err, ErrUnknown) {
		t.Errorf("unknown persona: got %v, want ErrUnknown", err)
	}
}

func TestCustomPersonaCap(t *testing.T) {
	r, err := LoadDir(filepath.Join(t.TempDir(), "none"), "Nova", 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.AddCustom("u1", Persona{Name: "A", Prompt: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddCustom("u1", Persona{Name: "B", Prompt: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddCustom("u1", Persona{Name: "C", Prompt: "c"}); !errors.Is(err, ErrCustomLimit) {
		t.Errorf("over cap: got %v, want ErrCustomLimit", err)
	}

	// Overwriting an existing custom stays within the cap.
	if err := r.AddCustom("u1", Persona{Name: "B", Prompt: "b2"}); err != nil {
		t.Errorf("overwrite: %v", err)
	}

	// The cap is per user.
	if err := r.AddCustom("u2", Persona{Name: "C", Prompt: "c"}); err != nil {
		t.Errorf("other user: %v", err)
	}
}

func TestRemoveCustomClearsSelection(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "nova.yaml", "name: Nova\nprompt: You are Nova.\n")

	r, err := LoadDir(dir, "Nova", 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AddCustom("u1", Persona{Name: "Mine", Prompt: "custom"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Select("u1", "Mine"); err != nil {
		t.Fatal(err)
	}

	if !r.RemoveCustom("u1", "Mine") {
		t.Fatal("RemoveCustom should report true")
	}
	if got := r.ActiveFor("u1"); got.Name != "Nova" {
		t.Errorf("active after removal = %s, want default Nova", got.Name)
	}
	if r.RemoveCustom("u1", "Mine") {
		t.Error("second removal should report false")
	}
}
