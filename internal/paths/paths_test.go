package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDefaultDir(t *testing.T) {
	root := t.TempDir()

	inst, err := Resolve("1.20", root, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	expected := filepath.Join(root, "mc-1.20")
	if inst.Dir != expected {
		t.Fatalf("expected dir %s, got %s", expected, inst.Dir)
	}
	if inst.Jar != filepath.Join(expected, "server.jar") {
		t.Fatalf("unexpected jar path %s", inst.Jar)
	}
	if inst.Properties != filepath.Join(expected, "server.properties") {
		t.Fatalf("unexpected properties path %s", inst.Properties)
	}
}

func TestResolveExplicitRelative(t *testing.T) {
	root := t.TempDir()

	inst, err := Resolve("1.20", root, "servers/custom")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	expected := filepath.Join(root, "servers", "custom")
	if inst.Dir != expected {
		t.Fatalf("expected dir %s, got %s", expected, inst.Dir)
	}
}

func TestResolveExplicitAbsolute(t *testing.T) {
	root := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "elsewhere")

	inst, err := Resolve("1.20", root, explicit)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inst.Dir != explicit {
		t.Fatalf("expected dir %s, got %s", explicit, inst.Dir)
	}
}

func TestPopulatedHeuristic(t *testing.T) {
	root := t.TempDir()
	inst, err := Resolve("1.20", root, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if ok, err := inst.Populated(); err != nil || ok {
		t.Fatalf("missing dir: expected not populated, got %v (%v)", ok, err)
	}

	if err := inst.EnsureDir(); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if err := os.WriteFile(inst.Jar, []byte("jar"), 0o644); err != nil {
		t.Fatalf("write jar: %v", err)
	}
	if ok, _ := inst.Populated(); ok {
		t.Fatal("single entry should not count as populated")
	}

	if err := os.WriteFile(inst.Eula, []byte("eula=true"), 0o644); err != nil {
		t.Fatalf("write eula: %v", err)
	}
	if ok, _ := inst.Populated(); !ok {
		t.Fatal("two entries should count as populated")
	}
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if ok, err := FileExists(file); err != nil || !ok {
		t.Fatalf("expected file to exist: %v %v", ok, err)
	}
	if ok, _ := FileExists(dir); ok {
		t.Fatal("directory reported as file")
	}
	if ok, err := DirExists(dir); err != nil || !ok {
		t.Fatalf("expected dir to exist: %v %v", ok, err)
	}
	if ok, _ := DirExists(filepath.Join(dir, "missing")); ok {
		t.Fatal("missing dir reported as existing")
	}
}
