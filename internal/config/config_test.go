package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcserver/internal/catalog"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JAVA_BIN", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "mcserver.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JavaBin != "java" {
		t.Fatalf("expected default java bin, got %q", cfg.JavaBin)
	}
	if cfg.DownloadTimeout != 20*time.Second {
		t.Fatalf("expected 20s download timeout, got %s", cfg.DownloadTimeout)
	}
	if cfg.Retry.Attempts != 2 || cfg.Retry.Cooldown != 10*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.ManifestURL != catalog.DefaultManifestURL {
		t.Fatalf("unexpected manifest url %q", cfg.ManifestURL)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Setenv("JAVA_BIN", "")
	path := filepath.Join(t.TempDir(), "mcserver.yaml")
	contents := `java_bin: /opt/jdk/bin/java
root: /srv/minecraft
download_timeout: 45s
retry:
  attempts: 1
  cooldown: 2s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JavaBin != "/opt/jdk/bin/java" {
		t.Fatalf("expected java bin override, got %q", cfg.JavaBin)
	}
	if cfg.Root != "/srv/minecraft" {
		t.Fatalf("expected root override, got %q", cfg.Root)
	}
	if cfg.DownloadTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.DownloadTimeout)
	}
	if cfg.Retry.Attempts != 1 || cfg.Retry.Cooldown != 2*time.Second {
		t.Fatalf("unexpected retry config: %+v", cfg.Retry)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JAVA_BIN", "/usr/lib/jvm/bin/java")
	t.Setenv("MCSERVER_ROOT", "/tmp/servers")
	t.Setenv("MCSERVER_RETRY_COOLDOWN", "3s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JavaBin != "/usr/lib/jvm/bin/java" {
		t.Fatalf("expected JAVA_BIN to apply, got %q", cfg.JavaBin)
	}
	if cfg.Root != "/tmp/servers" {
		t.Fatalf("expected MCSERVER_ROOT to apply, got %q", cfg.Root)
	}
	if cfg.Retry.Cooldown != 3*time.Second {
		t.Fatalf("expected cooldown 3s, got %s", cfg.Retry.Cooldown)
	}
}

func TestLoadIgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("JAVA_BIN", "")
	for _, key := range []string{"ROOT", "LEVEL", "FORMAT", "FILE", "ATTEMPTS", "COOLDOWN", "MANIFEST_URL", "DOWNLOAD_TIMEOUT"} {
		t.Setenv(key, "")
	}
	t.Setenv("ROOT", "/somewhere/else")
	t.Setenv("LEVEL", "error")
	t.Setenv("ATTEMPTS", "1")

	path := filepath.Join(t.TempDir(), "mcserver.yaml")
	contents := "java_bin: /opt/jdk/bin/java\nroot: /srv/minecraft\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JavaBin != "/opt/jdk/bin/java" {
		t.Fatalf("empty JAVA_BIN must not override, got %q", cfg.JavaBin)
	}
	if cfg.Root != "/srv/minecraft" {
		t.Fatalf("bare ROOT must not override, got %q", cfg.Root)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("bare LEVEL must not override, got %q", cfg.Logging.Level)
	}
	if cfg.Retry.Attempts != 2 {
		t.Fatalf("bare ATTEMPTS must not override, got %d", cfg.Retry.Attempts)
	}
}

func TestLoadPrefixedMultiWordEnv(t *testing.T) {
	t.Setenv("JAVA_BIN", "")
	t.Setenv("MCSERVER_JAVA_BIN", "/opt/java")
	t.Setenv("MCSERVER_DOWNLOAD_TIMEOUT", "5s")
	t.Setenv("MCSERVER_MANIFEST_URL", "http://127.0.0.1:9/manifest.json")
	t.Setenv("MCSERVER_LOGGING_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JavaBin != "/opt/java" {
		t.Fatalf("expected MCSERVER_JAVA_BIN, got %q", cfg.JavaBin)
	}
	if cfg.DownloadTimeout != 5*time.Second {
		t.Fatalf("expected MCSERVER_DOWNLOAD_TIMEOUT, got %s", cfg.DownloadTimeout)
	}
	if cfg.ManifestURL != "http://127.0.0.1:9/manifest.json" {
		t.Fatalf("expected MCSERVER_MANIFEST_URL, got %q", cfg.ManifestURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected MCSERVER_LOGGING_LEVEL, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("JAVA_BIN", "")
	path := filepath.Join(t.TempDir(), "mcserver.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  attempts: 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for attempts=5")
	}
}

func TestValidateMessages(t *testing.T) {
	cfg := Default()
	cfg.ManifestURL = "not a url"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"ManifestURL", "Format"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestCheckWarnsOnMissingRoot(t *testing.T) {
	cfg := Default()
	cfg.Root = filepath.Join(t.TempDir(), "missing")

	results := cfg.Check()
	if HasErrors(results) {
		t.Fatalf("expected warnings only, got %v", results)
	}
	found := false
	for _, r := range results {
		if r.Level == "warning" && strings.Contains(r.Message, "does not exist") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing root warning, got %v", results)
	}
}
