package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// ReadyLine is what a real server prints once it accepts connections.
const ReadyLine = `[12:00:00] [Server thread/INFO]: Done (1.234s)! For help, type "help"`

// JavaBehavior shapes the fake java script.
type JavaBehavior struct {
	// ReadyAfter delays the readiness line. Negative never prints it.
	ReadyAfter time.Duration
	// ExitCode, when non-zero, makes a normal (non-bootstrap) run exit
	// immediately with that code.
	ExitCode int
	// FailBootstrap makes the first-run bootstrap exit 1 without writing files.
	FailBootstrap bool
	// FailIfPresent names a file that, when present in the working
	// directory, makes a normal run exit 1 before becoming ready.
	FailIfPresent string
}

// FakeJava writes an executable script standing in for java and returns its
// path. Each invocation appends its arguments to args.log in the working
// directory. Skips the test on Windows.
func FakeJava(t *testing.T, b JavaBehavior) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake java script requires a POSIX shell")
	}

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	script.WriteString("echo \"$@\" >> args.log\n")
	script.WriteString("if [ ! -f server.properties ]; then\n")
	if b.FailBootstrap {
		script.WriteString("  echo 'Error: Unable to access jarfile server.jar' >&2\n  exit 1\n")
	} else {
		script.WriteString("  printf '#Minecraft server properties\\nmotd=A Minecraft Server\\nserver-port=25565\\n' > server.properties\n")
		script.WriteString("  echo 'eula=false' > eula.txt\n")
		script.WriteString("  echo '[12:00:00] [main/WARN]: Failed to load eula.txt'\n  exit 0\n")
	}
	script.WriteString("fi\n")
	if b.FailIfPresent != "" {
		fmt.Fprintf(&script, "if [ -e '%s' ]; then\n  echo 'Failed to load level' >&2\n  exit 1\nfi\n", b.FailIfPresent)
	}
	script.WriteString("echo '[12:00:00] [Server thread/INFO]: Starting minecraft server'\n")
	script.WriteString("echo '[12:00:00] [Server thread/WARN]: preparing level' >&2\n")
	if b.ExitCode != 0 {
		fmt.Fprintf(&script, "exit %d\n", b.ExitCode)
	}
	if b.ReadyAfter >= 0 {
		if b.ReadyAfter > 0 {
			fmt.Fprintf(&script, "sleep %.3f\n", b.ReadyAfter.Seconds())
		}
		// Split the marker across two writes.
		script.WriteString("printf '[12:00:00] [Server thread/INFO]:'\n")
		fmt.Fprintf(&script, "printf '%s\\n'\n", strings.TrimPrefix(ReadyLine, "[12:00:00] [Server thread/INFO]:"))
	}
	script.WriteString("exec sleep 30\n")

	path := filepath.Join(t.TempDir(), "java")
	if err := os.WriteFile(path, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("write fake java: %v", err)
	}
	return path
}

// RequireClosed waits for ch to close (or deliver) within timeout.
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for channel close: %s", timeout, msg)
	}
}
