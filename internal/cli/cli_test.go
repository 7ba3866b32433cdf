package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcserver/internal/testutil"
)

type cliEnv struct {
	up     *testutil.Upstream
	config string
	root   string
}

func newCLIEnv(t *testing.T, java testutil.JavaBehavior) *cliEnv {
	t.Helper()
	t.Setenv("MCSERVER_LOGGING_LEVEL", "error")

	up := testutil.NewUpstream(t, "1.20", "1.19")
	bin := testutil.FakeJava(t, java)
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "mcserver.yaml")
	cfg := fmt.Sprintf("java_bin: %s\nroot: %s\nmanifest_url: %s\nretry:\n  attempts: 2\n  cooldown: 10ms\n", bin, root, up.ManifestURL())
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return &cliEnv{up: up, config: cfgPath, root: root}
}

// run executes the root command and returns stdout and stderr.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &testutil.SyncBuffer{}, &testutil.SyncBuffer{}
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionsJSON(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "versions", "--json", "-n", "2")
	require.NoError(t, err)

	var got []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, testutil.SnapshotID, got[0].ID)
	assert.Equal(t, "1.20", got[1].ID)
}

func TestVersionsTable(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "versions", "--plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "VERSION"))
	assert.Contains(t, out, "1.19")
	assert.Contains(t, out, "release")
}

func TestResolveLatest(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "resolve", "--json")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.20", got.ID)
	assert.Equal(t, "release", got.Type)
	assert.Equal(t, env.up.Server.URL+"/jar/1.20/server.jar", got.ServerURL)
	assert.NotEmpty(t, got.SHA1)
}

func TestResolveUnknown(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	_, _, err := env.run(t, "resolve", "0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0.0.1")
}

func TestDownloadPlain(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "download", "--plain", "snapshot", "1.19")
	require.NoError(t, err)
	assert.Contains(t, out, "downloaded")
	assert.FileExists(t, filepath.Join(env.root, "mc-"+testutil.SnapshotID, "server.jar"))
	assert.FileExists(t, filepath.Join(env.root, "mc-1.19", "server.jar"))
	assert.Equal(t, 1, env.up.JarHits("1.19"))
}

func TestDownloadJSONReportsEveryToken(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "download", "--json", testutil.NoServerID, "1.20")
	require.Error(t, err)

	var got []downloadOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "error", got[0].Status)
	assert.NotEmpty(t, got[0].Error)
	assert.Equal(t, "downloaded", got[1].Status)
	assert.Equal(t, "1.20", got[1].Version)
	assert.NotEmpty(t, got[1].Size)
}

func TestDownloadPathNeedsSingleVersion(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	_, _, err := env.run(t, "download", "--path", "custom", "1.19", "1.20")
	require.Error(t, err)
	assert.Zero(t, env.up.JarHits("1.19"))
}

func TestStartWaitRunsUntilTimeout(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	start := time.Now()
	out, errOut, err := env.run(t, "start", "--plain", "-v", "1.19", "--wait", "10s", "--timeout", "1s", "--port", "25570")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	assert.Contains(t, out, testutil.ReadyLine)
	assert.Contains(t, errOut, "server ready (pid ")

	props, err := os.ReadFile(filepath.Join(env.root, "mc-1.19", "server.properties"))
	require.NoError(t, err)
	assert.Contains(t, string(props), "## mcserver options\nallow-cheats=true\nserver-port=25570\nonline-mode=false")
}

func TestStartRetryNeedsWait(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	_, _, err := env.run(t, "start", "--retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--retry requires --wait")
	assert.Zero(t, env.up.Hits("/manifest.json"))
}

func TestStartWaitReportsExit(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{ExitCode: 3})

	_, _, err := env.run(t, "start", "--plain", "--wait", "5s")
	require.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest_url: "+env.up.ManifestURL())
	assert.Contains(t, out, "level: error")
}

func TestConfigCheck(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})

	out, _, err := env.run(t, "config", "check", "--json")
	require.NoError(t, err)

	var got checkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.OK)
	assert.Equal(t, env.config, got.Config)
}

func TestConfigCheckReportsErrors(t *testing.T) {
	env := newCLIEnv(t, testutil.JavaBehavior{})
	require.NoError(t, os.WriteFile(env.config, []byte("manifest_url: not a url\nretry:\n  attempts: 5\n"), 0o644))

	out, _, err := env.run(t, "config", "check", "--plain")
	require.Error(t, err)
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "ManifestURL")
}

func TestParseSet(t *testing.T) {
	cases := []struct {
		raw   string
		key   string
		value any
	}{
		{"pvp=false", "pvp", false},
		{"max-players=8", "max-players", 8},
		{"spawn-ratio=0.5", "spawn-ratio", 0.5},
		{"motd=Hello there", "motd", "Hello there"},
		{" level-seed = 1e3 ", "level-seed", "1e3"},
		{"motd=", "motd", ""},
	}
	for _, tc := range cases {
		key, value, err := parseSet(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.key, key, tc.raw)
		assert.Equal(t, tc.value, value, tc.raw)
	}

	for _, raw := range []string{"novalue", "=x"} {
		_, _, err := parseSet(raw)
		assert.Error(t, err, raw)
	}
}

func TestWriteJSONEndsWithNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
}
