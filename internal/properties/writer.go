package properties

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	mprops "github.com/magiconair/properties"
	"go.uber.org/zap"

	"mcserver/internal/paths"
)

// Marker starts the section of server.properties owned by mcserver.
// Everything after it is rewritten on every Configure.
const Marker = "## mcserver options"

// Default values appended when the caller does not set them.
const (
	DefaultPort       = 25565
	DefaultOnlineMode = false
)

// JVMArgs are the heap flags every server invocation starts with.
var JVMArgs = []string{"-Xms512M", "-Xmx1024M"}

// controlKeys select where the installation lives and are never persisted.
var controlKeys = map[string]bool{"path": true, "root": true}

// BootstrapError reports a first run that did not produce server.properties.
type BootstrapError struct {
	Dir    string
	Stderr string
	Err    error
}

func (e *BootstrapError) Error() string {
	msg := fmt.Sprintf("bootstrap server in %s: no %s generated", e.Dir, paths.PropertiesName)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// Writer maintains server.properties and eula.txt for an installation.
type Writer struct {
	runner  Runner
	javaBin string
	logger  *zap.Logger
}

// NewWriter returns a Writer that bootstraps with javaBin through runner.
func NewWriter(runner Runner, javaBin string, logger *zap.Logger) *Writer {
	if runner == nil {
		runner = ExecRunner{}
	}
	if javaBin == "" {
		javaBin = "java"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{runner: runner, javaBin: javaBin, logger: logger}
}

// Configure makes sure server.properties exists, accepts the EULA on first
// run, and rewrites the managed section from opts.
func (w *Writer) Configure(ctx context.Context, inst paths.Installation, opts *Options) error {
	exists, err := paths.FileExists(inst.Properties)
	if err != nil {
		return fmt.Errorf("stat %s: %w", paths.PropertiesName, err)
	}
	if !exists {
		if err := w.bootstrap(ctx, inst); err != nil {
			return err
		}
	}

	current, err := os.ReadFile(inst.Properties)
	if err != nil {
		return fmt.Errorf("read %s: %w", paths.PropertiesName, err)
	}
	section, err := managedSection(opts)
	if err != nil {
		return err
	}
	updated := Merge(current, section)
	if err := os.WriteFile(inst.Properties, updated, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", paths.PropertiesName, err)
	}
	w.logger.Debug("wrote server properties", zap.String("path", inst.Properties), zap.Int("options", opts.Len()))
	return nil
}

func (w *Writer) bootstrap(ctx context.Context, inst paths.Installation) error {
	if err := os.Remove(inst.Eula); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", paths.EulaName, err)
	}

	w.logger.Info("generating default server configuration", zap.String("dir", inst.Dir))
	args := append(append([]string(nil), JVMArgs...), "-jar", paths.JarName)
	res, runErr := w.runner.Run(ctx, w.javaBin, args, RunOptions{Dir: inst.Dir})

	exists, err := paths.FileExists(inst.Properties)
	if err != nil {
		return fmt.Errorf("stat %s: %w", paths.PropertiesName, err)
	}
	if !exists {
		return &BootstrapError{Dir: inst.Dir, Stderr: strings.TrimSpace(string(res.Stderr)), Err: runErr}
	}
	if runErr != nil {
		w.logger.Debug("bootstrap run exited with error", zap.Error(runErr))
	}

	w.logger.Info("accepting EULA", zap.String("path", inst.Eula))
	if err := os.WriteFile(inst.Eula, []byte("eula=true"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", paths.EulaName, err)
	}
	return nil
}

func managedSection(opts *Options) ([]Option, error) {
	out := []Option{{Key: "allow-cheats", Value: "true"}}
	for _, it := range opts.Items() {
		if controlKeys[it.Key] {
			continue
		}
		v, err := FormatValue(it.Value)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", it.Key, err)
		}
		out = append(out, Option{Key: it.Key, Value: v})
	}
	if !opts.Has("server-port") {
		out = append(out, Option{Key: "server-port", Value: fmt.Sprint(DefaultPort)})
	}
	if !opts.Has("online-mode") {
		out = append(out, Option{Key: "online-mode", Value: fmt.Sprint(DefaultOnlineMode)})
	}
	return out, nil
}

// Merge cuts current at Marker, trims trailing whitespace from the
// remaining prefix, and appends a fresh managed section. Values in section
// must already be formatted strings.
func Merge(current []byte, section []Option) []byte {
	prefix := current
	if i := bytes.Index(current, []byte(Marker)); i >= 0 {
		prefix = current[:i]
	}
	prefix = bytes.TrimRight(prefix, " \t\r\n")

	var buf bytes.Buffer
	buf.Write(prefix)
	buf.WriteString("\n" + Marker)
	for _, it := range section {
		fmt.Fprintf(&buf, "\n%s=%v", it.Key, it.Value)
	}
	return buf.Bytes()
}

// Effective parses server.properties and returns the values the server
// will see. Later keys win, so the managed section overrides the prefix.
func Effective(inst paths.Installation) (map[string]string, error) {
	data, err := os.ReadFile(inst.Properties)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", paths.PropertiesName, err)
	}
	loader := mprops.Loader{Encoding: mprops.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", paths.PropertiesName, err)
	}
	return p.Map(), nil
}

// ManagedSection returns the key/value lines after Marker, in file order.
func ManagedSection(data []byte) []string {
	i := bytes.Index(data, []byte(Marker))
	if i < 0 {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data[i+len(Marker):]), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
