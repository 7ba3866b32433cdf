package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mcserver/internal/catalog"
	"mcserver/internal/properties"
	"mcserver/internal/server"
	"mcserver/internal/supervisor"
	"mcserver/internal/tui"
)

var (
	startVersion string
	startPort    int
	startOnline  bool
	startPath    string
	startRoot    string
	startDump    string
	startWait    time.Duration
	startTimeout time.Duration
	startRetry   bool
	startSet     []string
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Download, configure and run a server",
		Long: `Start a server, downloading and configuring it first if needed.

With --wait the command blocks until the server reports it is ready and
fails if that takes longer than the given duration; --retry erases the
installation and tries once more after a failure. Without --wait the
server's console is attached to this terminal.`,
		Args: cobra.NoArgs,
		RunE: runStart,
	}

	cmd.Flags().StringVarP(&startVersion, "version", "v", catalog.TokenLatest, `Version to run ("latest", "snapshot" or an id)`)
	cmd.Flags().IntVar(&startPort, "port", properties.DefaultPort, "Port to listen on for IPv4")
	cmd.Flags().BoolVar(&startOnline, "online", false, "Run in online mode")
	cmd.Flags().StringVar(&startPath, "path", "", "Custom server directory")
	cmd.Flags().StringVar(&startRoot, "root", "", "Directory installations live under (default from config)")
	cmd.Flags().StringVar(&startDump, "dump-registries", "", "Run all data generators and write them to this path")
	cmd.Flags().DurationVar(&startWait, "wait", 0, "Wait up to this long for the server to become ready")
	cmd.Flags().DurationVar(&startTimeout, "timeout", 0, "Kill the server after this long")
	cmd.Flags().BoolVar(&startRetry, "retry", false, "Retry once from a clean download if startup fails (needs --wait)")
	cmd.Flags().StringArrayVar(&startSet, "set", nil, "Extra server.properties entry key=value (repeatable)")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	if startRetry && startWait <= 0 {
		return fmt.Errorf("--retry requires --wait")
	}

	props := properties.NewOptions(
		properties.Option{Key: "server-port", Value: startPort},
		properties.Option{Key: "online-mode", Value: startOnline},
	)
	for _, raw := range startSet {
		key, value, err := parseSet(raw)
		if err != nil {
			return err
		}
		props.Set(key, value)
	}

	var line *tui.PhaseLine
	var onPhase server.PhaseFunc
	if startWait > 0 && tui.DetectMode(cmd.ErrOrStderr(), plainOut, outputJSON) == tui.ModeTUI {
		line = tui.NewPhaseLine(cmd.ErrOrStderr())
		defer line.Stop()
		onPhase = func(ev server.Event) {
			detail := ev.Version
			if ev.Attempt > 1 {
				detail = fmt.Sprintf("%s (attempt %d)", ev.Version, ev.Attempt)
			}
			if ev.Phase.Terminal() {
				line.Println(tui.StatusStyle(string(ev.Phase)).Render(string(ev.Phase)) + " " + detail)
				return
			}
			line.Set(string(ev.Phase), detail)
		}
	}

	rt, err := loadRuntime(cmd, onPhase)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := server.StartOptions{
		Path:           startPath,
		Root:           startRoot,
		Timeout:        startTimeout,
		DumpRegistries: startDump,
		Properties:     props,
	}
	if opts.Root == "" {
		opts.Root = rt.cfg.Root
	}
	if startDump != "" && !outputJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "Registries dumping to %s\n", startDump)
	}

	ctx := cmd.Context()
	var h *supervisor.Handle
	switch {
	case startWait <= 0:
		h, err = rt.session.StartServer(ctx, startVersion, nil, opts)
	case startRetry:
		h, err = rt.session.StartServerAndWaitRetry(ctx, startVersion, startWait, opts)
	default:
		h, err = rt.session.StartServerAndWait(ctx, startVersion, startWait, opts)
	}
	if err != nil {
		return err
	}
	if line != nil {
		line.Stop()
	}

	if startWait > 0 {
		if outputJSON {
			if err := writeJSON(cmd.OutOrStdout(), map[string]any{"pid": h.PID(), "ready": true}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "server ready (pid %d)\n", h.PID())
		}
	}

	err = h.Wait()
	if ctx.Err() != nil || h.Killed() {
		return nil
	}
	if err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

// parseSet splits key=value and types the value the way the properties
// file expects it: booleans, integers and floats stay typed.
func parseSet(raw string) (string, any, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set %q: want key=value", raw)
	}
	value = strings.TrimSpace(value)
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return key, b, nil
	}
	if i, err := strconv.Atoi(value); err == nil {
		return key, i, nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && strings.Contains(value, ".") {
		return key, f, nil
	}
	return key, value, nil
}
