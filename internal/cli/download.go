package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mcserver/internal/catalog"
	"mcserver/internal/install"
	"mcserver/internal/paths"
	"mcserver/internal/server"
	"mcserver/internal/tui"
)

var (
	downloadPath string
	downloadRoot string
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [version...]",
		Short: "Download (but do not run) server jars",
		Long: `Download server jars into <root>/mc-<version>. Versions may be ids or the
tokens "latest" and "snapshot"; the default is latest. An installation that
already holds files is left untouched.`,
		RunE: runDownload,
	}
	cmd.Flags().StringVar(&downloadPath, "path", "", "Custom server directory (only with a single version)")
	cmd.Flags().StringVar(&downloadRoot, "root", "", "Directory installations live under (default from config)")
	return cmd
}

type downloadOutcome struct {
	Token   string `json:"token"`
	Version string `json:"version,omitempty"`
	Path    string `json:"path,omitempty"`
	Status  string `json:"status"`
	Size    string `json:"size,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runDownload(cmd *cobra.Command, args []string) error {
	tokens := args
	if len(tokens) == 0 {
		tokens = []string{catalog.TokenLatest}
	}
	if downloadPath != "" && len(tokens) > 1 {
		return fmt.Errorf("--path can only be used with a single version")
	}

	rt, err := loadRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	opts := server.StartOptions{Path: downloadPath, Root: downloadRoot}
	if opts.Root == "" {
		opts.Root = rt.cfg.Root
	}
	ctx := cmd.Context()

	switch tui.DetectMode(cmd.OutOrStdout(), plainOut, outputJSON) {
	case tui.ModeTUI:
		return downloadWithTable(ctx, cmd, rt, tokens, opts)
	case tui.ModeJSON:
		outcomes, err := downloadAll(ctx, rt, tokens, opts, func(downloadOutcome) {})
		if werr := writeJSON(cmd.OutOrStdout(), outcomes); werr != nil {
			return werr
		}
		return err
	default:
		_, err := downloadAll(ctx, rt, tokens, opts, func(o downloadOutcome) {
			if o.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-10s %s\n", o.Token, o.Status, o.Error)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-10s %s\n", o.Version, o.Status, o.Path)
		})
		return err
	}
}

// downloadAll downloads tokens one after the other. Every outcome is
// reported; the first error is returned after all tokens were tried.
func downloadAll(ctx context.Context, rt *runtime, tokens []string, opts server.StartOptions, report func(downloadOutcome)) ([]downloadOutcome, error) {
	var (
		outcomes []downloadOutcome
		firstErr error
	)
	for _, token := range tokens {
		o := downloadOne(ctx, rt, token, opts)
		if o.Status == "error" && firstErr == nil {
			firstErr = fmt.Errorf("download %s: %s", token, o.Error)
		}
		report(o)
		outcomes = append(outcomes, o)
	}
	return outcomes, firstErr
}

func downloadOne(ctx context.Context, rt *runtime, token string, opts server.StartOptions) downloadOutcome {
	o := downloadOutcome{Token: token}
	res, err := rt.session.Download(ctx, token, opts)
	if err != nil {
		o.Status = "error"
		o.Error = err.Error()
		return o
	}
	o.Version, o.Path = res.Version, res.Path
	o.Status = "cached"
	if res.Downloaded {
		o.Status = "downloaded"
	}
	o.Size = jarSize(res)
	return o
}

func jarSize(res install.Result) string {
	inst, err := paths.Resolve(res.Version, "", res.Path)
	if err != nil {
		return ""
	}
	size, err := paths.FileSize(inst.Jar)
	if err != nil {
		return ""
	}
	return humanize.Bytes(uint64(size))
}

func downloadWithTable(ctx context.Context, cmd *cobra.Command, rt *runtime, tokens []string, opts server.StartOptions) error {
	model := tui.NewTableModel("mcserver download", "Downloading",
		tui.Column{Header: "VERSION", Width: 10},
		tui.Column{Header: "STATUS", Width: 11},
		tui.Column{Header: "SIZE", Width: 8},
		tui.Column{Header: "PATH", Width: 40},
	)
	for _, token := range tokens {
		model.AddRow(token, token, "pending")
	}

	var firstErr error
	err := tui.RunTable(cmd.InOrStdin(), cmd.OutOrStdout(), model, func(send func(tea.Msg)) error {
		for _, token := range tokens {
			send(tui.SetFieldsMsg{Key: token, Fields: map[string]string{"STATUS": "downloading"}})
			o := downloadOne(ctx, rt, token, opts)
			fields := map[string]string{"STATUS": o.Status, "SIZE": tui.NonEmptyOrDash(o.Size), "PATH": tui.NonEmptyOrDash(o.Path)}
			if o.Version != "" {
				fields["VERSION"] = o.Version
			}
			if o.Error != "" {
				fields["PATH"] = o.Error
				if firstErr == nil {
					firstErr = fmt.Errorf("download %s: %s", token, o.Error)
				}
			}
			send(tui.SetFieldsMsg{Key: token, Fields: fields})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return firstErr
}
