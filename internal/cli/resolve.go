package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcserver/internal/catalog"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [version]",
		Short: `Resolve "latest", "snapshot" or an id to a manifest entry`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runResolve,
	}
}

type resolveOutput struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Released  string `json:"released"`
	ServerURL string `json:"server_url"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	token := catalog.TokenLatest
	if len(args) == 1 {
		token = args[0]
	}

	rt, err := loadRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()
	entry, err := rt.session.Catalog().Resolve(ctx, token)
	if err != nil {
		return err
	}
	meta, err := rt.session.Catalog().Metadata(ctx, entry.ID)
	if err != nil {
		return err
	}

	out := resolveOutput{
		ID:        entry.ID,
		Type:      string(entry.Type),
		Released:  entry.ReleaseTime.Format("2006-01-02"),
		ServerURL: meta.ServerURL,
		SHA1:      meta.ServerSHA1,
		Size:      meta.ServerSize,
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s, released %s)\n", out.ID, out.Type, out.Released)
	fmt.Fprintf(w, "server: %s\n", out.ServerURL)
	return nil
}
