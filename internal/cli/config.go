package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mcserver/internal/config"
	"mcserver/internal/tui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect mcserver configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and the local environment",
		Args:  cobra.NoArgs,
		RunE:  runConfigCheck,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

type checkOutput struct {
	Config  string                    `json:"config"`
	OK      bool                      `json:"ok"`
	Results []config.ValidationResult `json:"results"`
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	path := resolveConfigPath()
	var results []config.ValidationResult

	// Validation runs inside Check so every finding is reported together.
	cfg, err := config.LoadUnvalidated(path)
	if err != nil {
		results = append(results, config.ValidationResult{Level: "error", Message: err.Error()})
	} else {
		results = append(results, cfg.Check()...)
	}
	failed := config.HasErrors(results)

	if outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), checkOutput{Config: path, OK: !failed, Results: results}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "config: %s\n", path)
		if len(results) == 0 {
			fmt.Fprintln(w, tui.StatusStyle("ready").Render("ok"))
		}
		for _, r := range results {
			style := tui.StatusStyle("timed-out")
			if r.Level == "error" {
				style = tui.StatusStyle("error")
			}
			fmt.Fprintf(w, "%s %s\n", style.Render(r.Level+":"), r.Message)
		}
	}

	if failed {
		return errors.New("configuration has errors")
	}
	return nil
}
