package cli

import (
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcserver/internal/catalog"
	"mcserver/internal/config"
	"mcserver/internal/install"
	"mcserver/internal/jsonutil"
	"mcserver/internal/logx"
	"mcserver/internal/properties"
	"mcserver/internal/server"
	"mcserver/internal/supervisor"
)

const manifestTimeout = 30 * time.Second

// runtime bundles what a command needs after config is loaded.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	session *server.Session
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultFile
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return config.Config{}, err
	}
	if debugLogs {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// loadRuntime loads configuration and wires a session. Server output goes
// to the command's streams.
func loadRuntime(cmd *cobra.Command, onPhase server.PhaseFunc) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logx.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(cfg.ManifestURL, &http.Client{Timeout: manifestTimeout}, logger)
	session := server.NewSession(server.Deps{
		Catalog:   cat,
		Installer: install.New(cat, install.Options{StallTimeout: cfg.DownloadTimeout, Logger: logger}),
		Writer:    properties.NewWriter(properties.ExecRunner{}, cfg.JavaBin, logger),
		Supervisor: supervisor.New(supervisor.Options{
			JavaBin: cfg.JavaBin,
			Stdin:   cmd.InOrStdin(),
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Logger:  logger,
		}),
		Logger:  logger,
		Retry:   server.RetryPolicy{Attempts: cfg.Retry.Attempts, Cooldown: cfg.Retry.Cooldown},
		OnPhase: onPhase,
	})
	return &runtime{cfg: cfg, logger: logger, session: session}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}

func writeJSON(w io.Writer, v any) error {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
