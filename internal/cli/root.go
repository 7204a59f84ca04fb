package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipline/internal/config"
	"github.com/forPelevin/clipline/internal/logging"
	"github.com/forPelevin/clipline/internal/pipeline"
)

// commandContext carries the persistent flags to each subcommand.
type commandContext struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	root := &cobra.Command{
		Use:           "clipline",
		Short:         "Turn long-form videos into captioned short clips",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&cc.configPath, "config", "c", "", "Configuration file path")
	root.PersistentFlags().StringVar(&cc.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cc.logFormat, "log-format", "", "Log format (console, json, auto)")

	root.AddCommand(
		newSubmitCommand(cc),
		newAnalyzeCommand(cc),
		newProduceCommand(cc),
		newSummaryCommand(cc),
		newStatusCommand(cc),
		newVideosCommand(cc),
		newClipsCommand(cc),
		newDeleteVideoCommand(cc),
		newDeleteClipCommand(cc),
		newWatchCommand(cc),
		newConfigCommand(cc),
		newSecretsCommand(cc),
	)
	return root
}

func (cc *commandContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cc.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if v := strings.TrimSpace(cc.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(cc.logFormat); v != "" {
		cfg.Logging.Format = v
	}
	return cfg, nil
}

func (cc *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

// open wires a pipeline for one command. Listing commands pass readOnly so
// they work while another process holds the data directory.
func (cc *commandContext) open(cmd *cobra.Command, readOnly bool) (*pipeline.Pipeline, error) {
	cfg, err := cc.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := cc.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.Open(cfg, pipeline.Options{Log: log, ReadOnly: readOnly})
}
