package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/inbox"
)

func newWatchCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Submit every video ID dropped into the inbox directory",
		Long: "Watch paths.inbox_dir. A file named after a video ID, or whose first line is a\n" +
			"video ID or watch URL, is submitted and then removed. Stop with Ctrl-C.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.loadConfig()
			if err != nil {
				return err
			}
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			log, err := cc.logger(cmd, cfg)
			if err != nil {
				return err
			}
			stop := p.Progress().OnStage(progress.StageComplete, func(d progress.Descriptor) {
				log.Info("video complete", "video_id", d.VideoID, "message", d.Message)
			})
			defer stop()

			w, err := inbox.New(p.Config().Paths.InboxDir, p.Submit, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", p.Config().Paths.InboxDir)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
