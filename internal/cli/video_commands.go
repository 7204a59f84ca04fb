package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipline/internal/domain/highlights"
	"github.com/forPelevin/clipline/internal/usecase"
)

func newSubmitCommand(cc *commandContext) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "submit <videoID>",
		Short: "Register a video and run transcription, analysis and production",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			videoID := strings.TrimSpace(args[0])
			if follow {
				pr := newProgressPrinter(cmd.OutOrStdout())
				stop := p.Progress().Subscribe(videoID, pr.print)
				defer stop()
			}
			if err := p.Submit(cmd.Context(), videoID); err != nil {
				return err
			}
			st, err := p.Status(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d clip(s) produced\n", videoID, statusLabel(string(st.Status)), len(st.Produced))
			for _, id := range st.Produced {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p.ClipPath(id))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Print progress updates while processing")
	return cmd
}

func newAnalyzeCommand(cc *commandContext) *cobra.Command {
	var (
		promptType    string
		lookFor       string
		avoidExisting bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <videoID>",
		Short: "Propose new clips for a video without producing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validPromptType(promptType) {
				return fmt.Errorf("--prompt must be one of %s", strings.Join(highlights.PromptTypes(), ", "))
			}
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			clips, err := p.AnalyzeVideo(cmd.Context(), usecase.AnalyzeInput{
				VideoID:    strings.TrimSpace(args[0]),
				PromptType: promptType,
				LookFor:    lookFor,
			}, avoidExisting)
			if err != nil {
				return err
			}
			if len(clips) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new clips proposed.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), clipTable(clips))
			return nil
		},
	}
	cmd.Flags().StringVar(&promptType, "prompt", highlights.PromptDefault, "Prompt template ("+strings.Join(highlights.PromptTypes(), ", ")+")")
	cmd.Flags().StringVar(&lookFor, "look-for", "", "What to look for when --prompt=custom")
	cmd.Flags().BoolVar(&avoidExisting, "avoid-existing", false, "Ask the model to avoid ranges already clipped")
	return cmd
}

func newStatusCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <videoID>",
		Short: "Show the processing status of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cc.open(cmd, true)
			if err != nil {
				return err
			}
			defer p.Close()

			st, err := p.Status(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Video", st.VideoID},
				{"Status", statusLabel(string(st.Status))},
				{"Produced clips", strconv.Itoa(len(st.Produced))},
			}
			if st.Error != "" {
				rows = append(rows, []string{"Error", st.Error})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func newVideosCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List videos and their clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cc.open(cmd, true)
			if err != nil {
				return err
			}
			defer p.Close()

			videos, err := p.ListVideos(cmd.Context())
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), videoTable(videos))
			return nil
		},
	}
}

func newDeleteVideoCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-video <videoID>",
		Short: "Delete a video, its clips and their media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			id := strings.TrimSpace(args[0])
			if err := p.DeleteVideo(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", id)
			return nil
		},
	}
}

func validPromptType(t string) bool {
	for _, v := range highlights.PromptTypes() {
		if v == t {
			return true
		}
	}
	return false
}
