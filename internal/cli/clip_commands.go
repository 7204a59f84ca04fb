package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

func newProduceCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "produce <clipID>[:start-end]...",
		Short: "Produce clips, optionally with edited ranges",
		Long: "Produce one or more clips concurrently. A range such as 1:02.5-1:45 or 62.5-105\n" +
			"replaces the stored start and end before production.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseClipSpecs(args)
			if err != nil {
				return err
			}
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			ids := make([]string, 0, len(specs))
			for _, s := range specs {
				if !s.hasRange {
					ids = append(ids, s.id)
				}
			}
			stored, err := p.ClipsByID(cmd.Context(), ids)
			if err != nil {
				return err
			}
			timings := resolveTimings(specs, stored)

			res, err := p.ProduceBatch(cmd.Context(), timings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range res.Succeeded {
				fmt.Fprintf(out, "produced %s -> %s\n", id, p.ClipPath(id))
			}
			for _, f := range res.Failed {
				fmt.Fprintf(out, "failed   %s: %v\n", f.ClipID, f.Err)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d clip(s) failed", len(res.Failed), len(timings))
			}
			return nil
		},
	}
}

func newSummaryCommand(cc *commandContext) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "summary <clipID>",
		Short: "Regenerate the summary of a clip, or replace it with --set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clipID := strings.TrimSpace(args[0])
			manual := cmd.Flags().Changed("set")
			if manual && strings.TrimSpace(text) == "" {
				return fmt.Errorf("%w: --set needs a non-empty summary", types.ErrValidation)
			}

			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			if manual {
				if err := p.UpdateSummary(cmd.Context(), clipID, text); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(text))
				return nil
			}
			summary, err := p.RegenerateSummary(cmd.Context(), clipID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "set", "", "Store this summary instead of generating one")
	return cmd
}

func newClipsCommand(cc *commandContext) *cobra.Command {
	var status, sortBy, order string
	cmd := &cobra.Command{
		Use:   "clips",
		Short: "List clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := clipFilter(status, sortBy, order)
			if err != nil {
				return err
			}
			p, err := cc.open(cmd, true)
			if err != nil {
				return err
			}
			defer p.Close()

			clips, err := p.ListClips(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(clips) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clips.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), clipTable(clips))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only clips with this status (pending, produced, posted, error)")
	cmd.Flags().StringVar(&sortBy, "sort", "created", "Sort by created or updated")
	cmd.Flags().StringVar(&order, "order", "desc", "Sort order (asc or desc)")
	return cmd
}

func newDeleteClipCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-clip <clipID>",
		Short: "Delete a clip and its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cc.open(cmd, false)
			if err != nil {
				return err
			}
			defer p.Close()

			id := strings.TrimSpace(args[0])
			if err := p.DeleteClip(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted clip %s\n", id)
			return nil
		},
	}
}

func clipFilter(status, sortBy, order string) (ports.ClipFilter, error) {
	f := ports.ClipFilter{Status: types.ClipStatus(strings.ToLower(strings.TrimSpace(status)))}
	switch f.Status {
	case "", types.ClipPending, types.ClipProduced, types.ClipPosted, types.ClipError:
	default:
		return f, fmt.Errorf("unknown clip status %q", status)
	}
	switch s := strings.ToLower(strings.TrimSpace(sortBy)); s {
	case "", "created", "updated":
		f.SortBy = s
	default:
		return f, fmt.Errorf("--sort must be created or updated, got %q", sortBy)
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "asc":
		f.Ascending = true
	case "", "desc":
	default:
		return f, errors.New("--order must be asc or desc")
	}
	return f, nil
}
