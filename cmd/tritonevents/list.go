package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/utils"
)

func newListCmd() *cobra.Command {
	var statusFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored media and their pipeline status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var want *models.Status
			if statusFilter != "" {
				s, ok := models.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				want = &s
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

			store, cleanup, err := provideStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			medias, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list medias: %w", err)
			}
			printMedias(cmd.OutOrStdout(), medias, want)
			return nil
		},
	}
	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only show media in this status")
	return cmd
}

func printMedias(w io.Writer, medias []*models.MediaRecord, want *models.Status) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	shown := 0
	for _, m := range medias {
		if want != nil && m.Status != *want {
			continue
		}
		fmt.Fprintf(w, "%s  %-11s  %s %s\n",
			m.ID,
			statusColor(m.Status)(m.Status.String()),
			m.Name,
			gray(fmt.Sprintf("(%s:%s)", m.MetadataProvider, m.MetadataID)),
		)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, gray("No media"))
	}
}

func statusColor(s models.Status) func(a ...interface{}) string {
	switch s {
	case models.StatusDeployed:
		return color.New(color.FgGreen).SprintFunc()
	case models.StatusErrored:
		return color.New(color.FgRed).SprintFunc()
	case models.StatusQueued:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}
