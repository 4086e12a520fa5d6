package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"MentionsScanner/internal/app"
	"MentionsScanner/internal/config"
	"MentionsScanner/internal/domain"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <video-id>...",
		Short: "Download caption tracks into the episodes directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, nil, func(application *app.Application) error {
				for _, id := range args {
					n, err := application.Pipeline().FetchEpisode(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d segments\n", id, n)
				}
				return nil
			})
		},
	}
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "parse <video-id>...",
		Short: "Extract mentions from stored transcripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adjust := func(cfg *config.Config) {
				if sourceName != "" {
					cfg.Source.Name = sourceName
				}
			}
			return ctx.withApp(cmd, adjust, func(application *app.Application) error {
				for _, id := range args {
					result, err := application.Pipeline().ProcessEpisode(cmd.Context(), id)
					if err != nil {
						return err
					}
					printSummary(cmd, result)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Segment source to read from (file or youtube)")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <video-id>...",
		Short: "Fetch and parse episodes in one go",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, nil, func(application *app.Application) error {
				for _, id := range args {
					result, err := application.Pipeline().RunEpisode(cmd.Context(), id)
					if err != nil {
						return err
					}
					printSummary(cmd, result)
				}
				return nil
			})
		},
	}
}

func printSummary(cmd *cobra.Command, result domain.EpisodeResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d products, %d media cues\n",
		result.EpisodeID, len(result.Products), len(result.Media))
}
